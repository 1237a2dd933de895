package domain

import "strings"

// KeywordRule binds a category to the vocabulary that selects it in the keyword fallback.
type KeywordRule struct {
	Category Category
	Keywords []string
}

// keywordPrecedence is scanned in order; the first rule with any keyword present wins.
// The injury rule must not contain bare "사고", a substring of the vehicle keyword "교통사고".
var keywordPrecedence = []KeywordRule{
	{Category: CategoryInjury, Keywords: []string{"다쳤", "부상", "골절", "상해", "넘어", "충돌", "추락"}},
	{Category: CategoryDisease, Keywords: []string{"질병", "진단", "암", "뇌출혈", "뇌경색", "입원", "수술", "치료", "병원", "의사"}},
	{Category: CategoryVehicle, Keywords: []string{"자동차", "차량", "교통사고", "운전", "추돌", "렌트카"}},
	{Category: CategoryFire, Keywords: []string{"화재", "불", "전소", "연기", "폭발", "누전"}},
	{Category: CategoryLiability, Keywords: []string{"배상", "손해배상", "책임", "과실", "법적책임", "배상책임"}},
	{Category: CategoryProperty, Keywords: []string{"도난", "침수", "파손", "망가", "훼손", "재산", "시설", "기계", "건물", "누수"}},
	{Category: CategoryPension, Keywords: []string{"연금", "노후", "은퇴", "퇴직", "연금수령", "연금개시", "연금액", "노령"}},
}

// KeywordPrecedence returns a copy of the ordered keyword table.
func KeywordPrecedence() []KeywordRule {
	out := make([]KeywordRule, len(keywordPrecedence))
	copy(out, keywordPrecedence)
	return out
}

// MatchKeywordCategory returns the first category in precedence order whose
// vocabulary occurs in the question once whitespace is removed.
func MatchKeywordCategory(question string) (Category, bool) {
	compact := strings.Join(strings.Fields(question), "")
	if compact == "" {
		return "", false
	}
	for _, rule := range keywordPrecedence {
		for _, kw := range rule.Keywords {
			if strings.Contains(compact, kw) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
