package domain

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestParseCategoryFromIdentifier(t *testing.T) {
	cases := []struct {
		name       string
		identifier string
		want       Category
		wantErr    bool
	}{
		{name: "plain", identifier: "001_상해보험_가공.xml", want: CategoryInjury},
		{name: "with directory", identifier: "/data/raw/010_자동차보험_가공.xml", want: CategoryVehicle},
		{name: "decomposed hangul", identifier: norm.NFD.String("003_화재보험_가공.xml"), want: CategoryFire},
		{name: "category after numeric parts", identifier: "2024_01_연금보험_가공.pdf", want: CategoryPension},
		{name: "missing suffix", identifier: "001_상해보험.xml", wantErr: true},
		{name: "unknown category", identifier: "001_여행보험_가공.xml", wantErr: true},
		{name: "no underscores", identifier: "policy.xml", wantErr: true},
		{name: "empty", identifier: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCategoryFromIdentifier(tc.identifier)
			if tc.wantErr {
				if !IsKind(err, ErrIdentifierParse) {
					t.Fatalf("expected ErrIdentifierParse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMatchKeywordCategoryPrecedence(t *testing.T) {
	cases := []struct {
		question string
		want     Category
		ok       bool
	}{
		{question: "골절로 입원했는데 진단비 나오나요?", want: CategoryInjury, ok: true},
		{question: "교통사고가 났는데 보험 보장받을 수 있어?", want: CategoryVehicle, ok: true},
		{question: "암 진단 받으면?", want: CategoryDisease, ok: true},
		{question: "자동차 화재", want: CategoryVehicle, ok: true},
		{question: "누 전 으로 집이 탔어요", want: CategoryFire, ok: true},
		{question: "이웃집에 손해 배상 해야 하나요", want: CategoryLiability, ok: true},
		{question: "태풍으로 침수 피해", want: CategoryProperty, ok: true},
		{question: "연금 개시 나이", want: CategoryPension, ok: true},
		{question: "보험료 납입 방법", ok: false},
		{question: "   ", ok: false},
	}

	for _, tc := range cases {
		got, ok := MatchKeywordCategory(tc.question)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("MatchKeywordCategory(%q) = (%q, %v), want (%q, %v)", tc.question, got, ok, tc.want, tc.ok)
		}
	}
}

func TestKeywordPrecedenceCoversEveryCategoryOnce(t *testing.T) {
	seen := map[Category]bool{}
	for _, rule := range KeywordPrecedence() {
		if seen[rule.Category] {
			t.Fatalf("category %q listed twice", rule.Category)
		}
		seen[rule.Category] = true
	}
	for _, c := range AllCategories() {
		if !seen[c] {
			t.Fatalf("category %q missing from precedence table", c)
		}
	}
	if KeywordPrecedence()[0].Category != CategoryInjury {
		t.Fatalf("injury rule must be checked first")
	}
}

func TestParseCategory(t *testing.T) {
	if _, ok := ParseCategory("자동차보험 "); !ok {
		t.Fatalf("expected trimmed category to parse")
	}
	if _, ok := ParseCategory("보험"); ok {
		t.Fatalf("expected out-of-set label to be rejected")
	}
	if !DefaultCategory.Valid() {
		t.Fatalf("default category must be in the closed set")
	}
}
