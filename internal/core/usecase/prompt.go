package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

func buildClassificationPrompt(question string) string {
	var b strings.Builder
	b.WriteString("다음 질문이 어떤 보험유형에 해당하는지 하나만 골라라.\n")
	b.WriteString("반드시 아래 [보험유형 목록]에서 선택해야 한다.\n")
	b.WriteString("여러 유형에 포함될 경우, 더 하위 범주로 선택하라.\n")
	b.WriteString("보험유형 이름 한 줄만 출력하라.\n\n")
	b.WriteString("[보험유형 목록]\n")
	for _, c := range domain.AllCategories() {
		b.WriteString("- ")
		b.WriteString(string(c))
		b.WriteString("\n")
	}
	b.WriteString("\n질문: ")
	b.WriteString(question)
	b.WriteString("\n\n보험유형:\n")
	return b.String()
}

func buildAnswerPrompt(question, clauseContext string, category domain.Category, top domain.Segment) string {
	return fmt.Sprintf(`너는 보험 약관을 근거로만 답변하는 보험 약관 QA 시스템이다.

규칙:
1. 반드시 제공된 약관 조문에 근거하여 답변할 것
2. 조문 번호(관/편/장/절/조)를 그대로 인용할 것
3. 약관에 없는 내용은 절대 추측하지 말 것
4. 조문 내용은 요약하지 말고 필요한 부분은 그대로 인용할 것

[보험종류] %s
[대표 조문 위치] %s

[약관 조문]
%s

[질문]
%s

[답변 형식]
- 보장 여부:
- 근거 조항:
- 조문 인용:
`, category, hierarchyPath(top), clauseContext, question)
}

func hierarchyPath(seg domain.Segment) string {
	parts := make([]string, 0, domain.HierarchyDepth)
	for _, level := range seg.Levels() {
		if level != nil && *level != "" {
			parts = append(parts, *level)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " > ")
}
