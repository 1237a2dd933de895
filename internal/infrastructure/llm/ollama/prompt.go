package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const (
	judgeContextLimit = 2000
	ragasDocLimit     = 5
	ragasDocChars     = 500
)

func buildJudgePrompt(question, answer, clauseContext string) string {
	return fmt.Sprintf(`당신은 보험 약관 Q&A 시스템의 답변 품질을 평가하는 전문가입니다.

[질문]
%s

[생성된 답변]
%s

[참고 문서 (컨텍스트)]
%s

다음 항목을 1-5점 척도로 평가하세요 (정수만):
1. 관련성 (Relevance): 답변이 질문과 얼마나 관련 있는가?
2. 정확도 (Accuracy): 답변이 사실적으로 정확한가? (제시된 컨텍스트 기반)
3. 유용성 (Helpfulness): 사용자에게 도움이 되는 답변인가?
4. 완전성 (Completeness): 질문에 충분히 답변했는가?
5. 근거 충실도 (Groundedness): 제시된 문서로 답변이 뒷받침되는가?

반드시 다음 JSON 형식으로만 반환하세요 (다른 텍스트 없이):
{"relevance": 4, "accuracy": 5, "helpfulness": 4, "completeness": 3, "groundedness": 5, "explanation": "간단한 평가 이유 설명"}
`, question, answer, truncateRunes(clauseContext, judgeContextLimit))
}

func buildRagasPrompt(question, answer, docsText string) string {
	return fmt.Sprintf(`당신은 RAG 시스템 평가 전문가입니다.

[질문]
%s

[생성된 답변]
%s

[검색된 문서들]
%s

다음 RAGAS 메트릭을 0.0-1.0 사이의 실수로 평가하세요:

1. Faithfulness (신뢰성): 답변이 제공된 컨텍스트에 기반하는가?
2. Answer Relevancy (답변 관련성): 답변이 질문을 제대로 해결하는가?
3. Context Precision (컨텍스트 정밀도): 검색된 문서 중 답변에 실제로 사용된 문서의 비율은?
4. Context Recall (컨텍스트 재현율): 답변에 필요한 정보가 검색된 문서에 모두 포함되어 있는가?

반드시 다음 JSON 형식으로만 반환하세요:
{"faithfulness": 0.9, "answer_relevancy": 0.85, "context_precision": 0.8, "context_recall": 0.75, "explanation": "평가 이유"}
`, question, answer, docsText)
}

// ragasDocuments renders the first retrieved segments, falling back to the
// truncated context when nothing was retrieved.
func ragasDocuments(clauseContext string, segments []domain.ScoredSegment) string {
	if len(segments) == 0 {
		return truncateRunes(clauseContext, judgeContextLimit)
	}
	limit := min(len(segments), ragasDocLimit)
	parts := make([]string, 0, limit)
	for i := range limit {
		parts = append(parts, fmt.Sprintf("[문서 %d]\n%s", i+1, truncateRunes(segments[i].Content, ragasDocChars)))
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
