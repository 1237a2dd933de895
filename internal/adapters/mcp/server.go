// Package mcpadapter exposes the question-answering pipeline as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
)

const (
	serverName    = "insurance-clause-qa"
	serverVersion = "1.0.0"
)

type Tools struct {
	Answerer    ports.QuestionAnswerer
	Classifier  ports.QuestionClassifier
	Evaluations ports.EvaluationReader
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(false),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func NewServer(tools Tools) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(serverName, serverVersion, mcpserver.WithToolCapabilities(false))
	if tools.Answerer != nil {
		s.AddTool(askTool(), askHandler(tools.Answerer))
	}
	if tools.Classifier != nil {
		s.AddTool(classifyTool(), classifyHandler(tools.Classifier))
	}
	if tools.Evaluations != nil {
		s.AddTool(statisticsTool(), statisticsHandler(tools.Evaluations))
	}
	return s
}

func askTool() mcp.Tool {
	return mcp.NewTool("ask_insurance_question",
		mcp.WithDescription("Answer a question about insurance policy clauses. The answer cites the matching articles and reports the insurance category used for retrieval."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question in natural language, usually Korean"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum number of clause segments to retrieve (default 10)"),
		),
		mcp.WithBoolean("evaluate",
			mcp.Description("Score the answer with the judge model and log the evaluation"),
		),
	)
}

func classifyTool() mcp.Tool {
	return mcp.NewTool("classify_question",
		mcp.WithDescription("Resolve which insurance category a question belongs to, and whether the model, a keyword rule or the default decided it."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to classify"),
		),
	)
}

func statisticsTool() mcp.Tool {
	return mcp.NewTool("evaluation_statistics",
		mcp.WithDescription("Aggregate statistics of logged evaluations: latency, token usage, judge scores, filter success and fallback rates."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("from",
			mcp.Description("Inclusive lower bound, RFC 3339 or YYYY-MM-DD"),
		),
		mcp.WithString("to",
			mcp.Description("Inclusive upper bound, RFC 3339 or YYYY-MM-DD"),
		),
	)
}

func askHandler(answerer ports.QuestionAnswerer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := strings.TrimSpace(req.GetString("question", ""))
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		resp, err := answerer.Answer(ctx, domain.QueryRequest{
			Question: question,
			TopK:     req.GetInt("top_k", 0),
			Evaluate: req.GetBool("evaluate", false),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("answer failed [%s]: %v", domain.ErrorCode(err), err)), nil
		}
		return mcp.NewToolResultText(formatAnswer(resp)), nil
	}
}

func classifyHandler(classifier ports.QuestionClassifier) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := strings.TrimSpace(req.GetString("question", ""))
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		result := classifier.Classify(ctx, question)
		return mcp.NewToolResultText(fmt.Sprintf("%s (source: %s)", result.Category, result.Source)), nil
	}
}

func statisticsHandler(evals ports.EvaluationReader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		window, err := parseWindow(req.GetString("from", ""), req.GetString("to", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		stats, err := evals.Statistics(ctx, window)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("statistics failed [%s]: %v", domain.ErrorCode(err), err)), nil
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func formatAnswer(resp *domain.QueryResponse) string {
	var sb strings.Builder
	sb.WriteString(resp.Answer)
	fmt.Fprintf(&sb, "\n\n---\n분류: %s (%s)", resp.ClassifiedCategory, resp.ClassificationSource)
	if resp.ResolvedCategory != "" && resp.ResolvedCategory != resp.ClassifiedCategory {
		fmt.Fprintf(&sb, ", 검색 결과 보험종류: %s", resp.ResolvedCategory)
	}
	if resp.FallbackActivated {
		sb.WriteString(", 전체 검색으로 대체됨")
	}
	if path := levelPath(resp); path != "" {
		fmt.Fprintf(&sb, "\n근거 위치: %s", path)
	}
	if resp.Evaluation != nil && resp.Evaluation.JudgeScores != nil {
		fmt.Fprintf(&sb, "\n평가 평균: %.1f/5", resp.Evaluation.JudgeScores.AverageScore)
	}
	return sb.String()
}

func levelPath(resp *domain.QueryResponse) string {
	var parts []string
	for _, level := range []*string{resp.Level1, resp.Level2, resp.Level3, resp.Level4} {
		if level != nil {
			parts = append(parts, *level)
		}
	}
	return strings.Join(parts, " > ")
}

func parseWindow(from, to string) (domain.TimeRange, error) {
	var window domain.TimeRange
	var err error
	if window.From, err = parseBound(from); err != nil {
		return domain.TimeRange{}, fmt.Errorf("invalid from: %w", err)
	}
	if window.To, err = parseBound(to); err != nil {
		return domain.TimeRange{}, fmt.Errorf("invalid to: %w", err)
	}
	return window, nil
}

func parseBound(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}
