package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

var (
	flagTopK     int
	flagEvaluate bool
	flagMetrics  bool
	flagJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed policy clauses",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <question>",
	Short: "Show which insurance category a question resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	askCmd.Flags().IntVar(&flagTopK, "top-k", 0, "segments to retrieve (default RAG_TOP_K)")
	askCmd.Flags().BoolVar(&flagEvaluate, "evaluate", false, "score the answer with the judge and log it")
	askCmd.Flags().BoolVar(&flagMetrics, "metrics", false, "print stage timings and token estimates")
	askCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd, classifyCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.QueryUC.Answer(cmd.Context(), domain.QueryRequest{
		Question:      strings.Join(args, " "),
		TopK:          flagTopK,
		Evaluate:      flagEvaluate,
		EnableMetrics: flagMetrics,
	})
	if err != nil {
		return err
	}
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	writeAnswer(cmd.OutOrStdout(), resp)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	result := app.Classifier.Classify(cmd.Context(), strings.Join(args, " "))
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s)\n", result.Category, result.Source)
	return nil
}

func writeAnswer(w io.Writer, resp *domain.QueryResponse) {
	fmt.Fprintln(w, resp.Answer)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "category:  %s (%s)\n", resp.ClassifiedCategory, resp.ClassificationSource)
	if resp.ResolvedCategory != "" {
		fmt.Fprintf(w, "resolved:  %s\n", resp.ResolvedCategory)
	}
	fmt.Fprintf(w, "filter:    used=%t fallback=%t\n", resp.UsedFilter, resp.FallbackActivated)
	for i, seg := range resp.Segments {
		fmt.Fprintf(w, "  %2d. %.3f  %s\n", i+1, seg.Score, segmentPath(seg.Segment))
	}
	if m := resp.Metrics; m != nil {
		fmt.Fprintf(w, "timings:   classification=%s retrieval=%s generation=%s total=%s\n",
			m.ClassificationTime, m.RetrievalTime, m.GenerationTime, m.TotalTime)
		fmt.Fprintf(w, "tokens:    total=%d\n", m.TotalTokens)
	}
	if e := resp.Evaluation; e != nil && e.JudgeScores != nil {
		fmt.Fprintf(w, "judge:     %.1f/5 %s\n", e.JudgeScores.AverageScore, e.JudgeScores.Explanation)
	}
}

func segmentPath(seg domain.Segment) string {
	parts := []string{seg.SourceRef}
	for _, level := range seg.Levels() {
		if level != nil {
			parts = append(parts, *level)
		}
	}
	return strings.Join(parts, " > ")
}
