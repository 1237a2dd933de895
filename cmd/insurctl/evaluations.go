package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/export"
)

var (
	flagFrom   string
	flagTo     string
	flagFormat string
	flagOut    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics of the evaluation log",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the evaluation log as XLSX or JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, exportCmd} {
		c.Flags().StringVar(&flagFrom, "from", "", "inclusive lower bound (RFC 3339 or YYYY-MM-DD)")
		c.Flags().StringVar(&flagTo, "to", "", "inclusive upper bound (RFC 3339 or YYYY-MM-DD)")
	}
	exportCmd.Flags().StringVar(&flagFormat, "format", "xlsx", "xlsx or json")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file (default evaluation_log.<format>, - for stdout)")
	rootCmd.AddCommand(statsCmd, exportCmd)
}

func windowFromFlags() (domain.TimeRange, error) {
	from, err := parseTimeFlag("from", flagFrom)
	if err != nil {
		return domain.TimeRange{}, err
	}
	to, err := parseTimeFlag("to", flagTo)
	if err != nil {
		return domain.TimeRange{}, err
	}
	return domain.TimeRange{From: from, To: to}, nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	window, err := windowFromFlags()
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Evaluations == nil {
		return errors.New("evaluation log is disabled (EVAL_LOG_BACKEND=none)")
	}

	stats, err := app.Evaluations.Statistics(cmd.Context(), window)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func runExport(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(flagFormat)
	if format != "xlsx" && format != "json" {
		return fmt.Errorf("--format must be xlsx or json, got %q", flagFormat)
	}
	window, err := windowFromFlags()
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Evaluations == nil {
		return errors.New("evaluation log is disabled (EVAL_LOG_BACKEND=none)")
	}

	records, err := app.Evaluations.List(cmd.Context(), window)
	if err != nil {
		return err
	}
	stats := domain.ComputeStatistics(records)

	out := flagOut
	if out == "" {
		out = "evaluation_log." + format
	}
	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	if format == "xlsx" {
		err = export.WriteXLSX(w, records, stats)
	} else {
		err = export.WriteJSON(w, records, stats)
	}
	if err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d evaluations written to %s\n", len(records), out)
	}
	return nil
}
