package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/core/usecase"
)

var (
	flagRecreate bool
	flagWorkers  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Segment, embed and index every policy document in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&flagRecreate, "recreate", false, "drop and recreate the vector collection first")
	ingestCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel documents (default INGEST_WORKERS)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	batch, storage, router, err := app.DirectoryIngest(args[0], flagWorkers)
	if err != nil {
		return err
	}
	names, err := storage.List(ctx, router.SupportedExtensions()...)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no supported documents in %s", args[0])
	}

	if flagRecreate {
		if err := app.Vector.Recreate(ctx); err != nil {
			return fmt.Errorf("recreate collection: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "collection %s recreated\n", cfg.QdrantCollection)
	}

	docs := make([]*domain.Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, &domain.Document{ID: name, Filename: name, StoragePath: name})
	}
	outcomes := batch.IngestAll(ctx, docs)
	return writeIngestSummary(cmd.OutOrStdout(), outcomes)
}

// writeIngestSummary prints one row per document. It fails only when no
// document could be indexed.
func writeIngestSummary(w io.Writer, outcomes []usecase.BatchOutcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSEGMENTS\tSTATUS")

	var indexed, failed, segments int
	for _, o := range outcomes {
		status := "indexed"
		if o.Err != nil {
			failed++
			status = "skipped: " + o.Err.Error()
		} else {
			indexed++
			segments += o.Segments
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Identifier, o.Segments, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d indexed, %d skipped, %d segments\n", indexed, failed, segments)

	if indexed == 0 && failed > 0 {
		return errors.New("no document was indexed")
	}
	return nil
}
