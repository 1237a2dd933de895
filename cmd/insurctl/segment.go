package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/chunking"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/extractor"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/storage/localfs"
)

var flagSegmentJSON bool

var segmentCmd = &cobra.Command{
	Use:   "segment <file>",
	Short: "Segment one policy document offline and print its clause hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegment,
}

func init() {
	segmentCmd.Flags().BoolVar(&flagSegmentJSON, "json", false, "print segments as JSON")
	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) error {
	dir, name := filepath.Split(args[0])
	if dir == "" {
		dir = "."
	}
	storage, err := localfs.New(dir)
	if err != nil {
		return err
	}
	text, err := extractor.NewRouter(storage).Extract(cmd.Context(), &domain.Document{Filename: name, StoragePath: name})
	if err != nil {
		return err
	}
	segments, err := chunking.NewSegmenter(cfg.SegmentMaxRunes, cfg.SegmentOverlapRunes).Segment(text, name)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagSegmentJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(segments)
	}
	fmt.Fprintf(w, "%s: %d segments (%s)\n", name, len(segments), segments[0].Category)
	for i, seg := range segments {
		fmt.Fprintf(w, "%4d  %-60s %6d chars\n", i+1, segmentPath(seg), utf8.RuneCountInString(seg.Content))
	}
	return nil
}
