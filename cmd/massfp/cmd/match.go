package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/dataset"
	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/fingerprint"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a MALDI peak list against a PSM catalog",
	Long: `Match every peak in a MALDI peak list against the reference masses of
confidently identified peptides within a ppm tolerance window.

Examples:
  # Defaults: 10 ppm, hyperscore > 18, charge state 1
  massfp match --peaks peaks.csv --psms psm.tsv

  # Wider window, two charge states, tab-separated output
  massfp match --peaks peaks.csv --psms psm.tsv \
    --tolerance 25 --charges 1,2 --out results.tsv`,
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	charges, err := fingerprint.ParseCharges(chargeSpec)
	if err != nil {
		return fmt.Errorf("invalid --charges: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	peaks, psms, err := dataset.ReadPair(ctx, peakPath, psmPath)
	if err != nil {
		return err
	}

	var sink fingerprint.Progress = fingerprint.WriterProgress{W: cmd.ErrOrStderr()}
	if quiet {
		sink = fingerprint.NopProgress{}
	}

	fp := fingerprint.New(fingerprint.WithProgress(sink))
	fp.LoadTables(peaks, psms)
	fp.SetParameters(fingerprint.Params{
		PPMTolerance:        tolerance,
		ConfidenceThreshold: scoreThreshold,
		AllowedCharges:      charges,
		ReferenceMassColumn: massColumn,
	})

	results, err := fp.Fingerprint(ctx)
	if err != nil {
		return err
	}

	if err := dataset.WriteTable(outPath, results.Table()); err != nil {
		return err
	}

	if !quiet {
		printSummary(cmd.OutOrStdout(), fingerprint.Summarize(results))
	}
	return nil
}

func printSummary(w io.Writer, s fingerprint.Summary) {
	fmt.Fprintf(w, "\nFingerprinting complete!\n")
	fmt.Fprintf(w, "Matches: %d\n", s.Matches)
	if s.Matches > 0 {
		fmt.Fprintf(w, "Mass error mean: %.4f ppm (std %.4f)\n", s.MassError.Mean, s.MassError.StdDev)
		fmt.Fprintf(w, "Mass error range: %.4f to %.4f ppm\n", s.MassError.Min, s.MassError.Max)
		fmt.Fprintf(w, "Mass error quartiles: %.4f / %.4f / %.4f ppm\n", s.MassError.Q1, s.MassError.Median, s.MassError.Q3)
		if verbose {
			fmt.Fprintf(w, "\nMass error histogram (ppm):\n")
			printHistogram(w, s.ErrorHistogram, "%.3f")
			fmt.Fprintf(w, "\nIdentifications per m/z bin:\n")
			printHistogram(w, s.MZHistogram, "%.0f")
		}
	}
	fmt.Fprintf(w, "Output: %s\n", outPath)
}

func printHistogram(w io.Writer, h fingerprint.Histogram, edgeFormat string) {
	for i, count := range h.Counts {
		if count == 0 {
			continue
		}
		lo := fmt.Sprintf(edgeFormat, h.Edges[i])
		hi := fmt.Sprintf(edgeFormat, h.Edges[i+1])
		fmt.Fprintf(w, "  %s to %s: %.0f\n", lo, hi, count)
	}
}
