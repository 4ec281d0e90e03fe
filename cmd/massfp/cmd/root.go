// Package cmd provides the massfp CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	// Flags for the match command
	peakPath       string
	psmPath        string
	outPath        string
	tolerance      float64
	scoreThreshold float64
	chargeSpec     string
	massColumn     string
	quiet          bool
	verbose        bool

	// Flags for the serve command
	addr      string
	maxUpload int64
)

var rootCmd = &cobra.Command{
	Use:   "massfp",
	Short: "Spatial mass fingerprinting for MALDI imaging data",
	Long: `massfp matches MALDI peak lists against peptide-spectrum match (PSM)
catalogs from LC-MS/MS database searches. PSMs are filtered by
confidence score and charge state, then every peak is matched against
the remaining reference masses within a configurable ppm tolerance.

The result table carries the matched peak m/z, all PSM columns and the
signed mass error in ppm for every peak/peptide pairing.`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	matchCmd.Flags().StringVarP(&peakPath, "peaks", "p", "", "Peak list file: .csv or .mzML, optionally gzipped (required)")
	matchCmd.Flags().StringVarP(&psmPath, "psms", "s", "", "PSM table file: .tsv, .csv or .txt, optionally gzipped (required)")
	matchCmd.Flags().StringVarP(&outPath, "out", "o", "fingerprinting_results.csv", "Output file; .tsv writes tabs, .gz compresses")
	matchCmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 10, "Match tolerance in ppm")
	matchCmd.Flags().Float64Var(&scoreThreshold, "score-threshold", 18.0, "Keep PSMs with hyperscore strictly above this value")
	matchCmd.Flags().StringVarP(&chargeSpec, "charges", "c", "1", "Comma-separated charge states to keep")
	matchCmd.Flags().StringVar(&massColumn, "mass-column", "Calibrated Observed Mass", "PSM column holding the reference mass")
	matchCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output and the summary report")
	matchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print histogram tables in the summary report")
	matchCmd.MarkFlagRequired("peaks")
	matchCmd.MarkFlagRequired("psms")
	matchCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().Int64Var(&maxUpload, "max-upload", 0, "Maximum accepted request body size in bytes (0 = unlimited)")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable request logging")
}
