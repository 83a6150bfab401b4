package main

import (
	"github.com/spf13/cobra"

	"github.com/gamebook-tools/sectioneer/internal/api"
	"github.com/gamebook-tools/sectioneer/version"
)

var (
	cfgFile      string
	homeDirFlag  string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sectioneer",
	Short: "Boundary consensus engine for scanned gamebook sections",
	Long: `Sectioneer turns noisy, overlapping section-span hypotheses from OCR and
AI passes over a scanned gamebook into a single gap-free, non-overlapping,
uniquely identified partition of the book's page range.

The pipeline includes:
  - Identifier normalization across engine output styles
  - Consensus voting over competing span hypotheses
  - Duplicate and suffix-sibling deduplication
  - Overlap resolution, gap filling, and coverage validation`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.sectioneer/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDirFlag, "home", "", "sectioneer home directory (default: ~/.sectioneer)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(resolveCmd)
}
