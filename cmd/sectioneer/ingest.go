package main

import (
	"github.com/spf13/cobra"

	"github.com/gamebook-tools/sectioneer/internal/api"
	"github.com/gamebook-tools/sectioneer/internal/home"
	"github.com/gamebook-tools/sectioneer/internal/ingest"
)

var ingestTitle string

var ingestCmd = &cobra.Command{
	Use:   "ingest <pdf> [pdf...]",
	Short: "Register a scanned gamebook and establish its page range",
	Long: `Ingest counts pages across the scan PDFs, copies them into the home
directory, and records the document's page range. The range is the fixed
target every later resolve run must partition exactly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDirFlag)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		res, err := ingest.Ingest(cmd.Context(), h, ingest.Request{
			PDFPaths: args,
			Title:    ingestTitle,
		})
		if err != nil {
			return err
		}
		return api.Output(res)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (default: derived from first filename)")
}
