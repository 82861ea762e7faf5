package main

import (
	"github.com/spf13/cobra"

	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/internal/workflow"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract citation contexts for documents lacking an extraction record",
	Long: `Extract downloads each citation's source document, locates mentions of
the tracked identifier, and writes a per-document contexts artifact of
deduplicated evidence windows. Documents with an existing artifact are
skipped unless --overwrite is set; unreadable documents are recorded as
failed and the run continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := setup()
		if err != nil {
			return err
		}
		defer handle.shutdown()

		filters := documentFilters(cmd)
		_, err = workflow.ExtractRun(handle.infra.Lifecycle.Context(), handle.rt, filters)
		return err
	},
}

func init() {
	extractCmd.Flags().String("document", "", "restrict the run to one document ID")
	rootCmd.AddCommand(extractCmd)
}

func documentFilters(cmd *cobra.Command) tabular.Filters {
	var filters tabular.Filters
	if doc, _ := cmd.Flags().GetString("document"); doc != "" {
		filters.DocumentID = &doc
	}
	return filters
}
