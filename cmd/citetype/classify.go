package main

import (
	"github.com/spf13/cobra"

	"github.com/nmarkham/citetype/internal/workflow"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify citation pairs lacking a verdict above the threshold",
	Long: `Classify reads each document's contexts artifact and submits every
(document, identifier) pair's evidence to the configured backends. Each
backend call records exactly one immutable attempt; the configured selection
strategy then picks a representative verdict and projects its summary onto
the citation row. Pairs already at or above the confidence threshold are
skipped unless --overwrite is set; pairs without evidence go terminal as
no-context without touching any backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := setup()
		if err != nil {
			return err
		}
		defer handle.shutdown()

		filters := documentFilters(cmd)
		_, err = workflow.ClassifyRun(handle.infra.Lifecycle.Context(), handle.rt, filters)
		return err
	},
}

func init() {
	classifyCmd.Flags().String("document", "", "restrict the run to one document ID")
	rootCmd.AddCommand(classifyCmd)
}
