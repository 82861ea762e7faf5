package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nmarkham/citetype/internal/citations"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize citation pair statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := setup()
		if err != nil {
			return err
		}
		defer handle.shutdown()

		counts, err := handle.rt.Tabular.StatusCounts(handle.infra.Lifecycle.Context())
		if err != nil {
			return err
		}

		ordered := []citations.Status{
			citations.StatusUnclassified,
			citations.StatusNoContext,
			citations.StatusClassified,
			citations.StatusAutoAccepted,
			citations.StatusPendingReview,
			citations.StatusReviewed,
		}

		total := 0
		for _, status := range ordered {
			if n, ok := counts[status]; ok {
				fmt.Printf("%-15s %d\n", status, n)
				total += n
			}
		}
		for status, n := range counts {
			known := false
			for _, s := range ordered {
				if s == status {
					known = true
					break
				}
			}
			if !known {
				fmt.Printf("%-15s %d\n", status, n)
				total += n
			}
		}
		fmt.Printf("%-15s %d\n", "total", total)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
