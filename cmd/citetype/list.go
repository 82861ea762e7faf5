package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/pkg/pagination"
	"github.com/nmarkham/citetype/pkg/query"
)

var listCmd = &cobra.Command{
	Use:   "list [id | document identifier]",
	Short: "List citation pairs",
	Long: `List prints a page of citation rows with their summary fields. With a
single UUID argument it prints that row in detail; with a document ID and
identifier it looks up the matching pair instead.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := setup()
		if err != nil {
			return err
		}
		defer handle.shutdown()

		ctx := handle.infra.Lifecycle.Context()

		switch len(args) {
		case 1:
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse id %q: %w", args[0], err)
			}
			row, err := handle.rt.Tabular.Find(ctx, id)
			if err != nil {
				return err
			}
			printCitationDetail(row)
			return nil
		case 2:
			flavor, _ := cmd.Flags().GetString("flavor")
			row, err := handle.rt.Tabular.FindPair(ctx, args[0], args[1], flavor)
			if err != nil {
				return err
			}
			printCitationDetail(row)
			return nil
		}

		page := pagination.PageRequest{}
		page.Page, _ = cmd.Flags().GetInt("page")
		page.PageSize, _ = cmd.Flags().GetInt("page-size")
		if search, _ := cmd.Flags().GetString("search"); search != "" {
			page.Search = &search
		}
		if sort, _ := cmd.Flags().GetString("sort"); sort != "" {
			page.Sort = query.ParseSortFields(sort)
		}

		result, err := handle.rt.Tabular.List(ctx, page, listFilters(cmd))
		if err != nil {
			return err
		}

		fmt.Printf("%-36s  %-12s  %-18s  %-14s  %-18s  %s\n",
			"id", "document", "identifier", "status", "relationship", "confidence")
		for _, row := range result.Data {
			confidence := "-"
			if row.Confidence != nil {
				confidence = fmt.Sprintf("%.2f", *row.Confidence)
			}
			fmt.Printf("%-36s  %-12s  %-18s  %-14s  %-18s  %s\n",
				row.ID, row.DocumentID, row.Identifier, row.Status, row.Relationship, confidence)
		}
		fmt.Printf("\npage %d of %d (%d row(s))\n", result.Page, result.TotalPages, result.Total)

		return nil
	},
}

func init() {
	listCmd.Flags().Int("page", 1, "page number")
	listCmd.Flags().Int("page-size", 0, "rows per page (0 uses the configured default)")
	listCmd.Flags().String("search", "", "match against title, document ID, and identifier")
	listCmd.Flags().String("sort", "", "comma-separated sort fields, - prefix for descending (e.g. -Confidence,DocumentID)")
	listCmd.Flags().String("status", "", "comma-separated status filter (e.g. pending-review,auto-accepted)")
	listCmd.Flags().String("document", "", "restrict to one document ID")
	listCmd.Flags().String("identifier", "", "restrict to one tracked identifier")
	listCmd.Flags().String("title", "", "title substring filter")
	listCmd.Flags().String("flavor", "", "identifier flavor for pair lookup")
	listCmd.Flags().Bool("reviewed", false, "filter on the reviewed flag")
	listCmd.Flags().Float64("min-confidence", 0, "only rows with confidence at or above this value")
	listCmd.Flags().Float64("below-confidence", 0, "only rows with confidence strictly below this value")
	rootCmd.AddCommand(listCmd)
}

func listFilters(cmd *cobra.Command) tabular.Filters {
	var filters tabular.Filters

	if doc, _ := cmd.Flags().GetString("document"); doc != "" {
		filters.DocumentID = &doc
	}
	if identifier, _ := cmd.Flags().GetString("identifier"); identifier != "" {
		filters.Identifier = &identifier
	}
	if title, _ := cmd.Flags().GetString("title"); title != "" {
		filters.Title = &title
	}
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filters.Statuses = append(filters.Statuses, s)
			}
		}
	}
	if cmd.Flags().Changed("reviewed") {
		reviewed, _ := cmd.Flags().GetBool("reviewed")
		filters.Reviewed = &reviewed
	}
	if cmd.Flags().Changed("min-confidence") {
		floor, _ := cmd.Flags().GetFloat64("min-confidence")
		filters.MinConfidence = &floor
	}
	if cmd.Flags().Changed("below-confidence") {
		ceiling, _ := cmd.Flags().GetFloat64("below-confidence")
		filters.BelowConfidence = &ceiling
	}

	return filters
}

func printCitationDetail(row *tabular.Citation) {
	printCitation(row)
	if row.Flavor != "" {
		fmt.Printf("flavor:       %s\n", row.Flavor)
	}
	fmt.Printf("status:       %s\n", row.Status)
	fmt.Printf("method:       %s\n", row.Method)
	fmt.Printf("reviewed:     %t\n", row.Reviewed)
	fmt.Printf("updated:      %s\n", row.UpdatedAt.Format("2006-01-02 15:04:05"))
}
