package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/internal/workflow"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review low-confidence verdicts interactively",
	Long: `Review pulls pairs whose representative verdict's confidence sits below
the threshold (or every unreviewed pair with --all) and prompts for a
decision. Accepting keeps the model's verdict and sets the reviewed flag;
overriding replaces the summary with a manual relationship while the
recorded attempts keep the full audit trail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := setup()
		if err != nil {
			return err
		}
		defer handle.shutdown()

		all, _ := cmd.Flags().GetBool("all")
		ctx := handle.infra.Lifecycle.Context()

		queue, err := workflow.NewReviewQueue(ctx, handle.rt.Tabular, handle.rt.Threshold, all)
		if err != nil {
			return err
		}

		if queue.Remaining() == 0 {
			fmt.Println("nothing to review")
			return nil
		}

		fmt.Printf("%d pair(s) pending review\n\n", queue.Remaining())
		reader := bufio.NewReader(os.Stdin)

		for {
			if ctx.Err() != nil {
				return nil
			}

			row := queue.Next()
			if row == nil {
				fmt.Println("review queue exhausted")
				return nil
			}

			printCitation(row)

			decision, err := prompt(reader, "[a]ccept / [o]verride / [s]kip / [q]uit: ")
			if err != nil {
				return err
			}

			switch strings.ToLower(decision) {
			case "a", "accept":
				if err := queue.Accept(ctx, row.ID); err != nil {
					return err
				}
				fmt.Println("accepted")
			case "o", "override":
				rel, err := promptRelationship(reader)
				if err != nil {
					return err
				}
				if err := queue.Override(ctx, row.ID, rel); err != nil {
					return err
				}
				fmt.Printf("overridden to %s\n", rel)
			case "q", "quit":
				return nil
			default:
				fmt.Println("skipped")
			}
			fmt.Println()
		}
	},
}

func init() {
	reviewCmd.Flags().Bool("all", false, "review every unreviewed pair, not just low-confidence ones")
	rootCmd.AddCommand(reviewCmd)
}

func printCitation(row *tabular.Citation) {
	fmt.Printf("document:     %s\n", row.DocumentID)
	fmt.Printf("identifier:   %s\n", row.Identifier)
	if row.Title != "" {
		fmt.Printf("title:        %s\n", row.Title)
	}
	fmt.Printf("relationship: %s\n", row.Relationship)
	if row.Confidence != nil {
		fmt.Printf("confidence:   %.2f\n", *row.Confidence)
	}
	fmt.Printf("model:        %s\n", row.Model)
}

func prompt(reader *bufio.Reader, msg string) (string, error) {
	fmt.Print(msg)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptRelationship(reader *bufio.Reader) (citations.Relationship, error) {
	options := citations.Relationships()
	for i, rel := range options {
		fmt.Printf("  %d. %s\n", i+1, rel)
	}

	for {
		answer, err := prompt(reader, "relationship number: ")
		if err != nil {
			return "", err
		}

		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		if rel, err := citations.ParseRelationship(answer); err == nil {
			return rel, nil
		}
		fmt.Println("unrecognized relationship")
	}
}
