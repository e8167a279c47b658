package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensehq/vega/pkg/epl"
	"expensehq/vega/pkg/epl/dialect"
)

var checkCmd = &cobra.Command{
	Use:   "check <condition>",
	Short: "Check a condition against the restricted grammar",
	Long: `Check parses a single condition, applying SQL-dialect repair if the
first parse fails, and prints the canonical form, the SQL form, and the
fields it references.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		condition := args[0]

		node, parsedText, repaired, err := epl.ParseOrRepair(condition)
		if err != nil {
			return fmt.Errorf("condition is not valid:\n%w", err)
		}

		if repaired {
			fmt.Printf("repaired:  %s\n", parsedText)
		}
		fmt.Printf("canonical: %s\n", node.String())
		fmt.Printf("sql:       %s\n", dialect.ToSQL(parsedText))
		fmt.Printf("fields:    %v\n", node.Identifiers())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
