package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensehq/vega/pkg/policy/source"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile <policy-file>",
	Short: "Compile a policy file into a rule set",
	Long: `Compile reads a policy file (free-form text or a rule set JSON
document), extracts candidate rules, validates them against the canonical
transaction schema, and writes the compiled rule set as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		src := source.NewFile(args[0], rt.pipeline, rt.logger)
		rs, err := src.Load(cmd.Context())
		if err != nil {
			return err
		}

		if rs.EnforceableCount() == 0 {
			fmt.Fprintln(os.Stderr, "warning: rule set has no enforceable rules")
		}

		out, err := rs.MarshalIndent()
		if err != nil {
			return err
		}
		if compileOutput == "" || compileOutput == "-" {
			fmt.Println(string(out))
			return nil
		}
		if err := os.WriteFile(compileOutput, append(out, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write rule set: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %d rules (%d enforceable) to %s\n",
			len(rs.Rules), rs.EnforceableCount(), compileOutput)
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(compileCmd)
}
