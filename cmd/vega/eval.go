package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensehq/vega/pkg/policy/engine"
	"expensehq/vega/pkg/rules"
)

var (
	evalRulesPath string
	evalTxnsPath  string
	evalWorkers   int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate transactions against a compiled rule set",
	Long: `Eval loads a compiled rule set and a transaction file (a JSON array
of records, or one JSON record per line) and prints one result line per
transaction with the names of violated rules.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		data, err := os.ReadFile(evalRulesPath)
		if err != nil {
			return fmt.Errorf("failed to read rule set: %w", err)
		}
		var rs rules.RuleSet
		if err := json.Unmarshal(data, &rs); err != nil {
			return fmt.Errorf("failed to decode rule set: %w", err)
		}

		txns, err := readTransactions(evalTxnsPath)
		if err != nil {
			return err
		}

		eng := engine.New(rt.metrics, rt.logger)
		prepared := eng.Prepare(&rs)
		if skipped := prepared.Skipped(); len(skipped) > 0 {
			fmt.Fprintf(os.Stderr, "skipping %d rules with invalid conditions: %v\n", len(skipped), skipped)
		}

		results, err := prepared.EvaluateBatch(cmd.Context(), txns, evalWorkers)
		if err != nil {
			return err
		}

		out := bufio.NewWriter(os.Stdout)
		defer out.Flush()
		enc := json.NewEncoder(out)
		for i, violated := range results {
			line := map[string]any{
				"txn_id":    txns[i]["txn_id"],
				"violated":  violated,
				"violation": len(violated) > 0,
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
		return nil
	},
}

// readTransactions accepts a JSON array of records or NDJSON.
func readTransactions(path string) ([]rules.TransactionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var txns []rules.TransactionRecord
		if err := json.Unmarshal(data, &txns); err != nil {
			return nil, fmt.Errorf("failed to decode transactions: %w", err)
		}
		return txns, nil
	}

	var txns []rules.TransactionRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var txn rules.TransactionRecord
		if err := json.Unmarshal(line, &txn); err != nil {
			return nil, fmt.Errorf("failed to decode transaction line %d: %w", len(txns)+1, err)
		}
		txns = append(txns, txn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txns, nil
}

func init() {
	evalCmd.Flags().StringVar(&evalRulesPath, "rules", "", "compiled rule set JSON file (required)")
	evalCmd.Flags().StringVar(&evalTxnsPath, "txns", "", "transaction file, JSON array or NDJSON (required)")
	evalCmd.Flags().IntVar(&evalWorkers, "workers", 0, "evaluation workers (default GOMAXPROCS)")
	evalCmd.MarkFlagRequired("rules")
	evalCmd.MarkFlagRequired("txns")
	rootCmd.AddCommand(evalCmd)
}
