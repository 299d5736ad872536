package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/orocos/internal/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:       "list KIND",
	Short:     "List projects, libraries, deployments, typekits, models, types or tasks",
	Args:      cobra.ExactArgs(1),
	ValidArgs: cli.Inventories,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		table, err := cli.Inventory(cmd.Context(), client, args[0])
		if err != nil {
			return fmt.Errorf("%w (one of %s)", err, strings.Join(cli.Inventories, ", "))
		}
		if format == cli.FormatText {
			return cli.PrintTable(cmd.OutOrStdout(), table.Header, table.Rows)
		}
		return cli.PrintValue(cmd.OutOrStdout(), format, rowsAsRecords(table))
	},
}

func rowsAsRecords(t cli.Table) []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(row))
		for i, cell := range row {
			rec[strings.ToLower(strings.ReplaceAll(t.Header[i], " ", "_"))] = cell
		}
		records = append(records, rec)
	}
	return records
}

func outputFormat(cmd *cobra.Command) (cli.Format, error) {
	s, _ := cmd.Flags().GetString("output")
	return cli.ParseFormat(s)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
}
