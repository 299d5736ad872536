package main

import (
	"github.com/aretw0/orocos/internal/cli"
	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model NAME",
	Short: "Show the definition of a task model",
	Args:  cobra.ExactArgs(1),
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

		m, err := client.ResolveTaskModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return cli.PrintValue(cmd.OutOrStdout(), format, m)
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.Flags().StringP("output", "o", "yaml", "Output format: json or yaml")
}
