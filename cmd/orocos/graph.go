package main

import (
	"fmt"

	"github.com/aretw0/orocos/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the task model hierarchy as a Mermaid graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		overlay, _ := cmd.Flags().GetBool("overlay")

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		out, err := cli.ModelGraph(cmd.Context(), client, overlay)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("overlay", false, "Highlight the models of running and failed tasks")
}
