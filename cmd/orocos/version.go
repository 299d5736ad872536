package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/orocos"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of orocos",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "orocos version %s\n", strings.TrimSpace(orocos.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
