package main

import (
	"os"
	"strings"

	"github.com/aretw0/orocos"
	"github.com/aretw0/orocos/internal/cli"
	"github.com/aretw0/orocos/internal/presentation/tui"
	"github.com/aretw0/orocos/pkg/task"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [TASK...]",
	Short: "Follow the lifecycle state of running tasks",
	Long: `Print the state of the given tasks (every reachable task when none is
given), then every change, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		profile := termenv.Ascii
		if tui.IsTerminal(os.Stdout) {
			profile = termenv.ColorProfile()
			if !noBanner {
				tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(orocos.Version))
			}
		}

		sigCtx := cli.NewShutdownContext(cmd.Context())
		defer sigCtx.Stop()

		client, err := newClient(sigCtx)
		if err != nil {
			return err
		}
		defer client.Close()

		return cli.RunWatch(sigCtx, client, interval, cmd.OutOrStdout(), profile, args...)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("interval", task.DefaultWatchInterval, "Polling period")
	watchCmd.Flags().Bool("no-banner", false, "Do not print the banner")
}
