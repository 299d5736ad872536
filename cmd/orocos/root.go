package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/orocos"
	"github.com/aretw0/orocos/internal/cli"
	"github.com/aretw0/orocos/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orocos",
	Short: "orocos discovers task models and drives running components",
	Long: `orocos inspects the task models installed on this host (through the
pkg-config metadata of their packages) and controls the running tasks
registered in the naming directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(cmd.Flags())
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("config")
		cfg, err = config.Load(v, file)
		if err != nil {
			return err
		}
		level, _ := cfg.Level()
		quiet, _ := cmd.Flags().GetBool("quiet")
		logger = cli.CreateLogger(level, quiet)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("target", "", "Deployment target (env OROCOS_TARGET, default gnulinux)")
	flags.String("pkg-config-path", "", "Package metadata directories (env PKG_CONFIG_PATH)")
	flags.String("naming", "", "Redis URL of the naming directory (env OROCOS_NAMING)")
	flags.String("models", "", "Directory of task model documents (env OROCOS_MODELS)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (env OROCOS_LOG_LEVEL)")
	flags.Bool("disable-sigchld", false, "Do not reap deployment processes (env OROCOS_DISABLE_SIGCHLD)")
	flags.BoolP("quiet", "q", false, "Disable logging")
}

// newClient creates an initialized client from the resolved configuration.
func newClient(ctx context.Context, opts ...orocos.Option) (*orocos.Client, error) {
	return cli.NewClient(ctx, cfg, logger, opts...)
}
