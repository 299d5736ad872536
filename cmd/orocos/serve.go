package main

import (
	"fmt"
	"net"

	"github.com/aretw0/orocos/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve SIMULATION",
	Short: "Host simulated tasks over HTTP",
	Long: `Hosts the tasks declared in a YAML simulation file behind the HTTP task
protocol, registers them in the naming directory and exposes their states on
/metrics. Tasks whose model resolves get the ports and properties of the model.

Use a redis naming directory (--naming) to reach the tasks from other processes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		endpoint, _ := cmd.Flags().GetString("endpoint")

		sim, err := cli.LoadSimulation(args[0])
		if err != nil {
			return err
		}

		sigCtx := cli.NewShutdownContext(cmd.Context())
		defer sigCtx.Stop()

		client, err := newClient(sigCtx)
		if err != nil {
			return err
		}
		defer client.Close()

		tasks, err := sim.Build(sigCtx, client.Registry())
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		logger.Info("Serving simulated tasks", "address", ln.Addr().String(), "tasks", len(tasks))

		err = cli.Serve(sigCtx, cli.ServeOptions{
			Listener: ln,
			Endpoint: endpoint,
			Tasks:    tasks,
			Naming:   client.Naming(),
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("Server stopped gracefully", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("endpoint", "", "Endpoint registered in the naming directory (default http://<listen address>)")
}
