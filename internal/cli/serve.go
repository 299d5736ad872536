package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/orocos/internal/logging"
	orohttp "github.com/aretw0/orocos/pkg/adapters/http"
	"github.com/aretw0/orocos/pkg/adapters/memory"
	"github.com/aretw0/orocos/pkg/observability"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	// Listener accepts the HTTP connections.
	Listener net.Listener
	// Endpoint is registered in the naming directory for every hosted task.
	// Defaults to http://<listener address>.
	Endpoint string
	Tasks    []*memory.Task
	Naming   ports.NamingDirectory
	// Registry receives the task state gauges served on /metrics. Defaults to
	// a fresh registry.
	Registry *prometheus.Registry
	// StateInterval is the period at which hosted task states are sampled
	// for /metrics.
	StateInterval time.Duration
	Logger        *slog.Logger
}

// Serve hosts tasks over HTTP until ctx is done, registering them in the
// naming directory on startup and unregistering them on shutdown.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	interval := opts.StateInterval
	if interval <= 0 {
		interval = time.Second
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = "http://" + opts.Listener.Addr().String()
	}

	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	host := memory.NewTransport(opts.Tasks...)
	router := orohttp.NewRouter(host, orohttp.WithLogger(logger))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: router}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(opts.Listener)
	}()

	for _, t := range opts.Tasks {
		if err := opts.Naming.Register(ctx, t.Name(), endpoint); err != nil {
			_ = srv.Close()
			return fmt.Errorf("failed to register task %s: %w", t.Name(), err)
		}
		logger.Info("Task registered", "task", t.Name(), "endpoint", endpoint)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	observe := func() {
		for _, t := range opts.Tasks {
			if state, err := t.State(ctx); err == nil {
				metrics.ObserveState(t.Name(), state)
			}
		}
	}
	observe()

	for {
		select {
		case err := <-serverErrors:
			unregister(opts.Naming, opts.Tasks, logger)
			return err
		case <-ticker.C:
			observe()
		case <-ctx.Done():
			unregister(opts.Naming, opts.Tasks, logger)

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	}
}

func unregister(naming ports.NamingDirectory, tasks []*memory.Task, logger *slog.Logger) {
	for _, t := range tasks {
		if err := naming.Unregister(context.Background(), t.Name()); err != nil {
			logger.Warn("Cannot unregister task", "task", t.Name(), "error", err)
		}
	}
}
