package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/orocos"
	"github.com/aretw0/orocos/internal/config"
	"github.com/aretw0/orocos/pkg/adapters/pkgconfig"
	"github.com/aretw0/orocos/pkg/adapters/redis"
	"github.com/aretw0/orocos/pkg/observability"
)

// NewClient creates and initializes a client with standard CLI conventions:
// a redis naming directory when one is configured, the pkg-config catalog,
// call logging at debug level and, if set, the model directory.
func NewClient(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...orocos.Option) (*orocos.Client, error) {
	clientOpts := []orocos.Option{
		orocos.WithLogger(logger),
		orocos.WithTarget(cfg.Target),
		orocos.WithHooks(observability.LogHooks(logger)),
	}

	if dirs := cfg.PkgConfigDirs(); len(dirs) > 0 {
		clientOpts = append(clientOpts, orocos.WithCatalog(pkgconfig.New(dirs, pkgconfig.WithLogger(logger))))
	}

	if cfg.Naming != "" {
		naming, err := redis.NewFromURL(cfg.Naming)
		if err != nil {
			return nil, fmt.Errorf("invalid naming directory %q: %w", cfg.Naming, err)
		}
		clientOpts = append(clientOpts, orocos.WithNaming(naming))
	}

	if cfg.DisableSigchld {
		clientOpts = append(clientOpts, orocos.WithoutSigchldHandler())
	}

	client := orocos.New(append(clientOpts, opts...)...)
	if err := client.Initialize(ctx); err != nil {
		return nil, err
	}

	if cfg.Models != "" {
		if err := client.LoadModels(ctx, cfg.Models, ""); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to load models from %s: %w", cfg.Models, err)
		}
	}
	return client, nil
}
