package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/jamesprial/token-introspector/internal/cache"
	"github.com/jamesprial/token-introspector/internal/config"
	"github.com/jamesprial/token-introspector/internal/introspect"
	"github.com/jamesprial/token-introspector/internal/logging"
	"github.com/jamesprial/token-introspector/internal/metrics"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	metrics      *metrics.Metrics
	introspector introspect.Introspector
	store        cache.Store
}

// buildApp loads the configuration and wires the introspection pipeline:
// optional response cache, then optional metrics around the introspector.
func buildApp(ctx context.Context, fs *pflag.FlagSet, logOut io.Writer, reg prometheus.Registerer) (*app, error) {
	cfg, err := config.Load(fs)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "config", cfg.String())

	a := &app{cfg: cfg, logger: logger}

	opts := []introspect.Option{introspect.WithLogger(logger)}

	a.store, err = cache.NewStore(ctx, cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	if a.store != nil {
		opts = append(opts, introspect.WithSenderDecorator(cache.Decorator(a.store, cfg.Cache.TTL, logger)))
		logger.Info("introspection cache enabled", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.TTL)
	}

	remote, err := introspect.Discover(ctx, cfg.IntrospectConfig(), opts...)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.introspector = remote

	if cfg.Metrics.Enabled {
		a.metrics, err = metrics.New(reg)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		a.introspector = a.metrics.Instrument(a.introspector)
	}
	return a, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}
