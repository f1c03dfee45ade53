package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"switchgraph/internal/adapter"
	"switchgraph/internal/config"
	"switchgraph/internal/handler"
	"switchgraph/internal/hub"
	"switchgraph/internal/inventory"
	"switchgraph/internal/metrics"
	"switchgraph/internal/service"
	"switchgraph/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with scheduled discovery",
	Long: `Serve exposes the store over HTTP, streams discovery and configuration
events on /events, re-discovers every enabled kind on the configured
interval and reloads the device inventory when the config file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	bus := service.NewEventBus()
	a, err := openApp(bus)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.syncInventory(ctx); err != nil {
		return err
	}

	kinds, err := cfg.EnabledKinds()
	if err != nil {
		return err
	}

	events := hub.New()
	go events.Run(ctx)
	events.Forward(ctx, bus)

	registry := adapter.NewRegistry()
	registry.SetResultHandler(func(name string, res *adapter.SyncResult) {
		log.Debug().Str("adapter", name).Int("changed", res.Changed()).Int("errors", len(res.Errors)).Msg("Scheduled discovery finished")
	})
	adapters, configs := adapter.DiscoveryAdapters(kinds, a.svc.DiscoverDevices, adapter.AdapterConfig{
		Enabled:      true,
		PollInterval: cfg.Discovery.Interval.Duration(),
	})
	for i := range adapters {
		if err := registry.Register(adapters[i], configs[i]); err != nil {
			return err
		}
	}
	if err := registry.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := registry.Stop(); err != nil {
			log.Warn().Err(err).Msg("Adapter registry shutdown error")
		}
	}()

	api := handler.New(a.svc)
	api.SetDiscoveryTrigger(registry)
	api.SetEventStream(events)
	if cfg.Metrics.Addr == "" {
		api.SetMetrics(metrics.Handler())
	}

	g, gctx := errgroup.WithContext(ctx)

	servers := []*http.Server{newServer(cfg.HTTP.Addr, api.Handler())}
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, newServer(cfg.Metrics.Addr, mux))
	}
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("Server listening")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if cfgPath != "" {
		g.Go(func() error {
			return watcher.WatchConfig(gctx, cfgPath, func(ctx context.Context, next *config.Config) error {
				return applyConfig(ctx, a, next)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Str("addr", srv.Addr).Msg("Server shutdown error")
			}
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("Server stopped")
	return err
}

// newServer leaves WriteTimeout unset since /events streams are long-lived
func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// applyConfig adopts the device inventory of a reloaded config file.
// Transport and discovery settings take effect on restart.
func applyConfig(ctx context.Context, a *app, next *config.Config) error {
	a.resolver.Update(next.Devices)
	_, err := inventory.Sync(ctx, a.svc, next)
	return err
}
