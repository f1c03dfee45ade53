package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"switchgraph/internal/config"
	"switchgraph/internal/inventory"
	"switchgraph/internal/logging"
	"switchgraph/internal/repository"
	"switchgraph/internal/repository/sqlite"
	"switchgraph/internal/service"
)

var (
	cfg     *config.Config
	cfgPath string
)

// setup loads the configuration and initializes logging for every command
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if opts.configPath != "" {
		cfg, cfgPath, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, cfgPath, err = config.Load()
	}
	if err != nil {
		return err
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}

	logging.Init(logging.Config{
		Format:    cfg.Log.Format,
		Level:     cfg.Log.Level,
		Component: cmd.Name(),
	})
	if cfgPath != "" {
		log.Debug().Str("file", cfgPath).Msg("Loaded config")
	} else {
		log.Debug().Msg("No config file found, using defaults")
	}
	return nil
}

// app holds the components a command runs against
type app struct {
	repo     *sqlite.Repository
	svc      *service.Service
	resolver *inventory.Resolver
	closer   io.Closer
}

// openApp opens the store and wires the service
func openApp(bus *service.EventBus) (*app, error) {
	kinds, err := cfg.EnabledKinds()
	if err != nil {
		return nil, err
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	resolver := inventory.NewResolver(cfg.Transport, cfg.Devices, nil)
	client, closer, err := inventory.NewClient(cfg.Transport, resolver)
	if err != nil {
		repo.Close()
		return nil, err
	}

	svc := service.New(repo, client, bus, service.Config{
		DiscoveryTimeout: cfg.Discovery.Timeout.Duration(),
		ResyncTimeout:    cfg.Discovery.ResyncTimeout.Duration(),
		MaxConcurrent:    cfg.Discovery.MaxConcurrent,
		Kinds:            kinds,
	})

	return &app{repo: repo, svc: svc, resolver: resolver, closer: closer}, nil
}

// syncInventory makes the device registry equal to the loaded config file.
// Without a config file the registry is left alone so that running with
// defaults never wipes it.
func (a *app) syncInventory(ctx context.Context) (repository.SyncSummary, error) {
	if cfgPath == "" {
		return repository.SyncSummary{}, nil
	}
	summary, err := inventory.Sync(ctx, a.svc, cfg)
	if err != nil {
		return summary, fmt.Errorf("sync inventory: %w", err)
	}
	return summary, nil
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close transport")
	}
	if err := a.repo.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}

// withApp opens the app for the duration of fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.syncInventory(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

// printResult writes v to the command output in the selected format
func printResult(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	switch opts.output {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json", "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
}
