package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/palletlabs/pallet/pkg/config"
	"github.com/palletlabs/pallet/pkg/discovery"
	"github.com/palletlabs/pallet/pkg/orchestrator"
	"github.com/palletlabs/pallet/pkg/protocol"
	"github.com/palletlabs/pallet/pkg/registry"
	"github.com/palletlabs/pallet/pkg/workflow"
)

// app is the wired-up system: registry client, discovery, and the
// orchestrator on top of them. Built once per command invocation.
type app struct {
	cfg      *config.Config
	registry *registry.Client
	resolver workflow.SkillResolver
	lister   *discovery.Registry // nil under static discovery
	orch     *orchestrator.Orchestrator
	loader   *config.Loader // nil without a config file
}

func buildApp(ctx context.Context, cli *CLI) (*app, error) {
	var (
		cfg    *config.Config
		loader *config.Loader
	)
	if cli.Config != "" {
		var err error
		cfg, loader, err = config.LoadConfigFile(ctx, cli.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}
	if cli.Registry != "" {
		cfg.Registry.URL = cli.Registry
	}

	reg := registry.NewClient(cfg.Registry)

	var (
		resolver workflow.SkillResolver
		lister   *discovery.Registry
	)
	if len(cfg.Discovery.Static) > 0 {
		resolver = discovery.Static(cfg.Discovery.Static)
	} else {
		lister = discovery.NewRegistry(reg,
			discovery.WithDefaultTag(cfg.Discovery.DefaultTag),
			discovery.WithLogger(slog.Default()),
		)
		resolver = lister
	}

	invoker := protocol.NewClient(&protocol.ClientConfig{
		Timeout: cfg.Engine.InvokeTimeout,
	})

	orch := orchestrator.New(reg, resolver, invoker,
		orchestrator.WithLogger(slog.Default()),
	)

	return &app{
		cfg:      cfg,
		registry: reg,
		resolver: resolver,
		lister:   lister,
		orch:     orch,
		loader:   loader,
	}, nil
}

func (a *app) Close() {
	if a.loader != nil {
		_ = a.loader.Close()
	}
}
