package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/palletlabs/pallet/pkg/server"
)

// ServeCmd starts the orchestrator HTTP server.
type ServeCmd struct {
	Host  string `help:"Host to bind." placeholder:"HOST"`
	Port  int    `help:"Port to listen on." placeholder:"PORT"`
	Watch bool   `help:"Watch config file for changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Host != "" {
		a.cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		a.cfg.Server.Port = c.Port
	}

	if c.Watch && a.loader != nil {
		go func() {
			if err := a.loader.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("config watch error", "error", err)
			}
		}()
	}

	opts := server.Options{
		Host:     a.cfg.Server.Host,
		Port:     a.cfg.Server.Port,
		Runner:   a.orch,
		Registry: a.registry,
		Logger:   slog.Default(),
	}
	if a.lister != nil {
		opts.Lister = a.lister
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("Pallet orchestrator listening on %s:%d\n", a.cfg.Server.Host, a.cfg.Server.Port)
	fmt.Printf("  Health:    http://%s:%d/health\n", a.cfg.Server.Host, a.cfg.Server.Port)
	fmt.Printf("  Workflows: http://%s:%d/api/workflows\n", a.cfg.Server.Host, a.cfg.Server.Port)
	fmt.Printf("  Agents:    http://%s:%d/api/agents\n", a.cfg.Server.Host, a.cfg.Server.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}
