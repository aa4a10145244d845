// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command uppercase-agent serves the uppercase reference agent over A2A.
//
// Usage:
//
//	uppercase-agent serve --config agent.yaml
//	uppercase-agent serve --addr :9999 --store sqlite --dsn tasks.db
//	uppercase-agent card
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/a2a-agent/agent/uppercase"
	"github.com/go-a2a/a2a-agent/config"
	"github.com/go-a2a/a2a-agent/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve ServeCmd `cmd:"" help:"Serve the agent."`
	Card  CardCmd  `cmd:"" help:"Print the agent card."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	PublicURL string `name:"public-url" help:"URL the agent card advertises."`
}

// load reads the configuration and applies the global flags.
func (cli *CLI) load() (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cli.PublicURL != "" {
		cfg.Server.PublicURL = cli.PublicURL
	}
	return cfg, nil
}

// ServeCmd serves the agent until interrupted.
type ServeCmd struct {
	Addr      string        `help:"Address to listen on."`
	Store     string        `help:"Task store driver (memory, sqlite)."`
	DSN       string        `name:"dsn" help:"Task store DSN."`
	QueueSize int           `name:"queue-size" help:"Bound of each execution's event queue (0 = unbounded)." default:"-1"`
	Delay     time.Duration `help:"Time the agent works before replying (0 keeps the configured value)."`
}

func (c *ServeCmd) apply(cfg *config.Config) error {
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.Store != "" {
		cfg.Store.Driver = c.Store
	}
	if c.DSN != "" {
		cfg.Store.DSN = c.DSN
	}
	if c.QueueSize >= 0 {
		cfg.Server.QueueSize = c.QueueSize
	}
	if c.Delay > 0 {
		cfg.Agent.Delay = config.Duration(c.Delay)
	}
	cfg.SetDefaults()
	return cfg.Validate()
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := uppercase.NewExecutor(
		uppercase.WithDelay(cfg.Agent.Delay.Duration()),
		uppercase.WithLogger(logger),
	)
	srv, err := server.New(ctx, cfg, executor, uppercase.Card(cfg.Server.PublicURL), server.WithLogger(logger))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// CardCmd prints the agent card as JSON.
type CardCmd struct{}

func (c *CardCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	card := uppercase.Card(cfg.Server.PublicURL)
	if err := json.MarshalWrite(os.Stdout, card, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("uppercase-agent"),
		kong.Description("A2A agent that replies with your messages in upper case."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
