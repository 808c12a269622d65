// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Objectbusd serves an example org.example.Counter object over a bus
// socket. It exists to exercise the object server end to end: shared
// and exclusive method dispatch, spawned calls, properties with
// change signals, introspection, and the Peer interface.
//
// Configuration comes from --config, then OBJECTBUS_CONFIG, then
// built-in defaults. --socket overrides the configured socket path.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/objectbus/lib/busconn"
	"github.com/bureau-foundation/objectbus/lib/clock"
	"github.com/bureau-foundation/objectbus/lib/config"
	"github.com/bureau-foundation/objectbus/lib/objectserver"
	"github.com/bureau-foundation/objectbus/lib/process"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var configPath, socketPath string

	flagSet := pflag.NewFlagSet("objectbusd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML or JSONC config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&socketPath, "socket", "", "override listen.socket_path")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.Listen.SocketPath = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, logger)
	if err != nil {
		return err
	}
	return d.run(ctx)
}

// loadConfig reads an explicit file, then the file named by the
// environment, and falls back to the defaults.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		return config.Load()
	default:
		return config.Resolve(), nil
	}
}

// daemon is the counter object server behind a bus listener.
type daemon struct {
	logger   *slog.Logger
	server   *objectserver.Server
	counter  *objectserver.ArcInterface
	listener *busconn.Listener
}

func newDaemon(cfg *config.Config, logger *slog.Logger) (*daemon, error) {
	server := objectserver.New(logger)

	counter := objectserver.NewArcInterface(NewCounter(cfg.Counter.Initial, cfg.Counter.SpawnTasks, clock.Real()))
	if _, err := server.AtArc(cfg.CounterPath(), counter); err != nil {
		return nil, fmt.Errorf("registering counter: %w", err)
	}

	logger.Info("counter registered",
		"path", cfg.CounterPath(),
		"spawn_tasks", counter.SpawnTasks(),
		"initial", cfg.Counter.Initial,
	)

	return &daemon{
		logger:   logger,
		server:   server,
		counter:  counter,
		listener: busconn.NewListener(cfg.Listen.SocketPath, server, logger),
	}, nil
}

// run serves until ctx is cancelled, then waits for in-flight calls.
func (d *daemon) run(ctx context.Context) error {
	serveErr := d.listener.Serve(ctx)
	d.server.Wait()

	d.logger.Info("objectbusd stopped", "count", d.count())
	return serveErr
}

// count reads the counter under shared access.
func (d *daemon) count() int64 {
	var count int64
	objectserver.ReadAs(d.counter, func(c *Counter) {
		count = c.Count()
	})
	return count
}
