// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Objectbusctl calls objects on an objectbus socket from the command
// line. Reply bodies are printed as JSON. A bus error reply exits with
// status 2, any other failure with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/busconn"
	"github.com/bureau-foundation/objectbus/lib/config"
	"github.com/bureau-foundation/objectbus/lib/names"
	"github.com/bureau-foundation/objectbus/lib/process"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		process.Fatal(err)
	}
}

// errUsage is returned for malformed command lines after the usage
// text has been printed.
var errUsage = errors.New("invalid usage")

// options are the global flags shared by every command.
type options struct {
	socketPath string
	timeout    time.Duration
	noReply    bool
	verbose    bool
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("objectbusctl", pflag.ContinueOnError)
	flagSet.StringVar(&opts.socketPath, "socket", "", "bus socket path (default: listen.socket_path from $"+config.EnvironmentVariable+" or the built-in default)")
	flagSet.DurationVar(&opts.timeout, "timeout", 10*time.Second, "how long to wait for a reply")
	flagSet.BoolVar(&opts.noReply, "no-reply", false, "send with the no-reply flag and do not wait")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log connection details to stderr")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { printUsage(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() == 0 {
		printUsage(flagSet)
		return errUsage
	}

	name, commandArgs := flagSet.Arg(0), flagSet.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		printUsage(flagSet)
		return fmt.Errorf("unknown command %q", name)
	}
	req, err := cmd.parse(commandArgs)
	if err != nil {
		return fmt.Errorf("%s: %w\nusage: objectbusctl %s %s", name, err, name, cmd.usage)
	}

	if opts.socketPath == "" {
		if opts.socketPath, err = defaultSocketPath(); err != nil {
			return err
		}
	}

	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	conn, err := busconn.Dial(ctx, opts.socketPath, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Debug("connected", "socket", opts.socketPath, "unique_name", conn.UniqueName(), "guid", conn.GUID())

	var flags bus.Flags
	if opts.noReply {
		flags |= bus.FlagNoReplyExpected
	}
	reply, err := conn.Call(ctx, busconn.ServerName, req.path, req.iface, req.member, flags, req.body...)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	return cmd.print(stdout, reply)
}

// defaultSocketPath resolves the socket from the same configuration
// the daemon reads.
func defaultSocketPath() (string, error) {
	if os.Getenv(config.EnvironmentVariable) == "" {
		return config.Resolve().Listen.SocketPath, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.Listen.SocketPath, nil
}

// request is one method call built from command arguments.
type request struct {
	path   names.ObjectPath
	iface  names.InterfaceName
	member names.MemberName
	body   []any
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `objectbusctl calls objects on an objectbus socket.

Usage:
  objectbusctl [flags] <command> [args]

Commands:
`)
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(os.Stderr, `
Arguments are parsed as JSON, so 5 is an integer, "5" and five are
strings, and {"a": 1} is a map. INTERFACE may be "-" to leave the call
unqualified.

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
