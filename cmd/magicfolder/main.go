// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Command magicfolder mounts a directory whose contents are
// physically stored flat on disk but presented through a synthetic,
// classification-driven virtual directory layer (see SPEC_FULL.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gauravkhati/magicfolder/lib/backingstore"
	"github.com/gauravkhati/magicfolder/lib/classifier"
	"github.com/gauravkhati/magicfolder/lib/classifyqueue"
	"github.com/gauravkhati/magicfolder/lib/clock"
	"github.com/gauravkhati/magicfolder/lib/magicfs"
	"github.com/gauravkhati/magicfolder/lib/pathrouter"
	"github.com/gauravkhati/magicfolder/lib/visibility"
)

// defaultSocketPath is the classification service's well-known local
// IPC endpoint.
const defaultSocketPath = "/tmp/magic_brain.ipc"

func main() {
	if err := run(); err != nil {
		fatal(err)
	}
}

// fatal writes "error: err" to stderr and exits with code 1, the same
// pre-logger error path the teacher's daemons use before a structured
// logger exists.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func run() error {
	var (
		backingRoot string
		socketPath  string
		debounce    time.Duration
		rpcTimeout  time.Duration
		allowOther  bool
	)
	flag.StringVar(&backingRoot, "backing-root", "", "directory that physically stores every file (default: $HOME/.magicFolder/raw)")
	flag.StringVar(&socketPath, "classifier-socket", defaultSocketPath, "Unix domain socket of the classification service")
	flag.DurationVar(&debounce, "debounce", classifyqueue.DefaultDebounce, "how long to wait for a burst of releases to coalesce before classifying")
	flag.DurationVar(&rpcTimeout, "rpc-timeout", classifier.DefaultTimeout, "send/receive timeout for a single classification request")
	flag.BoolVar(&allowOther, "allow-other", false, "allow other users to access the mount (requires user_allow_other in /etc/fuse.conf)")
	flag.Parse()

	mountpoint := flag.Arg(0)
	if mountpoint == "" {
		return fmt.Errorf("usage: magicfolder <mountpoint> [flags]")
	}
	// flag.Parse stops at the first positional argument, so parse the
	// flags that follow the mountpoint as well.
	if err := flag.CommandLine.Parse(flag.Args()[1:]); err != nil {
		return err
	}

	if backingRoot == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return fmt.Errorf("HOME is not set; pass -backing-root explicitly")
		}
		backingRoot = filepath.Join(home, ".magicFolder", "raw")
	}

	logger := newLogger()

	store := backingstore.New(backingRoot)
	if err := store.EnsureRoot(); err != nil {
		return err
	}

	router := pathrouter.New(backingRoot)
	state := visibility.New()
	client := classifier.New(classifier.Options{
		SocketPath: socketPath,
		Timeout:    rpcTimeout,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Non-fatal startup diagnostic: the mount proceeds whether or not
	// the classification service is listening yet (spec §7).
	client.Probe(ctx)

	queue := classifyqueue.New(classifyqueue.Options{
		State:      state,
		Classifier: client,
		Resolver:   routerResolver{router: router},
		Clock:      clock.Real(),
		Debounce:   debounce,
		Logger:     logger,
	})
	queue.Start(ctx)
	defer queue.Shutdown()

	server, err := magicfs.Mount(magicfs.Options{
		Mountpoint: mountpoint,
		Store:      store,
		State:      state,
		Queue:      queue,
		AllowOther: allowOther,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down", "mountpoint", mountpoint)
		if err := server.Unmount(); err != nil {
			logger.Warn("unmount failed", "error", err)
		}
	}()

	server.Wait()
	return nil
}

// newLogger creates the standard magicfolder logger: a JSON handler
// writing to stderr at Info level. It also sets the default slog
// logger so third-party code using slog.Info etc. gets the same
// handler.
func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// routerResolver adapts a *pathrouter.Router into a
// classifyqueue.Resolver: a queued filename is always a root child by
// construction (only root-child releases are ever enqueued, see
// lib/magicfs), so resolving it through the router's root-child rule
// yields the same absolute backing path the classifier must see.
type routerResolver struct {
	router *pathrouter.Router
}

func (r routerResolver) AbsPath(name string) string {
	return r.router.Resolve(pathrouter.Join("", name))
}
