package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appLog "notioncal/internal/log"
)

// Set by -ldflags at build time.
var (
	version = "0.1.0-dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		appLog.Error("notioncal failed", err)
		cancel()
		os.Exit(1)
	}
}
