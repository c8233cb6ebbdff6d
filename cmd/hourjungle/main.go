package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hourjungle/billingcore/adapter/cli"
	"github.com/hourjungle/billingcore/internal/app"
	"github.com/hourjungle/billingcore/pkg/config"
	"github.com/hourjungle/billingcore/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		// Commands report the missing connection themselves.
		logger.Warn("running without database connection", "error", err)
	} else {
		cli.SetContainer(container)
		defer container.Close()
	}

	cli.Execute()
}
