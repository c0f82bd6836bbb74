package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/NethermindEth/solmint/pkg/minter"
	"github.com/NethermindEth/solmint/pkg/minter/setup"
	"github.com/NethermindEth/solmint/pkg/minter/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupResult, err := setup.Setup(ctx)
	if err != nil {
		slog.Error("failed to setup", "error", err)
		return
	}

	shutdownTracing, err := tracing.Init(ctx, setupResult.Config.Tracing)
	if err != nil {
		slog.Error("failed to init tracing", "error", err)
		return
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("failed to shutdown tracing", "error", err)
		}
	}()

	config, err := minter.NewMinterConfigFromSetupResult(ctx, setupResult)
	if err != nil {
		slog.Error("failed to create minter config", "error", err)
		return
	}

	m, err := minter.NewMinter(config)
	if err != nil {
		slog.Error("failed to create minter", "error", err)
		return
	}

	if err := m.Start(ctx); err != nil {
		slog.Error("minter stopped", "error", err)
	}
}
