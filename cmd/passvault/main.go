package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkaminskis/passvault/internal/buildinfo"
	"github.com/mkaminskis/passvault/internal/cli"
	"github.com/mkaminskis/passvault/internal/config"
	"github.com/mkaminskis/passvault/internal/engine"
	"github.com/mkaminskis/passvault/internal/logging"
	"github.com/mkaminskis/passvault/internal/store"
)

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// logs go to stderr so prompts on stdout stay readable
	logger := logging.NewJSONLogger(os.Stderr, logLevel(cfg.LogLevel))

	s, err := store.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer s.Close(context.Background())

	logger.Info(ctx, "store ready", "backend", cfg.Backend)

	app := cli.NewApp(engine.New(s, logger), logger)
	app.Run(ctx)
}
