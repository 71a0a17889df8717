package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/windowhub/engine/internal/domain/embed"
	"github.com/windowhub/engine/internal/engine"
	"github.com/windowhub/engine/internal/infrastructure/config"
	"github.com/windowhub/engine/internal/infrastructure/logging"
	"github.com/windowhub/engine/internal/infrastructure/monitoring"
	"github.com/windowhub/engine/internal/infrastructure/server"
	"github.com/windowhub/engine/internal/winsys"
)

func main() {
	container := flag.Uint64("container", 0, "Native handle of the host container window")
	paneX := flag.Int("pane-x", 0, "Embedding pane x offset inside the container")
	paneY := flag.Int("pane-y", 0, "Embedding pane y offset inside the container")
	paneW := flag.Int("pane-width", 1280, "Embedding pane width")
	paneH := flag.Int("pane-height", 720, "Embedding pane height")
	flag.Parse()

	if *container == 0 {
		log.Fatal("--container is required: the engine embeds windows into an existing host window")
	}

	cfg := config.LoadOrDefault()

	logger := logging.FromOptions(cfg.Logging.Level, cfg.Logging.Development)
	defer logger.Sync()

	metrics := monitoring.NewMetrics()

	policy := embed.DefaultPolicy()
	if cfg.Engine.PolicyPath != "" {
		p, err := embed.LoadPolicy(cfg.Engine.PolicyPath)
		if err != nil {
			log.Fatalf("Failed to load embedding policy: %v", err)
		}
		policy = p
	}

	pane := winsys.Rect{X: *paneX, Y: *paneY, Width: *paneW, Height: *paneH}
	eng := engine.New(winsys.NewNative(), winsys.Handle(*container), pane, engine.Options{
		Policy:          policy,
		DetachDelay:     cfg.Engine.DetachDelay,
		MonitorInterval: cfg.Engine.MonitorInterval,
		LaunchTimeout:   cfg.Launch.CaptureTimeout,
		LaunchPoll:      cfg.Launch.PollInterval,
		AppRoots:        cfg.Launch.AppRoots,
	}, logger.Logger).WithMetrics(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	srv := server.NewServer(cfg, eng, logger, metrics)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		cancel()
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
