package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tickerdash/config"
	"tickerdash/internal/market/engine"
	"tickerdash/internal/ui"
	"tickerdash/logger"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run())
}

func run() int {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		return 1
	}
	defer log.Sync()

	eng, err := engine.New(cfg, log)
	if err != nil {
		log.Error("failed to build engine", zap.Error(err))
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		return 1
	}

	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		log.Error("failed to initialise terminal", zap.Error(err))
		fmt.Fprintln(os.Stderr, "failed to initialise terminal:", err)
		return 1
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		// quitting the dashboard stops the engine
		defer cancel()
		return ui.Run(ctx, screen, eng, cfg.Render.Tick, log)
	})

	if err := g.Wait(); err != nil {
		screen.Fini()
		log.Error("tickerdash stopped", zap.Error(err))
		fmt.Fprintln(os.Stderr, "tickerdash stopped:", err)
		return 1
	}
	log.Info("tickerdash stopped")
	return 0
}
