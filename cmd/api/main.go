package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"insightminer/app"
	"insightminer/internal/config"
	"insightminer/internal/session"
	"insightminer/ui"
)

func main() {
	cfgFile := flag.String("config", "", "YAML config file")
	flag.Parse()

	if err := run(*cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.Server.GinMode)

	sessions := session.NewManager(cfg.SessionConfig(), logger)
	defer sessions.CloseAll()
	service := app.NewExplainService(sessions, cfg.ExplainOptions(), cfg.BuildOptions(), logger)
	server := ui.NewApp(ui.Config{Port: cfg.Server.Port, ReadTimeout: cfg.Server.ReadTimeout}, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
