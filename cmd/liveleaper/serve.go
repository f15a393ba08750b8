package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/liveleaper/liveleaper/docs" // swagger docs
	"github.com/liveleaper/liveleaper/internal/api/handlers"
	"github.com/liveleaper/liveleaper/internal/api/router"
	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/services/auth"
	"github.com/liveleaper/liveleaper/internal/utils"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", "", "listen address override")
	port := fs.String("port", "", "listen port override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger := utils.GetLogger()
	logger.Info("Starting LiveLeaper service")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	var jwtService *auth.JWTService
	if cfg.API.JWTSecret != "" {
		jwtService = auth.NewJWTService(cfg.API.JWTSecret)
	}

	// Initialize handlers
	downloadHandler := handlers.NewDownloadHandler(a.downloader)
	convertHandler := handlers.NewConvertHandler(a.converter, a.manager)
	taskHandler := handlers.NewTaskHandler(a.manager)
	fileHandler := handlers.NewFileHandler(cfg.Download.OutputDir, cfg.Convert.OutputDir, a.store)
	historyHandler := handlers.NewHistoryHandler(a.history)
	healthHandler := handlers.NewHealthHandler(a.history, a.store, a.converter, a.manager, a.engine.Name())

	// Initialize router
	r := router.NewRouter(cfg, downloadHandler, convertHandler, taskHandler, fileHandler, historyHandler, healthHandler, jwtService)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	sayf("serving", addr)
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := shutdownContext()
	defer cancel()

	a.close(shutdownCtx)

	logger.Info("Server shutdown complete")
	return nil
}
