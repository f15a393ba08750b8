package main

import (
	"context"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/database"
	"github.com/liveleaper/liveleaper/internal/services/converter"
	"github.com/liveleaper/liveleaper/internal/services/downloader"
	"github.com/liveleaper/liveleaper/internal/services/storage"
	"github.com/liveleaper/liveleaper/internal/services/tasks"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// app bundles the wired services shared by all subcommands.
type app struct {
	cfg        *config.Config
	manager    *tasks.Manager
	engine     downloader.Engine
	downloader *downloader.Downloader
	converter  *converter.Converter
	history    database.HistoryStore
	store      storage.Storage
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	history, err := database.NewHistoryStore(ctx, &cfg.Mongo)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStorage(&cfg.Storage, cfg.Download.OutputDir)
	if err != nil {
		return nil, err
	}

	manager := tasks.NewManager(cfg.Download.MaxConcurrentDownloads)
	engine := downloader.SelectEngine(ctx, &cfg.Download, cfg.Convert.FfmpegPath)
	conv := converter.New(&cfg.Convert)

	return &app{
		cfg:        cfg,
		manager:    manager,
		engine:     engine,
		downloader: downloader.NewDownloader(&cfg.Download, engine, history, store, conv, manager),
		converter:  conv,
		history:    history,
		store:      store,
	}, nil
}

// close drains running tasks up to the context deadline, then releases
// the history store.
func (a *app) close(ctx context.Context) {
	if err := a.manager.Shutdown(ctx); err != nil {
		utils.LogError(ctx, "Task manager shutdown incomplete", err)
	}
	if err := a.history.Close(ctx); err != nil {
		utils.LogError(ctx, "Failed to close history store", err)
	}
}
