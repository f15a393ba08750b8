package database

import (
	"context"
	"fmt"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// NewHistoryStore returns a Mongo backed store when enabled in
// configuration, otherwise the in-memory store.
func NewHistoryStore(ctx context.Context, cfg *config.MongoConfig) (HistoryStore, error) {
	if !cfg.Enabled {
		utils.LogInfo(ctx, "mongo disabled, using in-memory download history")
		return NewMemoryStore(), nil
	}

	store, err := NewMongoDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("mongo history store: %w", err)
	}
	utils.LogInfo(ctx, "connected to MongoDB", utils.Fields{"database": cfg.Database})
	return store, nil
}
