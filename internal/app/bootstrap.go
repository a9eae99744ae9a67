package app

import (
	"log/slog"

	"github.com/prostak402/csmrashireniye/internal/infra"
	"github.com/prostak402/csmrashireniye/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
	Icons   *infra.IconCache
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, caches)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping arbitrage engine...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Settings Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Settings database initialized")

	// 4. Initialize Icon Cache
	icons, err := infra.NewIconCache(cfg.Icons.BaseURL, cfg.Icons.CacheDir)
	if err != nil {
		return err
	}
	b.Icons = icons
	slog.Info("✅ Icon cache ready")

	return nil
}
