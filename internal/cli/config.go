package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aranil/dbflow/internal/catalog"
	"github.com/Aranil/dbflow/internal/config"
	"github.com/Aranil/dbflow/internal/logger"
	"github.com/Aranil/dbflow/internal/store"
	"github.com/Aranil/dbflow/internal/template"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func currentConfig() *config.Config {
	if appConfig == nil {
		appConfig = config.Default()
	}
	return appConfig
}

// loadCatalog reads the configured catalog file, if any
func loadCatalog() (*catalog.Catalog, error) {
	path := currentConfig().Catalog.Path
	if path == "" {
		return nil, nil
	}

	return catalog.Load(fileSystem, path)
}

// openStore opens the configured store with the configured catalog
func openStore(ctx context.Context) (*store.Handle, error) {
	cfg := currentConfig()

	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	logger.CLI().Debug("Opening store", "path", cfg.Database.Path, "config", configPath)

	return store.Open(ctx, cfg.Database.Path,
		store.WithCatalog(c),
		store.WithBusyTimeout(cfg.Database.BusyTimeout),
		store.WithDefaultSRID(cfg.Spatial.DefaultSRID),
	)
}

func newRenderer() *template.Renderer {
	cfg := currentConfig()
	return template.NewRenderer(fileSystem, cfg.SQL.TemplateDir, cfg.SQL.ExecutedDir)
}
