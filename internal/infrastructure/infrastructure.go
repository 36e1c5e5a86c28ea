// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, artifact storage) that
// domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/pkg/database"
	"github.com/JaimeStill/courier/pkg/lifecycle"
	"github.com/JaimeStill/courier/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when the artifact archive is disabled in configuration.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
	}

	if cfg.Storage.IsEnabled() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}
