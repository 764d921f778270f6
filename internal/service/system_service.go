package service

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"strconv"

	"github.com/ndewijer/Yield-Bank-Backend/internal/database"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
}

// NewSystemService creates a new SystemService. features lists the optional
// integrations enabled by configuration.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	return &SystemService{
		db:       db,
		features: features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion reports the application and schema versions along with
// pending migrations.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	provider, err := database.NewMigrationProvider(s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	pending, err := provider.HasPending(ctx)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to check pending migrations: %w", err)
	}

	info := model.VersionInfo{
		AppVersion:      version.Version,
		DbVersion:       strconv.FormatInt(current, 10),
		Features:        maps.Clone(s.features),
		MigrationNeeded: pending,
	}
	if info.Features == nil {
		info.Features = map[string]bool{}
	}
	if pending {
		msg := "database schema is behind the application; restart to apply migrations"
		info.MigrationMessage = &msg
	}
	return info, nil
}
