package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"videotube/internal/config"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do.
type SchemaStatus struct {
	Mode               string
	WillRunAutoMigrate bool
	WillRunSQL         bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

func normalizedSchemaMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return SchemaModeHybrid
	}
	return mode
}

func schemaPolicy(mode string) (runAuto, runSQL bool, err error) {
	switch normalizedSchemaMode(mode) {
	case SchemaModeHybrid:
		return true, true, nil
	case SchemaModeAuto:
		return true, false, nil
	case SchemaModeSQL:
		return false, true, nil
	default:
		return false, false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// Migrate creates the tables of every persistent model and then applies
// the SQL migrations. Tests call it on SQLite.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return applySchema(ctx, db, SchemaModeHybrid)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	return applySchema(ctx, db, cfg.DBSchemaMode)
}

func applySchema(ctx context.Context, db *gorm.DB, mode string) error {
	runAuto, runSQL, err := schemaPolicy(mode)
	if err != nil {
		return err
	}

	if runAuto {
		slog.InfoContext(ctx, "running GORM AutoMigrate", slog.String("mode", normalizedSchemaMode(mode)))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	if runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports applied and pending migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runAuto, runSQL, err := schemaPolicy(cfg.DBSchemaMode)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               normalizedSchemaMode(cfg.DBSchemaMode),
		WillRunAutoMigrate: runAuto,
		WillRunSQL:         runSQL,
	}
	if !db.Migrator().HasTable(&MigrationLog{}) {
		status.PendingMigrations = Migrations()
		return status, nil
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	for _, m := range Migrations() {
		if !done[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
