// Package migration applies the embedded schema migrations at startup.
package migration

import (
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/postloom/postloom/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Run applies pending migrations. Only the postgres dialect is migrated here;
// test databases rely on AutoMigrate instead.
func Run(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
	if !strings.EqualFold(cfg.DBType, "postgres") {
		log.Info("skipping migrations for dialect", zap.String("dialect", cfg.DBType))
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	log.Info("migrations applied")
	return nil
}

var Module = fx.Module("migration", fx.Invoke(Run))
