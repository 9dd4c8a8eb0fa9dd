package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

// Open connects gorm using the configured relational driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	start := time.Now()
	ctx := context.Background()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "connect", time.Since(start))
	}()

	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.StoreDriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, fmt.Errorf("store driver %q is not gorm-backed", cfg.StoreDriver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(slog.Default().Handler()),
		TranslateError: true,
	})
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, fmt.Errorf("open %s: %w", cfg.StoreDriver, err)
	}
	if cfg.StoreDriver == config.StoreDriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	observability.RecordDatabaseStartupEvent(ctx, "connect", "success")
	return db, nil
}

// newGormLogger writes gorm warnings and errors through h. Record-not-found
// is an expected miss on lookups and is not logged.
func newGormLogger(h slog.Handler) logger.Interface {
	return logger.New(slog.NewLogLogger(h, slog.LevelWarn), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
