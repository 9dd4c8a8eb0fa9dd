package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(
		&domain.User{},
		&domain.LikedMovie{},
	)
	ctx := context.Background()
	observability.RecordDatabaseStartupDuration(ctx, "migrate", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(ctx, "migrate", "success")
	return nil
}
