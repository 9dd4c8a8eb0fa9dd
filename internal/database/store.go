package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/gorm"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
)

// Store is the identity store selected by STORE_DRIVER. Exactly one of DB
// and Mongo is set.
type Store struct {
	Driver string
	DB     *gorm.DB
	Mongo  *mongo.Client
	Users  repository.UserRepository
}

// OpenStore connects the configured driver and prepares its schema. Gorm
// stores are auto-migrated unless migrate is false.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool) (*Store, error) {
	if cfg.UsesGorm() {
		db, err := Open(cfg)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := Migrate(db); err != nil {
				closeGorm(db)
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return &Store{Driver: cfg.StoreDriver, DB: db, Users: repository.NewUserRepository(db)}, nil
	}
	if cfg.StoreDriver != config.StoreDriverMongo {
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	client, db, err := OpenMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Driver: cfg.StoreDriver, Mongo: client, Users: repository.NewMongoUserRepository(db)}, nil
}

// Ping checks that the backing database answers.
func (s *Store) Ping(ctx context.Context) error {
	switch {
	case s == nil:
		return errors.New("store is not open")
	case s.DB != nil:
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case s.Mongo != nil:
		return s.Mongo.Ping(ctx, readpref.Primary())
	default:
		return errors.New("store is not open")
	}
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	if s.Mongo != nil {
		return s.Mongo.Disconnect(ctx)
	}
	return nil
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
