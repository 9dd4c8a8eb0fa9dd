package health

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/gorm"
)

// pingChecker reports a dependency healthy when ping returns nil.
type pingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func (c pingChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: true}
	if err := c.ping(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// NewPingChecker adapts any ping function into a named readiness check.
func NewPingChecker(name string, ping func(ctx context.Context) error) Checker {
	if ping == nil {
		return nil
	}
	return pingChecker{name: name, ping: ping}
}

// NewDBChecker checks the gorm connection pool. It returns nil when the
// store is not gorm-backed.
func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return NewPingChecker("db", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return NewPingChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func NewMongoChecker(client *mongo.Client) Checker {
	if client == nil {
		return nil
	}
	return NewPingChecker("mongo", func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Join(errors.New("mongo primary unreachable"), err)
		}
		return nil
	})
}
