package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/itour/internal/config"
	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/redis"
	"github.com/MrSnakeDoc/itour/internal/store"
	"github.com/MrSnakeDoc/itour/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/itour/internal/store/redis"
	s3store "github.com/MrSnakeDoc/itour/internal/store/s3"
	"github.com/MrSnakeDoc/itour/internal/store/sqlstore"
)

// openBackend connects the durable backend selected by cfg.StoreBackend.
func openBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("memory backend selected, nothing survives a restart")
		return memory.New(), nil

	case config.BackendSQLite:
		log.Infof("Opening SQLite database at %s", cfg.SQLitePath)
		return sqlstore.NewSQLite(ctx, cfg.SQLitePath)

	case config.BackendPostgres:
		log.Info("Connecting to Postgres")
		return sqlstore.NewPostgres(ctx, cfg.PostgresDSN)

	case config.BackendRedis:
		// Fail fast if Redis stays unavailable
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewBackend(client), nil

	case config.BackendS3:
		log.Infof("Using S3 object s3://%s/%s", cfg.S3Bucket, cfg.S3Key)
		return s3store.New(ctx, s3store.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
