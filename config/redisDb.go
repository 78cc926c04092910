package config

import (
	"context"
	"fmt"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ConnectRedis connects the client backing the single-run lock. With no
// REDIS_ADDRESS configured it returns nils and the sync runs unguarded.
func ConnectRedis(ctx context.Context, s Settings, logg *logrus.Logger) (*redis.Client, *redislock.Client, error) {
	if s.RedisAddress == "" {
		return nil, nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.RedisAddress,
		Password: "",
		DB:       0, // use default DB
		PoolSize: 4,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", s.RedisAddress, err)
	}
	logg.WithField("addr", s.RedisAddress).Info("connected to redis")
	return rdb, redislock.New(rdb), nil
}
