package queue

import (
	"context"
	"time"

	"leetlab/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Str("addr", config.AppConfig.RedisAddr).Msg("Could not connect to Redis")
	}
	log.Info().Msg("Successfully connected to Redis")
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing Redis connection")
			return
		}
		log.Info().Msg("Redis connection closed")
	}
}
