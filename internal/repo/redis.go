package repo

import (
	"ImmichDrop/config"
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Redis is nil when no cache is configured; callers must treat the cache as
// strictly optional.
var Redis *redis.Client

// InitRedis initializes the optional Redis cache client.
func InitRedis() {
	if !config.AppConfig.RedisEnabled() {
		log.Println("redis not configured, cache disabled")
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Printf("init redis fail, continuing without cache: %v", err)
		return
	}
	log.Println("init redis success")
	Redis = client
}
