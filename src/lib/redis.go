package lib

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

const CourtsCacheKey = "courts"

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// InvalidateCourtsCache drops the cached court listing after any court write.
func InvalidateCourtsCache() {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), CourtsCacheKey).Err(); err != nil {
		log.Printf("[redis] Error invalidating %s: %s\n", CourtsCacheKey, err.Error())
	}
}
