package lib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

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

// AcquireSlotLock serializes check-then-insert for one (lab, date) pair so
// two concurrent submits cannot both pass the overlap check. The token must
// be passed back to ReleaseSlotLock.
func AcquireSlotLock(labId uint, date string, token string) (bool, error) {
	rdb := GetRedisClient()
	if rdb == nil {
		// Without the lock backend the overlap check cannot be serialized,
		// so refuse the submit instead of risking a double booking.
		return false, errors.New("redis is not configured, cannot serialize booking submits")
	}
	key := fmt.Sprintf("slot:%d:%s", labId, date)
	ok, err := rdb.SetNX(context.Background(), key, token, 10*time.Second).Result()
	if err != nil {
		log.Printf("[redis] Error acquiring lock %s: %s\n", key, err.Error())
		return false, err
	}
	return ok, nil
}

func ReleaseSlotLock(labId uint, date string, token string) {
	rdb := GetRedisClient()
	if rdb == nil {
		return
	}
	key := fmt.Sprintf("slot:%d:%s", labId, date)
	val, err := rdb.Get(context.Background(), key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[redis] Error reading lock %s: %s\n", key, err.Error())
		}
		return
	}
	if val != token {
		return
	}
	if err := rdb.Del(context.Background(), key).Err(); err != nil {
		log.Printf("[redis] Error releasing lock %s: %s\n", key, err.Error())
	}
}
