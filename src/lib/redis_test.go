package lib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireSlotLockFailsClosedWithoutRedis(t *testing.T) {
	os.Unsetenv("REDIS_HOST")
	redisClient = nil

	ok, err := AcquireSlotLock(7, "2025-01-10", "token")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestReleaseSlotLockIgnoresMissingBackend(t *testing.T) {
	os.Unsetenv("REDIS_HOST")
	redisClient = nil

	ReleaseSlotLock(7, "2025-01-10", "token")
}
