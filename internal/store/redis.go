package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Well-known client keys. These mirror the fixed browser-storage keys the
// front-ends rely on.
const (
	KeyScannedStudent = "scannedStudentId"
	KeyChatUser       = "chatbot_user_id"
)

// ClientKeys persists per-client string values: the scanned student ID and
// the generated chat user ID. Values are plain strings with no expiry;
// writes are last-write-wins.
type ClientKeys interface {
	Get(ctx context.Context, clientID, key string) (string, error)
	Set(ctx context.Context, clientID, key, value string) error
}

// Redis wraps a redis client implementing ClientKeys.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Get returns the stored value for a client key, or "" when absent.
func (r *Redis) Get(ctx context.Context, clientID, key string) (string, error) {
	val, err := r.Client.HGet(ctx, "client:"+clientID, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Set stores a client key with no expiry.
func (r *Redis) Set(ctx context.Context, clientID, key, value string) error {
	return r.Client.HSet(ctx, "client:"+clientID, key, value).Err()
}
