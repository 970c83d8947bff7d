package queue

import (
	"context"
	"time"
)

// RedisRepository is the list primitive the queue runs on.
type RedisRepository interface {
	// Push appends payload to the tail of the list at key.
	Push(ctx context.Context, key string, payload []byte) error
	// Pop blocks until an element is available at the head of key or timeout
	// elapses (0 waits forever). ok is false on timeout.
	Pop(ctx context.Context, key string, timeout time.Duration) (payload []byte, ok bool, err error)
}
