package services

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Recall when nothing is remembered for a key.
var ErrKeyNotFound = errors.New("idempotency key not found")

// IdempotencyStore remembers which order a client key produced. Keys are
// scoped per actor.
type IdempotencyStore interface {
	// TryLock claims key for a first request. false means another request
	// holds it or already finished.
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, orderID string) error
	Recall(ctx context.Context, scope, key string) (string, error)
	Release(ctx context.Context, scope, key string) error
}
