package shared

import (
	"context"
	"time"
)

// IdempotencyPending is the value held by a reserved key whose submission has not finished yet
const IdempotencyPending = "pending"

// IdempotencyStore remembers submission keys so a form posted twice is only persisted once.
// A key moves from reserved (IdempotencyPending) to completed (the stored result, usually a record ID).
type IdempotencyStore interface {
	// Reserve claims a key for ttl.
	// Returns true if the key was newly claimed, false if it is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the result of the submission under a reserved key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Lookup returns the value held by a key and whether the key exists
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Release forgets a key so the submission can be retried
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
