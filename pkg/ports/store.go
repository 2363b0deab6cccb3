package ports

import "context"

// KVStore is the durable persistence surface of the session store.
// Entries must survive process restarts.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrKeyNotFound if the key has no entry.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous entry.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the entry. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
