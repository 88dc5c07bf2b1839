// Package storage defines the pluggable persistence adapter behind the
// session store. Host applications plug in whatever their platform offers
// (keychain, encrypted preferences, a file); this library ships an in-memory
// implementation and treats every adapter as potentially asynchronous by
// passing a context through uniformly.
package storage

import "context"

// Adapter is the minimal key/value contract the session store persists through.
type Adapter interface {
	// Save stores value under key, replacing any existing value.
	Save(ctx context.Context, key, value string) error

	// Load returns the value for key and whether it was present.
	Load(ctx context.Context, key string) (string, bool, error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
