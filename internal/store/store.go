// Package store provides the string-keyed key-value store the directory
// persists through. It is the only durability mechanism in the service.
package store

import "context"

// Logical keys used by the service. Values under these keys are JSON
// documents (field-named records), never binary.
const (
	KeyUsers         = "user_profile_users"
	KeyAuthSession   = "user_profile_auth_user"
	KeySessionMarker = "user_profile_session"
)

// Store is the key-value collaborator contract: get/set/delete over a
// persistent string-keyed map.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent; an error indicates a store failure, not absence.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backing medium is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
