package repository

import (
	"context"

	"github.com/staffdir/staffdir/internal/domain"
)

// ProfileRepository owns the durable copy of the directory's user list.
// The list is read and written wholesale; there are no merge semantics.
type ProfileRepository interface {
	// List reads all user records. A corrupt or absent stored value yields
	// an empty list, not an error.
	List(ctx context.Context) ([]domain.User, error)

	// SaveAll replaces the stored user list.
	SaveAll(ctx context.Context, users []domain.User) error
}

// SessionRepository owns the persisted session, at most one at a time.
type SessionRepository interface {
	// Get returns the persisted session, or nil when none is stored.
	// A corrupt stored value is treated as absence.
	Get(ctx context.Context) (*domain.Session, error)

	// Save persists the session, replacing any previous one.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes the persisted session; a no-op when none exists.
	Delete(ctx context.Context) error
}
