// Package kv implements the repositories over the key-value store.
package kv

import (
	"context"
	"encoding/json"
	"log/slog"

	apperrors "github.com/staffdir/staffdir/pkg/errors"

	"github.com/staffdir/staffdir/internal/domain"
	"github.com/staffdir/staffdir/internal/store"
)

// ProfileRepository stores the full user list as one JSON document under
// the user-list key.
type ProfileRepository struct {
	store  store.Store
	logger *slog.Logger
}

// NewProfileRepository creates a store-backed profile repository.
func NewProfileRepository(s store.Store, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{store: s, logger: logger}
}

// List reads all user records from the store. Unreadable data is treated
// as an empty directory rather than a hard failure.
func (r *ProfileRepository) List(ctx context.Context) ([]domain.User, error) {
	raw, ok, err := r.store.Get(ctx, store.KeyUsers)
	if err != nil {
		return nil, apperrors.StoreFailure("get", err)
	}
	if !ok {
		return []domain.User{}, nil
	}

	var users []domain.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		r.logger.WarnContext(ctx, "stored user list is corrupt, treating as empty",
			slog.String("error", err.Error()),
		)
		return []domain.User{}, nil
	}
	if users == nil {
		users = []domain.User{}
	}

	return users, nil
}

// SaveAll replaces the stored user list.
func (r *ProfileRepository) SaveAll(ctx context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}

	data, err := json.Marshal(users)
	if err != nil {
		return apperrors.StoreFailure("set", err)
	}

	if err := r.store.Set(ctx, store.KeyUsers, string(data)); err != nil {
		return apperrors.StoreFailure("set", err)
	}

	return nil
}
