package kv

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	apperrors "github.com/staffdir/staffdir/pkg/errors"

	"github.com/staffdir/staffdir/internal/domain"
	"github.com/staffdir/staffdir/internal/store"
)

// SessionRepository persists the single active session plus a marker key
// recording when it was established.
type SessionRepository struct {
	store  store.Store
	logger *slog.Logger
}

// NewSessionRepository creates a store-backed session repository.
func NewSessionRepository(s store.Store, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{store: s, logger: logger}
}

// Get returns the persisted session, or nil when none is stored.
func (r *SessionRepository) Get(ctx context.Context) (*domain.Session, error) {
	raw, ok, err := r.store.Get(ctx, store.KeyAuthSession)
	if err != nil {
		return nil, apperrors.StoreFailure("get", err)
	}
	if !ok {
		return nil, nil
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		r.logger.WarnContext(ctx, "persisted session is corrupt, treating as absent",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return &session, nil
}

// Save persists the session and stamps the session marker.
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return apperrors.StoreFailure("set", err)
	}

	if err := r.store.Set(ctx, store.KeyAuthSession, string(data)); err != nil {
		return apperrors.StoreFailure("set", err)
	}

	marker := time.Now().UTC().Format(time.RFC3339)
	if err := r.store.Set(ctx, store.KeySessionMarker, marker); err != nil {
		// The session itself is persisted; a stale marker is harmless.
		r.logger.WarnContext(ctx, "failed to stamp session marker",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Delete removes the persisted session and its marker.
func (r *SessionRepository) Delete(ctx context.Context) error {
	if err := r.store.Delete(ctx, store.KeyAuthSession); err != nil {
		return apperrors.StoreFailure("delete", err)
	}
	if err := r.store.Delete(ctx, store.KeySessionMarker); err != nil {
		return apperrors.StoreFailure("delete", err)
	}
	return nil
}
