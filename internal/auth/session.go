// Package auth holds the session state machine, credential table,
// authorization guard and token issuing for the directory.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/staffdir/staffdir/pkg/errors"

	"github.com/staffdir/staffdir/internal/domain"
	"github.com/staffdir/staffdir/internal/repository"
)

// State is the session machine state.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateError          State = "error"
)

// Manager owns the single active session. All methods are safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	state    State
	session  *domain.Session
	lastErr  string
	provider CredentialProvider
	sessions repository.SessionRepository
	delay    time.Duration
	logger   *slog.Logger
}

// NewManager builds a Manager in the anonymous state. delay simulates
// the upstream latency of a credential check and may be zero.
func NewManager(provider CredentialProvider, sessions repository.SessionRepository, delay time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		state:    StateAnonymous,
		provider: provider,
		sessions: sessions,
		delay:    delay,
		logger:   logger,
	}
}

// Rehydrate loads a previously persisted session, entering the
// authenticated state directly without a credential re-check.
func (m *Manager) Rehydrate(ctx context.Context) error {
	session, err := m.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = session
	m.lastErr = ""
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session rehydrated",
		slog.String("session_id", session.ID),
		slog.String("role", string(session.Role)))
	return nil
}

// Login is a single-attempt credential check. On success the session is
// persisted before the in-memory state is committed; a store failure
// leaves the machine unauthenticated.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.lastErr = ""
	m.mu.Unlock()

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			m.fail("")
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	identity, ok := m.provider.Authenticate(email, password)
	if !ok {
		err := apperrors.InvalidCredentials()
		m.fail(err.Message)
		m.logger.WarnContext(ctx, "login rejected", slog.String("email", email))
		return nil, err
	}

	session := &domain.Session{
		ID:       uuid.NewString(),
		Email:    identity.Email,
		Role:     identity.Role,
		FullName: identity.FullName,
	}

	if err := m.sessions.Save(ctx, session); err != nil {
		m.fail("Login failed")
		return nil, err
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = session
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "login succeeded",
		slog.String("session_id", session.ID),
		slog.String("role", string(session.Role)))
	return session, nil
}

// Logout returns the machine to anonymous and removes the persisted
// session. Calling it while anonymous is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.sessions.Delete(ctx)

	m.mu.Lock()
	m.state = StateAnonymous
	m.session = nil
	m.lastErr = ""
	m.mu.Unlock()

	if err != nil {
		m.logger.ErrorContext(ctx, "persisted session removal failed", slog.Any("error", err))
		return err
	}
	return nil
}

// Current returns the active session, or false when unauthenticated.
func (m *Manager) Current() (*domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated || m.session == nil {
		return nil, false
	}
	s := *m.session
	return &s, true
}

// State returns the machine's current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the retained error message from the last failed login.
func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ClearError resets an error state back to anonymous.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateError {
		m.state = StateAnonymous
	}
	m.lastErr = ""
}

func (m *Manager) fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	if msg == "" {
		m.state = StateAnonymous
		m.lastErr = ""
		return
	}
	m.state = StateError
	m.lastErr = msg
}
