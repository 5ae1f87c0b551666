// Package directory owns the canonical in-memory list of user profiles
// and mirrors every mutation through to the key-value store.
package directory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/staffdir/staffdir/pkg/errors"

	"github.com/staffdir/staffdir/internal/domain"
	"github.com/staffdir/staffdir/internal/event"
	"github.com/staffdir/staffdir/internal/repository"
)

// ProfileInput is the editable part of a profile for create and update.
type ProfileInput struct {
	FullName  string
	Email     string
	Phone     string
	Role      domain.Role
	Addresses []domain.Address
}

// Service is the user directory state. The in-memory list is the
// canonical copy; the store holds the durable one. Every mutation
// writes to the store first and commits the in-memory change only when
// the write succeeds.
type Service struct {
	mu       sync.RWMutex
	users    []domain.User
	profiles repository.ProfileRepository
	events   event.Publisher
	logger   *slog.Logger
}

func NewService(profiles repository.ProfileRepository, events event.Publisher, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, events: events, logger: logger}
}

// Load reads all profiles from the store, replacing the in-memory list
// wholesale.
func (s *Service) Load(ctx context.Context) error {
	users, err := s.profiles.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "directory loaded", slog.Int("profiles", len(users)))
	return nil
}

// Create assigns a fresh id and timestamps, persists the extended list
// and appends it to the in-memory state.
func (s *Service) Create(ctx context.Context, input ProfileInput) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		Addresses: withAddressIDs(input.Addresses),
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := make([]domain.User, len(s.users), len(s.users)+1)
	copy(next, s.users)
	next = append(next, user)

	if err := s.profiles.SaveAll(ctx, next); err != nil {
		return domain.User{}, err
	}
	s.users = next

	s.events.ProfileCreated(ctx, user)
	s.logger.InfoContext(ctx, "profile created", slog.String("user_id", user.ID))
	return user, nil
}

// Update replaces the profile with the given id. createdAt is preserved
// and updatedAt strictly advances on every call, even when the payload
// is unchanged.
func (s *Service) Update(ctx context.Context, id string, input ProfileInput) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.User{}, apperrors.NotFound("user", id)
	}
	prev := s.users[idx]

	ts := time.Now().UTC()
	if !ts.After(prev.UpdatedAt) {
		ts = prev.UpdatedAt.Add(time.Nanosecond)
	}

	user := domain.User{
		ID:        prev.ID,
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		Addresses: withAddressIDs(input.Addresses),
		CreatedAt: prev.CreatedAt,
		UpdatedAt: ts,
	}

	next := make([]domain.User, len(s.users))
	copy(next, s.users)
	next[idx] = user

	if err := s.profiles.SaveAll(ctx, next); err != nil {
		return domain.User{}, err
	}
	s.users = next

	s.events.ProfileUpdated(ctx, user)
	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	return user, nil
}

// Delete removes the profile with the given id. A missing id is a
// no-op, not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}

	next := make([]domain.User, 0, len(s.users)-1)
	next = append(next, s.users[:idx]...)
	next = append(next, s.users[idx+1:]...)

	if err := s.profiles.SaveAll(ctx, next); err != nil {
		return err
	}
	s.users = next

	s.events.ProfileDeleted(ctx, id)
	s.logger.InfoContext(ctx, "profile deleted", slog.String("user_id", id))
	return nil
}

// List returns a copy of all profiles in insertion order.
func (s *Service) List() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out
}

// FindByID returns the profile with the given id, or false.
func (s *Service) FindByID(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.users[idx], true
	}
	return domain.User{}, false
}

// FindByEmail returns the profile with the given email, or false.
func (s *Service) FindByEmail(email string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

// FindByRole returns all profiles holding the given role.
func (s *Service) FindByRole(role domain.Role) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0)
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

// indexOf must be called with the lock held.
func (s *Service) indexOf(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func withAddressIDs(addrs []domain.Address) []domain.Address {
	out := make([]domain.Address, len(addrs))
	copy(out, addrs)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}
