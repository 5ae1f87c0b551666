// Package search filters the in-memory user list for the directory views.
package search

import (
	"strings"

	"github.com/staffdir/staffdir/internal/domain"
)

// Filters narrows a user list. Zero-value fields match everything.
type Filters struct {
	// Term is matched case-insensitively as a substring of the
	// full name, email, phone, and role.
	Term string
	// Role, when set, keeps only users with that exact role.
	Role domain.Role
}

// Empty reports whether the filters would match every user.
func (f Filters) Empty() bool {
	return strings.TrimSpace(f.Term) == "" && f.Role == ""
}

// Apply returns the users matching the filters, preserving input order.
// The input slice is never mutated.
func Apply(users []domain.User, f Filters) []domain.User {
	if f.Empty() {
		out := make([]domain.User, len(users))
		copy(out, users)
		return out
	}

	term := strings.ToLower(strings.TrimSpace(f.Term))
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if term != "" && !matchesTerm(u, term) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchesTerm(u domain.User, term string) bool {
	for _, s := range []string{u.FullName, u.Email, u.Phone, string(u.Role)} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}
