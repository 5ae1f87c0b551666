package auth

import "github.com/staffdir/staffdir/internal/domain"

// Decision is the outcome of an authorization check.
type Decision string

const (
	Allow               Decision = "allow"
	RedirectToLogin     Decision = "redirect_to_login"
	RedirectToForbidden Decision = "redirect_to_forbidden"
)

// Authorize is a flat capability check, with no role hierarchy: callers
// requiring supervisor-or-admin pass both roles explicitly. An empty
// required set allows any authenticated identity.
func Authorize(authenticated bool, role domain.Role, required ...domain.Role) Decision {
	if !authenticated {
		return RedirectToLogin
	}
	if len(required) == 0 {
		return Allow
	}
	for _, r := range required {
		if r == role {
			return Allow
		}
	}
	return RedirectToForbidden
}
