package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/staffdir/staffdir/internal/domain"
)

// Identity is one entry of the known-identity table.
type Identity struct {
	Email    string
	Password string
	Role     domain.Role
	FullName string
}

// CredentialProvider resolves a credential pair to an identity.
type CredentialProvider interface {
	// Authenticate returns the identity for the pair, or false when the
	// pair matches no known identity.
	Authenticate(email, password string) (Identity, bool)
}

// StaticProvider holds a fixed credential table keyed by email.
type StaticProvider struct {
	identities map[string]Identity
}

// NewStaticProvider builds a provider from the given identities.
func NewStaticProvider(identities []Identity) *StaticProvider {
	m := make(map[string]Identity, len(identities))
	for _, id := range identities {
		m[strings.ToLower(id.Email)] = id
	}
	return &StaticProvider{identities: m}
}

// DefaultIdentities is the built-in demonstration credential table.
func DefaultIdentities() []Identity {
	return []Identity{
		{Email: "admin@company.com", Password: "admin123", Role: domain.RoleAdmin, FullName: "Admin User"},
		{Email: "supervisor@company.com", Password: "supervisor123", Role: domain.RoleSupervisor, FullName: "Supervisor User"},
		{Email: "associate@company.com", Password: "associate123", Role: domain.RoleAssociate, FullName: "Associate User"},
	}
}

// Authenticate performs an exact password match in constant time.
func (p *StaticProvider) Authenticate(email, password string) (Identity, bool) {
	id, ok := p.identities[strings.ToLower(email)]
	if !ok {
		return Identity{}, false
	}
	if subtle.ConstantTimeCompare([]byte(id.Password), []byte(password)) != 1 {
		return Identity{}, false
	}
	return id, true
}
