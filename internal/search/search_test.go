package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staffdir/staffdir/internal/domain"
)

func fixture() []domain.User {
	return []domain.User{
		{ID: "1", FullName: "Ann Admin", Email: "ann@company.com", Phone: "+15551230001", Role: domain.RoleAdmin},
		{ID: "2", FullName: "Bob Builder", Email: "bob@company.com", Phone: "+15551230002", Role: domain.RoleSupervisor},
		{ID: "3", FullName: "Cara Clerk", Email: "cara@company.com", Phone: "+15551230003", Role: domain.RoleAssociate},
		{ID: "4", FullName: "Dan Dev", Email: "dan@other.org", Phone: "+15551230004", Role: domain.RoleAssociate},
	}
}

func ids(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestApply_EmptyFiltersReturnsCopy(t *testing.T) {
	users := fixture()
	got := Apply(users, Filters{})
	assert.Equal(t, ids(users), ids(got))

	got[0].FullName = "mutated"
	assert.Equal(t, "Ann Admin", users[0].FullName)
}

func TestApply_TermMatching(t *testing.T) {
	users := fixture()

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"case insensitive name", "ANN", []string{"1"}},
		{"substring of name", "ob b", []string{"2"}},
		{"email domain", "@company.com", []string{"1", "2", "3"}},
		{"phone fragment", "0004", []string{"4"}},
		{"role text", "supervisor", []string{"2"}},
		{"whitespace trimmed", "  ann  ", []string{"1"}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(users, Filters{Term: tt.term})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_RoleFilter(t *testing.T) {
	users := fixture()

	got := Apply(users, Filters{Role: domain.RoleAssociate})
	assert.Equal(t, []string{"3", "4"}, ids(got))

	got = Apply(users, Filters{Term: "dan", Role: domain.RoleAssociate})
	assert.Equal(t, []string{"4"}, ids(got))

	got = Apply(users, Filters{Term: "ann", Role: domain.RoleAssociate})
	assert.Empty(t, got)
}

func TestFilters_Empty(t *testing.T) {
	assert.True(t, Filters{}.Empty())
	assert.True(t, Filters{Term: "   "}.Empty())
	assert.False(t, Filters{Term: "x"}.Empty())
	assert.False(t, Filters{Role: domain.RoleAdmin}.Empty())
}
