package domain

// Session is the single active authenticated identity. It is absent when
// no one is signed in, persisted on login, and destroyed on logout.
type Session struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName"`
}
