package domain

import (
	"time"
)

// User represents a profile record in the directory.
//
// ID is unique within the directory. CreatedAt is immutable after creation;
// UpdatedAt advances on every mutation.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	Addresses []Address `json:"addresses"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address is a postal address owned by a single user. The ID is unique
// within the owning user's address list only.
type Address struct {
	ID      string `json:"id"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}
