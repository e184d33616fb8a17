package domain

import (
	"time"
)

// Permissions are the boolean capability flags resolved at credential-issuance
// time and embedded in the bearer token. Already-issued tokens keep stale
// flags until they expire.
type Permissions struct {
	CanCreateBooks bool `json:"can_create_books"`
	CanUpdateBooks bool `json:"can_update_books"`
	CanDeleteBooks bool `json:"can_delete_books"`
	CanUpdateUsers bool `json:"can_update_users"`
	CanDeleteUsers bool `json:"can_delete_users"`
}

// CanManageUsers reports whether the holder may act on other users' data,
// including listing another user's reservations.
func (p Permissions) CanManageUsers() bool {
	return p.CanUpdateUsers || p.CanDeleteUsers
}

// CanManageBooks reports whether the holder may see inactive catalog records.
func (p Permissions) CanManageBooks() bool {
	return p.CanUpdateBooks || p.CanDeleteBooks
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Permissions
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Caller is the authenticated identity attached to a request after the
// bearer credential has been validated.
type Caller struct {
	UserID int64
	Permissions
}

// UserUpdate carries a partial user update; nil fields are left untouched.
// PasswordHash must already be hashed by the caller.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.PasswordHash == nil
}
