package domain

import "time"

// UserStatus represents lifecycle states for an end-user account.
type UserStatus int

const (
	UserStatusEnabled  UserStatus = 0
	UserStatusDisabled UserStatus = 1
)

// User is the domain model for listeners of the catalog.
type User struct {
	ID           int64
	Username     string
	Email        string
	Phone        *string
	Avatar       *string
	Introduction *string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Enabled reports whether the account may log in.
func (u *User) Enabled() bool {
	return u.Status == UserStatusEnabled
}
