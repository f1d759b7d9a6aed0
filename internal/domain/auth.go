package domain

import (
	"strconv"
	"time"
)

// Role tags the principal a token was issued to.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the claim set embedded in an access token. It is fixed at
// issuance and never re-read from storage while the token lives.
type Identity struct {
	Role      Role   `json:"role"`
	SubjectID int64  `json:"subjectId"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Subject renders the subject id as used in the registered "sub" claim.
func (i Identity) Subject() string {
	return strconv.FormatInt(i.SubjectID, 10)
}

// Session describes an issued access token.
type Session struct {
	Token     string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}
