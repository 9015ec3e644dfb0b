package models

import (
	"strings"
	"time"
)

// QuickListUsernamePrefix marks synthesized Quick List usernames.
// Regular usernames may never begin with it.
const QuickListUsernamePrefix = "Quick List User"

// User represents an account in the system. Quick List accounts are
// ordinary users whose username carries a reserved prefix and who sign
// in with a generated composite password instead of a username.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	TimeZone     string    `json:"timeZone"`
	SignedUpAt   time.Time `json:"signedUpAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

// HasSignedIn reports whether the account has ever been logged into.
// Accounts are created with LastLoginAt one second before SignedUpAt.
func (u User) HasSignedIn() bool {
	return u.LastLoginAt.After(u.SignedUpAt)
}

// IsQuickList reports whether the account is an anonymous Quick List
// account.
func (u User) IsQuickList() bool {
	return strings.HasPrefix(u.Username, QuickListUsernamePrefix)
}
