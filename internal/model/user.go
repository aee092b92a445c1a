package model

import "time"

// User is an operator account. Identity comes from WorkOS; the WorkOS ID
// is the upsert key on login and never leaves the server. LastLoginAt is
// stamped on every completed login.
type User struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	WorkOSID    *string    `json:"-"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
