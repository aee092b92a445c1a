package model

import "time"

// Session is a server-side login session backing the anvil_session cookie.
// Expiry is enforced in SQL on every validated read; TTL exists so cookie
// lifetimes can follow the row instead of a second constant.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TTL reports how much validity remains at now. Zero or negative means
// expired.
func (s *Session) TTL(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}
