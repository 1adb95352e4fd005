// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
