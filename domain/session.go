package domain

import "time"

// Session represents a login session stored in Redis and referenced by the
// sid claim of an access token.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Role      Role              `json:"role"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Actor returns the identity carried by the session.
func (s *Session) Actor() Actor {
	if s == nil {
		return Actor{}
	}
	return Actor{ID: s.UserID, Role: s.Role}
}
