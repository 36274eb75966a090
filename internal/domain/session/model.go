package session

import "time"

// SessionStatus represents the lifecycle status of a session
type SessionStatus string

const (
	StatusActive  SessionStatus = "active"
	StatusExpired SessionStatus = "expired"
)

// Session is a scoped container of file associations and edit history.
type Session struct {
	ID           string            `json:"id"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	// FileCount is filled on reads; it is not stored.
	FileCount int `json:"file_count"`
}

// StatusAt reports whether the session has been idle longer than ttl at now.
func (s *Session) StatusAt(now time.Time, ttl time.Duration) SessionStatus {
	if ttl > 0 && now.Sub(s.LastActivity) > ttl {
		return StatusExpired
	}
	return StatusActive
}
