package discussion

import "time"

// Type classifies a discussion linked to a file.
type Type string

const (
	TypeMessage  Type = "message"
	TypeMemory   Type = "memory"
	TypeDecision Type = "decision"
)

// Valid reports whether t is a known discussion type.
func (t Type) Valid() bool {
	switch t {
	case TypeMessage, TypeMemory, TypeDecision:
		return true
	}
	return false
}

// Discussion is a conversation fragment tied to an associated file.
type Discussion struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Path      string    `json:"path"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
