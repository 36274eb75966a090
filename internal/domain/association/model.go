package association

import "time"

// Association links a session to a file it is tracking.
type Association struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	Path            string    `json:"path"`
	Language        string    `json:"language,omitempty"`
	Size            int64     `json:"size,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	FirstAssociated time.Time `json:"first_associated"`
	LastAccessed    time.Time `json:"last_accessed"`

	// Read-only aggregates filled by List and Get.
	EditCount int        `json:"edit_count"`
	LastEdit  *time.Time `json:"last_edit,omitempty"`
}
