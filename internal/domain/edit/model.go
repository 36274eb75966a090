package edit

import "time"

// Edit is one recorded change to an associated file.
type Edit struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Path         string    `json:"path"`
	Seq          int64     `json:"seq"`
	CreatedAt    time.Time `json:"created_at"`
	Diff         string    `json:"diff"`
	PreHash      string    `json:"pre_hash,omitempty"`
	PostHash     string    `json:"post_hash,omitempty"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
}
