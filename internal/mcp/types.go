package mcp

import "time"

type CreateSessionParams struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SessionParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type AssociateFileParams struct {
	SessionID string  `json:"session_id,omitempty"`
	FilePath  string  `json:"file_path"`
	Language  string  `json:"language,omitempty"`
	Content   *string `json:"content,omitempty"`
}

type DissociateFileParams struct {
	SessionID string `json:"session_id,omitempty"`
	FilePath  string `json:"file_path"`
}

type ListFilesParams struct {
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type RecordEditParams struct {
	SessionID  string  `json:"session_id,omitempty"`
	FilePath   string  `json:"file_path"`
	Diff       string  `json:"diff,omitempty"`
	OldContent *string `json:"old_content,omitempty"`
	NewContent *string `json:"new_content,omitempty"`
	PreHash    string  `json:"pre_hash,omitempty"`
	PostHash   string  `json:"post_hash,omitempty"`
}

type RecentEditsParams struct {
	SessionID string `json:"session_id,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ComputeDiffParams struct {
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
	Label      string `json:"label,omitempty"`
}

type LinkDiscussionParams struct {
	SessionID string `json:"session_id,omitempty"`
	FilePath  string `json:"file_path"`
	Type      string `json:"type,omitempty"`
	Summary   string `json:"summary"`
}

type ProgrammingContextParams struct {
	SessionID   string `json:"session_id,omitempty"`
	Query       string `json:"query"`
	MaxFiles    int    `json:"max_files,omitempty"`
	MaxEdits    int    `json:"max_edits,omitempty"`
	MaxSnippets int    `json:"max_snippets,omitempty"`
}

type SessionResponse struct {
	SessionID  string            `json:"session_id"`
	CreatedAt  time.Time         `json:"created_at"`
	LastActive time.Time         `json:"last_active"`
	Status     string            `json:"status"`
	FileCount  int               `json:"file_count"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type FileResponse struct {
	Path            string     `json:"path"`
	Language        string     `json:"language,omitempty"`
	Size            int64      `json:"size"`
	Summary         string     `json:"summary,omitempty"`
	FirstAssociated time.Time  `json:"first_associated"`
	LastAccessed    time.Time  `json:"last_accessed"`
	EditCount       int        `json:"edit_count"`
	LastEdit        *time.Time `json:"last_edit,omitempty"`
}

type ListFilesResponse struct {
	SessionID string         `json:"session_id"`
	Files     []FileResponse `json:"files"`
}

type EditResponse struct {
	ID           int64     `json:"id"`
	FilePath     string    `json:"file_path"`
	Seq          int64     `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	Diff         string    `json:"diff,omitempty"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
}

type RecentEditsResponse struct {
	SessionID string         `json:"session_id"`
	Edits     []EditResponse `json:"edits"`
}

type ComputeDiffResponse struct {
	Diff  string `json:"diff"`
	Valid bool   `json:"valid"`
}

type DiscussionResponse struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
