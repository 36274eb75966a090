package transport

import (
	"time"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
)

type createSessionRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

type createSessionResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	SessionID  string            `json:"sessionId"`
	CreatedAt  time.Time         `json:"createdAt"`
	LastActive time.Time         `json:"lastActive"`
	Status     string            `json:"status"`
	FileCount  int               `json:"fileCount"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type associateRequest struct {
	SessionID string  `json:"sessionId"`
	FilePath  string  `json:"filePath"`
	Language  string  `json:"language,omitempty"`
	Content   *string `json:"content,omitempty"`
}

type dissociateRequest struct {
	SessionID string `json:"sessionId"`
	FilePath  string `json:"filePath"`
}

type fileDTO struct {
	Path            string     `json:"path"`
	Language        string     `json:"language,omitempty"`
	Size            int64      `json:"size"`
	Summary         string     `json:"summary,omitempty"`
	FirstAssociated time.Time  `json:"firstAssociated"`
	LastAccessed    time.Time  `json:"lastAccessed"`
	EditCount       int        `json:"editCount"`
	LastEdit        *time.Time `json:"lastEdit,omitempty"`
}

func toFileDTO(a *association.Association) fileDTO {
	return fileDTO{
		Path:            a.Path,
		Language:        a.Language,
		Size:            a.Size,
		Summary:         a.Summary,
		FirstAssociated: a.FirstAssociated,
		LastAccessed:    a.LastAccessed,
		EditCount:       a.EditCount,
		LastEdit:        a.LastEdit,
	}
}

type associateResponse struct {
	Success bool    `json:"success"`
	File    fileDTO `json:"file"`
}

type listFilesResponse struct {
	SessionID string    `json:"sessionId"`
	Files     []fileDTO `json:"files"`
}

type recordEditRequest struct {
	SessionID  string  `json:"sessionId"`
	FilePath   string  `json:"filePath"`
	Diff       string  `json:"diff,omitempty"`
	OldContent *string `json:"oldContent,omitempty"`
	NewContent *string `json:"newContent,omitempty"`
	PreHash    string  `json:"preHash,omitempty"`
	PostHash   string  `json:"postHash,omitempty"`
}

type editDTO struct {
	ID           int64     `json:"id"`
	FilePath     string    `json:"filePath"`
	Seq          int64     `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	Diff         string    `json:"diff,omitempty"`
	PreHash      string    `json:"preHash,omitempty"`
	PostHash     string    `json:"postHash,omitempty"`
	LinesAdded   int       `json:"linesAdded"`
	LinesRemoved int       `json:"linesRemoved"`
}

func toEditDTO(e *edit.Edit, withDiff bool) editDTO {
	dto := editDTO{
		ID:           e.ID,
		FilePath:     e.Path,
		Seq:          e.Seq,
		Timestamp:    e.CreatedAt,
		PreHash:      e.PreHash,
		PostHash:     e.PostHash,
		LinesAdded:   e.LinesAdded,
		LinesRemoved: e.LinesRemoved,
	}
	if withDiff {
		dto.Diff = e.Diff
	}
	return dto
}

type recordEditResponse struct {
	Success bool    `json:"success"`
	Edit    editDTO `json:"edit"`
}

type recentEditsResponse struct {
	SessionID string    `json:"sessionId"`
	Edits     []editDTO `json:"edits"`
}

type computeDiffRequest struct {
	OldContent string `json:"oldContent"`
	NewContent string `json:"newContent"`
	Label      string `json:"label,omitempty"`
}

type computeDiffResponse struct {
	Diff  string `json:"diff"`
	Valid bool   `json:"valid"`
}

type linkDiscussionRequest struct {
	SessionID string `json:"sessionId"`
	FilePath  string `json:"filePath"`
	Type      string `json:"type,omitempty"`
	Summary   string `json:"summary"`
}

type discussionDTO struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"filePath"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

func toDiscussionDTO(d *discussion.Discussion) discussionDTO {
	return discussionDTO{
		ID:        d.ID,
		FilePath:  d.Path,
		Type:      string(d.Type),
		Summary:   d.Summary,
		Timestamp: d.CreatedAt,
	}
}

type linkDiscussionResponse struct {
	Success    bool          `json:"success"`
	Discussion discussionDTO `json:"discussion"`
}

type programmingContextRequest struct {
	SessionID   string `json:"sessionId"`
	Query       string `json:"query"`
	MaxFiles    int    `json:"maxFiles,omitempty"`
	MaxEdits    int    `json:"maxEdits,omitempty"`
	MaxSnippets int    `json:"maxSnippets,omitempty"`
}
