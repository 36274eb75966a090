package assembler

import "time"

// Snippet is a ranked suggestion returned by a Retriever.
type Snippet struct {
	// Kind is "edit" or "discussion" for the built-in retriever.
	Kind      string  `json:"type"`
	SourceID  string  `json:"sourceId"`
	FilePath  string  `json:"filePath"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	LineStart int     `json:"lineStart,omitempty"`
	LineEnd   int     `json:"lineEnd,omitempty"`
}

// Query is what the assembler asks a Retriever for.
type Query struct {
	SessionID string
	Text      string
	Files     []string
	Limit     int
}

// DiscussionRef is a discussion as it appears in a context response.
type DiscussionRef struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
	Relevance float64   `json:"relevance"`
}

// FileContext is one associated file in a context response.
type FileContext struct {
	Path               string          `json:"path"`
	Language           string          `json:"language,omitempty"`
	Size               int64           `json:"size,omitempty"`
	Summary            string          `json:"summary,omitempty"`
	LastAccessed       time.Time       `json:"lastAccessed"`
	LastEdit           *time.Time      `json:"lastEdit,omitempty"`
	EditCount          int             `json:"editCount"`
	Importance         float64         `json:"importance"`
	RelatedDiscussions []DiscussionRef `json:"relatedDiscussions"`
}

// EditRef is one recorded edit in a context response.
type EditRef struct {
	ID           int64     `json:"id"`
	FilePath     string    `json:"filePath"`
	Seq          int64     `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	Diff         string    `json:"diff"`
	LinesAdded   int       `json:"linesAdded"`
	LinesRemoved int       `json:"linesRemoved"`
}

// Statistics summarises the session's owned facts.
type Statistics struct {
	TotalFiles    int            `json:"totalFiles"`
	TotalEdits    int            `json:"totalEdits"`
	LanguageUsage map[string]int `json:"languageUsage"`
	EditsByFile   map[string]int `json:"editsByFile"`
	ActivityByDay map[string]int `json:"activityByDay"`
}

// ProgrammingContext is the per-query view of a session. It is never stored.
type ProgrammingContext struct {
	SessionID        string        `json:"sessionId"`
	AssociatedFiles  []FileContext `json:"associatedFiles"`
	RecentEdits      []EditRef     `json:"recentEdits"`
	RelevantSnippets []Snippet     `json:"relevantSnippets"`
	Statistics       Statistics    `json:"statistics"`
	// Degraded is set when snippet retrieval failed or timed out.
	Degraded bool `json:"degraded,omitempty"`
}

// Limits bounds the lists in a response. Zero fields use the configured defaults.
type Limits struct {
	MaxFiles    int
	MaxEdits    int
	MaxSnippets int
}
