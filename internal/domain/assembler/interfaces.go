package assembler

import (
	"context"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

// Retriever ranks snippets and discussions against a query. Calls are
// best-effort: errors and timeouts degrade the response instead of failing it.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]Snippet, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, q Query) ([]Snippet, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, q Query) ([]Snippet, error) {
	return f(ctx, q)
}

// Sessions is the session capability the assembler depends on.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Touch(ctx context.Context, id string) error
	Locks() *session.Locks
}

// FileReader lists associations, most recently accessed first.
type FileReader interface {
	List(ctx context.Context, sessionID string, limit int) ([]association.Association, error)
}

// EditReader lists recent edits, newest first.
type EditReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]edit.Edit, error)
}

// DiscussionReader lists discussions of files, newest first.
type DiscussionReader interface {
	ListForFiles(ctx context.Context, sessionID string, paths []string) ([]discussion.Discussion, error)
}
