package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rpggio/context-keeper/internal/diff"
	"github.com/rpggio/context-keeper/internal/domain/assembler"
)

const (
	kindEdit       = "edit"
	kindDiscussion = "discussion"
	maxTerms       = 16
	maxContentLen  = 2000
)

// SnippetRepository ranks a session's recorded diffs and discussions against
// a query using FTS5. It implements assembler.Retriever.
type SnippetRepository struct {
	db *DB
}

// NewSnippetRepository creates a new SnippetRepository
func NewSnippetRepository(db *DB) *SnippetRepository {
	return &SnippetRepository{db: db}
}

// Retrieve searches edits and discussions of the query's session, limited to
// the candidate files when any are given
func (r *SnippetRepository) Retrieve(ctx context.Context, q assembler.Query) ([]assembler.Snippet, error) {
	match := matchExpression(q.Text)
	if match == "" || q.Limit == 0 {
		return []assembler.Snippet{}, nil
	}

	edits, err := r.searchEdits(ctx, q, match)
	if err != nil {
		return nil, err
	}
	discussions, err := r.searchDiscussions(ctx, q, match)
	if err != nil {
		return nil, err
	}
	return append(edits, discussions...), nil
}

func (r *SnippetRepository) searchEdits(ctx context.Context, q assembler.Query, match string) ([]assembler.Snippet, error) {
	query := `
		SELECT e.id, a.path, e.diff, edits_fts.rank
		FROM edits_fts
		JOIN edits e ON e.id = edits_fts.rowid
		JOIN file_associations a ON a.id = e.association_id
		WHERE edits_fts MATCH ? AND e.session_id = ?
	`
	args := []interface{}{match, q.SessionID}
	query, args = withFiles(query, args, q.Files)
	query += " ORDER BY edits_fts.rank, e.id LIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search edits: %w", err)
	}
	defer rows.Close()

	var out []assembler.Snippet
	for rows.Next() {
		var id int64
		var path, text string
		var rank float64
		if err := rows.Scan(&id, &path, &text, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan edit hit: %w", err)
		}
		sn := assembler.Snippet{
			Kind:     kindEdit,
			SourceID: strconv.FormatInt(id, 10),
			FilePath: path,
			Score:    -rank,
		}
		sn.Content, sn.LineStart, sn.LineEnd = excerpt(text)
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edit hits: %w", err)
	}
	return out, nil
}

func (r *SnippetRepository) searchDiscussions(ctx context.Context, q assembler.Query, match string) ([]assembler.Snippet, error) {
	query := `
		SELECT d.id, a.path, d.summary, discussions_fts.rank
		FROM discussions_fts
		JOIN discussions d ON d.rid = discussions_fts.rowid
		JOIN file_associations a ON a.id = d.association_id
		WHERE discussions_fts MATCH ? AND d.session_id = ?
	`
	args := []interface{}{match, q.SessionID}
	query, args = withFiles(query, args, q.Files)
	query += " ORDER BY discussions_fts.rank, d.rid LIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search discussions: %w", err)
	}
	defer rows.Close()

	var out []assembler.Snippet
	for rows.Next() {
		var sn assembler.Snippet
		var rank float64
		if err := rows.Scan(&sn.SourceID, &sn.FilePath, &sn.Content, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan discussion hit: %w", err)
		}
		sn.Kind = kindDiscussion
		sn.Score = -rank
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discussion hits: %w", err)
	}
	return out, nil
}

func withFiles(query string, args []interface{}, files []string) (string, []interface{}) {
	if len(files) == 0 {
		return query, args
	}
	query += fmt.Sprintf(" AND a.path IN (%s)", placeholders(len(files)))
	for _, f := range files {
		args = append(args, f)
	}
	return query, args
}

// matchExpression turns free text into an FTS5 OR-query of quoted terms, so
// user input can never be parsed as FTS syntax.
func matchExpression(text string) string {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	seen := make(map[string]struct{}, len(terms))
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		quoted = append(quoted, `"`+t+`"`)
		if len(quoted) == maxTerms {
			break
		}
	}
	return strings.Join(quoted, " OR ")
}

// excerpt returns the added lines of the first hunk that adds any, with the
// new-file line range. Diffs that only remove lines fall back to the raw text.
func excerpt(text string) (string, int, int) {
	parsed, err := diff.Parse(text)
	if err == nil {
		for _, f := range parsed.Files {
			for _, h := range f.Hunks {
				if len(h.AddedText) == 0 {
					continue
				}
				end := h.NewStart + h.NewLines - 1
				if end < h.NewStart {
					end = h.NewStart
				}
				return truncate(strings.Join(h.AddedText, "\n")), h.NewStart, end
			}
		}
	}
	return truncate(text), 0, 0
}

func truncate(s string) string {
	if len(s) <= maxContentLen {
		return s
	}
	return s[:maxContentLen]
}
