package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rpggio/context-keeper/internal/apperr"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

const (
	discussionWeight = 0.2
	editedWeight     = 0.1
	dayFormat        = "2006-01-02"
)

// Options configures default limits and the retrieval timeout.
type Options struct {
	// MaxFiles of zero returns every associated file.
	MaxFiles       int
	MaxEdits       int
	MaxSnippets    int
	SnippetTimeout time.Duration
}

// Service builds programming contexts. It only reads.
type Service struct {
	sessions    Sessions
	files       FileReader
	edits       EditReader
	discussions DiscussionReader
	retriever   Retriever
	opts        Options
	logger      *slog.Logger
}

// NewService creates a new assembler. A nil retriever yields no snippets.
func NewService(
	sessions Sessions,
	files FileReader,
	edits EditReader,
	discussions DiscussionReader,
	retriever Retriever,
	opts Options,
	logger *slog.Logger,
) *Service {
	if opts.MaxEdits <= 0 {
		opts.MaxEdits = edit.DefaultOptions().RecentLimit
	}
	if opts.SnippetTimeout <= 0 {
		opts.SnippetTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:    sessions,
		files:       files,
		edits:       edits,
		discussions: discussions,
		retriever:   retriever,
		opts:        opts,
		logger:      logger,
	}
}

// Request describes a context query.
type Request struct {
	SessionID string
	Query     string
	Limits    Limits
}

type facts struct {
	all         []association.Association
	files       []association.Association
	edits       []edit.Edit
	discussions map[string][]discussion.Discussion
}

// Build assembles the programming context for a session and query.
func (s *Service) Build(ctx context.Context, req Request) (*ProgrammingContext, error) {
	if err := session.ValidateID(req.SessionID); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limits, err := s.effectiveLimits(req.Limits)
	if err != nil {
		return nil, err
	}

	// Owned facts are read to completion even if the caller goes away; only
	// the retrieval leg observes cancellation.
	f, err := s.loadFacts(context.WithoutCancel(ctx), req.SessionID, limits)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(f.files))
	for i, a := range f.files {
		paths[i] = a.Path
	}
	snippets, degraded := s.retrieve(ctx, Query{
		SessionID: req.SessionID,
		Text:      query,
		Files:     paths,
		Limit:     limits.MaxSnippets,
	})

	return &ProgrammingContext{
		SessionID:        req.SessionID,
		AssociatedFiles:  buildFiles(f.files, f.discussions),
		RecentEdits:      buildEdits(f.edits),
		RelevantSnippets: snippets,
		Statistics:       buildStatistics(f.all, f.edits),
		Degraded:         degraded,
	}, nil
}

func (s *Service) effectiveLimits(req Limits) (Limits, error) {
	if req.MaxFiles < 0 || req.MaxEdits < 0 || req.MaxSnippets < 0 {
		return Limits{}, ErrInvalidLimits
	}
	out := Limits{
		MaxFiles:    s.opts.MaxFiles,
		MaxEdits:    s.opts.MaxEdits,
		MaxSnippets: s.opts.MaxSnippets,
	}
	if req.MaxFiles > 0 && (out.MaxFiles == 0 || req.MaxFiles < out.MaxFiles) {
		out.MaxFiles = req.MaxFiles
	}
	if req.MaxEdits > 0 && req.MaxEdits < out.MaxEdits {
		out.MaxEdits = req.MaxEdits
	}
	if req.MaxSnippets > 0 && req.MaxSnippets < out.MaxSnippets {
		out.MaxSnippets = req.MaxSnippets
	}
	return out, nil
}

func (s *Service) loadFacts(ctx context.Context, sessionID string, limits Limits) (*facts, error) {
	unlock := s.sessions.Locks().RLock(sessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	all, err := s.files.List(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}
	f := &facts{all: all, files: all}
	if limits.MaxFiles > 0 && len(all) > limits.MaxFiles {
		f.files = all[:limits.MaxFiles]
	}

	paths := make([]string, len(f.files))
	for i, a := range f.files {
		paths[i] = a.Path
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		edits, err := s.edits.Recent(gctx, sessionID, limits.MaxEdits)
		if err != nil {
			return fmt.Errorf("listing recent edits: %w", err)
		}
		f.edits = edits
		return nil
	})
	g.Go(func() error {
		if len(paths) == 0 {
			f.discussions = map[string][]discussion.Discussion{}
			return nil
		}
		list, err := s.discussions.ListForFiles(gctx, sessionID, paths)
		if err != nil {
			return fmt.Errorf("listing discussions: %w", err)
		}
		f.discussions = discussion.GroupByPath(list)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return f, nil
}

type retrieval struct {
	snippets []Snippet
	err      error
}

// retrieve calls the retriever under the snippet timeout. Any failure is
// logged and masked as an empty, degraded result.
func (s *Service) retrieve(ctx context.Context, q Query) ([]Snippet, bool) {
	if s.retriever == nil || q.Limit == 0 {
		return []Snippet{}, false
	}

	rctx, cancel := context.WithTimeout(ctx, s.opts.SnippetTimeout)
	defer cancel()

	done := make(chan retrieval, 1)
	go func() {
		snippets, err := s.retriever.Retrieve(rctx, q)
		done <- retrieval{snippets: snippets, err: err}
	}()

	var res retrieval
	select {
	case res = <-done:
	case <-rctx.Done():
		res.err = rctx.Err()
	}
	if res.err != nil {
		err := fmt.Errorf("%w: snippet retrieval: %v", apperr.ErrUpstreamDegraded, res.err)
		s.logger.Warn("context degraded", "session_id", q.SessionID, "error", err)
		return []Snippet{}, true
	}
	return rankSnippets(res.snippets, q.Files, q.Limit), false
}

// rankSnippets drops snippets outside the candidate files, orders by score
// then source id, and truncates to limit.
func rankSnippets(in []Snippet, files []string, limit int) []Snippet {
	allowed := make(map[string]struct{}, len(files))
	for _, f := range files {
		allowed[f] = struct{}{}
	}
	out := make([]Snippet, 0, len(in))
	for _, sn := range in {
		if sn.FilePath != "" {
			if _, ok := allowed[sn.FilePath]; !ok {
				continue
			}
		}
		out = append(out, sn)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].SourceID < out[j].SourceID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildFiles(files []association.Association, discussions map[string][]discussion.Discussion) []FileContext {
	out := make([]FileContext, 0, len(files))
	for _, a := range files {
		related := discussions[a.Path]
		refs := make([]DiscussionRef, 0, len(related))
		for i, d := range related {
			refs = append(refs, DiscussionRef{
				ID:        d.ID,
				Type:      string(d.Type),
				Summary:   d.Summary,
				Timestamp: d.CreatedAt,
				Relevance: recencyRelevance(i),
			})
		}
		out = append(out, FileContext{
			Path:               a.Path,
			Language:           a.Language,
			Size:               a.Size,
			Summary:            a.Summary,
			LastAccessed:       a.LastAccessed,
			LastEdit:           a.LastEdit,
			EditCount:          a.EditCount,
			Importance:         importance(len(related), a.EditCount),
			RelatedDiscussions: refs,
		})
	}
	return out
}

func importance(discussions, edits int) float64 {
	if discussions == 0 {
		if edits > 0 {
			return editedWeight
		}
		return 0
	}
	v := float64(discussions) * discussionWeight
	if v > 1.0 {
		return 1.0
	}
	return v
}

// recencyRelevance scores the i-th newest discussion of a file.
func recencyRelevance(i int) float64 {
	v := 1.0 - 0.1*float64(i)
	if v < 0.1 {
		return 0.1
	}
	return v
}

func buildEdits(edits []edit.Edit) []EditRef {
	out := make([]EditRef, 0, len(edits))
	for _, e := range edits {
		out = append(out, EditRef{
			ID:           e.ID,
			FilePath:     e.Path,
			Seq:          e.Seq,
			Timestamp:    e.CreatedAt,
			Diff:         e.Diff,
			LinesAdded:   e.LinesAdded,
			LinesRemoved: e.LinesRemoved,
		})
	}
	return out
}

func buildStatistics(all []association.Association, recent []edit.Edit) Statistics {
	stats := Statistics{
		TotalFiles:    len(all),
		LanguageUsage: map[string]int{},
		EditsByFile:   map[string]int{},
		ActivityByDay: map[string]int{},
	}
	for _, a := range all {
		lang := a.Language
		if lang == "" {
			lang = "unknown"
		}
		stats.LanguageUsage[lang]++
		stats.TotalEdits += a.EditCount
		if a.EditCount > 0 {
			stats.EditsByFile[a.Path] = a.EditCount
		}
	}
	for _, e := range recent {
		stats.ActivityByDay[e.CreatedAt.UTC().Format(dayFormat)]++
	}
	return stats
}
