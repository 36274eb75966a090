// Package app wires storage, domain services and transports into one
// service object.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/context-keeper/internal/config"
	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/mcp"
	"github.com/rpggio/context-keeper/internal/metrics"
	"github.com/rpggio/context-keeper/internal/sqlite"
	"github.com/rpggio/context-keeper/internal/sweeper"
	"github.com/rpggio/context-keeper/internal/transport"
)

const stopTimeout = 5 * time.Second

// App owns the database and every long-lived component built on it.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlite.DB

	Sessions     *session.Service
	Associations *association.Service
	Edits        *edit.Service
	Discussions  *discussion.Service
	Assembler    *assembler.Service

	metrics   *metrics.Metrics
	sweeper   *sweeper.Sweeper
	mcpServer *sdkmcp.Server
	handler   http.Handler
}

type options struct {
	retriever assembler.Retriever
	now       func() time.Time
}

// Option customises New.
type Option func(*options)

// WithRetriever replaces the FTS-backed snippet retriever.
func WithRetriever(r assembler.Retriever) Option {
	return func(o *options) { o.retriever = r }
}

// WithClock overrides the clock used for activity timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New opens the configured database, applies migrations and builds the
// service graph.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	sessionRepo := sqlite.NewSessionRepository(db)
	associationRepo := sqlite.NewAssociationRepository(db)
	editRepo := sqlite.NewEditRepository(db)
	discussionRepo := sqlite.NewDiscussionRepository(db)

	m := metrics.New()
	retriever := o.retriever
	if retriever == nil {
		retriever = sqlite.NewSnippetRepository(db)
	}

	sessions := session.NewService(sessionRepo, session.NewLocks(), session.Options{
		TTL: cfg.Sessions.TTL,
		Now: o.now,
	}, logger)
	associations := association.NewService(associationRepo, sessions, association.Options{
		Root:       cfg.Workspace.Root,
		AutoCreate: cfg.Sessions.AutoCreate,
	}, logger)
	edits := edit.NewService(editRepo, associationRepo, sessions, associations, edit.Options{
		MaxPerFile:        cfg.Edits.MaxPerFile,
		RecentLimit:       cfg.Edits.RecentLimit,
		DedupeConsecutive: cfg.Edits.DedupeConsecutive,
	}, logger)
	discussions := discussion.NewService(discussionRepo, sessions, associations, logger)
	// The assembler reads repositories directly: it already holds the
	// session read lock, which the services would try to take again.
	contexts := assembler.NewService(sessions, associationRepo, editRepo, discussionRepo,
		m.InstrumentRetriever(retriever), assembler.Options{
			MaxFiles:       cfg.Assembler.MaxFiles,
			MaxEdits:       cfg.Edits.RecentLimit,
			MaxSnippets:    cfg.Assembler.MaxSnippets,
			SnippetTimeout: cfg.Assembler.SnippetTimeout,
		}, logger)

	a := &App{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		Sessions:     sessions,
		Associations: associations,
		Edits:        edits,
		Discussions:  discussions,
		Assembler:    contexts,
		metrics:      m,
	}

	a.sweeper = sweeper.New(sessions, cfg.Sessions.SweepInterval, logger,
		sweeper.WithClock(o.now),
		sweeper.WithExpiredHook(m.SessionsExpired),
	)

	a.mcpServer = mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Sessions:     sessions,
			Associations: associations,
			Edits:        edits,
			Discussions:  discussions,
			Contexts:     contexts,
		},
		Logger: logger,
	})

	a.handler = transport.NewServer(transport.Config{
		Services: transport.Services{
			Sessions:     sessions,
			Associations: associations,
			Edits:        edits,
			Discussions:  discussions,
			Contexts:     contexts,
		},
		Metrics: m,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return a.mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		),
		Logger: logger,
	})

	return a, nil
}

// Start launches background work. It returns immediately.
func (a *App) Start(ctx context.Context) {
	a.sweeper.Start(ctx)
}

// Stop halts background work and closes the database.
func (a *App) Stop(ctx context.Context) error {
	timeout := stopTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := a.sweeper.Stop(timeout); err != nil {
		a.logger.Error("failed to stop sweeper", "error", err)
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Handler returns the HTTP API, including /metrics and /mcp.
func (a *App) Handler() http.Handler {
	return a.handler
}

// MCPServer returns the MCP server for stdio use.
func (a *App) MCPServer() *sdkmcp.Server {
	return a.mcpServer
}

// Metrics returns the collectors backing /metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Sweep runs one expiry pass immediately.
func (a *App) Sweep(ctx context.Context) (int, error) {
	return a.sweeper.RunOnce(ctx)
}

func ensureDBDir(path string) error {
	if path == "" || path == ":memory:" || filepath.Dir(path) == "." {
		return nil
	}
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
