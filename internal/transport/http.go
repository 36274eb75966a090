package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

// SessionService defines session operations needed by HTTP.
type SessionService interface {
	Create(ctx context.Context, req session.CreateRequest) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
	Now() time.Time
}

// AssociationService defines file association operations needed by HTTP.
type AssociationService interface {
	Associate(ctx context.Context, req association.AssociateRequest) (*association.Association, error)
	Dissociate(ctx context.Context, sessionID, filePath string) error
	List(ctx context.Context, sessionID string, limit int) ([]association.Association, error)
}

// EditService defines edit log operations needed by HTTP.
type EditService interface {
	Record(ctx context.Context, req edit.RecordRequest) (*edit.Edit, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]edit.Edit, error)
}

// DiscussionService defines discussion operations needed by HTTP.
type DiscussionService interface {
	Link(ctx context.Context, req discussion.LinkRequest) (*discussion.Discussion, error)
}

// ContextService builds programming contexts.
type ContextService interface {
	Build(ctx context.Context, req assembler.Request) (*assembler.ProgrammingContext, error)
}

// Services contains the domain services served over HTTP.
type Services struct {
	Sessions     SessionService
	Associations AssociationService
	Edits        EditService
	Discussions  DiscussionService
	Contexts     ContextService
}

// Metrics records request and context outcomes. It is optional.
type Metrics interface {
	ObserveRequest(route, method, code string, elapsed time.Duration)
	ContextDegraded()
	Handler() http.Handler
}

// Config configures the HTTP router.
type Config struct {
	Services Services
	Metrics  Metrics
	// MCP, when set, is mounted at /mcp.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	services Services
	metrics  Metrics
	logger   *slog.Logger
}

// NewServer creates the HTTP router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{services: cfg.Services, metrics: cfg.Metrics, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger, cfg.Metrics))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found", Code: "NOT_FOUND"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: "INVALID_INPUT"})
	})

	r.Post("/session/create", srv.handleCreateSession)
	r.Get("/session/{id}", srv.handleGetSession)
	r.Delete("/session/{id}", srv.handleDeleteSession)

	r.Post("/context/associate", srv.handleAssociate)
	r.Post("/context/dissociate", srv.handleDissociate)
	r.Get("/context/files", srv.handleListFiles)
	r.Post("/context/discussions", srv.handleLinkDiscussion)
	r.Post("/context/programming", srv.handleProgrammingContext)

	r.Post("/edits/record", srv.handleRecordEdit)
	r.Get("/edits/recent", srv.handleRecentEdits)
	r.Post("/edits/diff", srv.handleComputeDiff)

	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
