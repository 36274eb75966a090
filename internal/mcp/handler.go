package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/context-keeper/internal/apperr"
	"github.com/rpggio/context-keeper/internal/diff"
	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Create(ctx context.Context, req session.CreateRequest) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	TTL() time.Duration
	Now() time.Time
}

// AssociationService defines file association operations needed by MCP.
type AssociationService interface {
	Associate(ctx context.Context, req association.AssociateRequest) (*association.Association, error)
	Dissociate(ctx context.Context, sessionID, filePath string) error
	List(ctx context.Context, sessionID string, limit int) ([]association.Association, error)
}

// EditService defines edit log operations needed by MCP.
type EditService interface {
	Record(ctx context.Context, req edit.RecordRequest) (*edit.Edit, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]edit.Edit, error)
	ListForFile(ctx context.Context, sessionID, filePath string) ([]edit.Edit, error)
}

// DiscussionService defines discussion operations needed by MCP.
type DiscussionService interface {
	Link(ctx context.Context, req discussion.LinkRequest) (*discussion.Discussion, error)
}

// ContextService builds programming contexts.
type ContextService interface {
	Build(ctx context.Context, req assembler.Request) (*assembler.ProgrammingContext, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions     SessionService
	Associations AssociationService
	Edits        EditService
	Discussions  DiscussionService
	Contexts     ContextService
}

var errUnknownTool = apperr.New(apperr.ErrInvalidInput, "unknown tool")

// Handler dispatches MCP tool calls to domain services.
type Handler struct {
	services Services
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services) *Handler {
	return &Handler{services: services}
}

// Handle runs tool method with params. defaultSession fills an omitted
// session_id argument.
func (h *Handler) Handle(ctx context.Context, defaultSession, method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_session":
		var req CreateSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.services.Sessions.Create(ctx, session.CreateRequest{Metadata: req.Metadata})
		if err != nil {
			return nil, err
		}
		return h.sessionResponse(sess), nil
	case "get_session":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.services.Sessions.Get(ctx, pick(req.SessionID, defaultSession))
		if err != nil {
			return nil, err
		}
		return h.sessionResponse(sess), nil
	case "associate_file":
		var req AssociateFileParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		a, err := h.services.Associations.Associate(ctx, association.AssociateRequest{
			SessionID: pick(req.SessionID, defaultSession),
			FilePath:  req.FilePath,
			Language:  req.Language,
			Content:   req.Content,
		})
		if err != nil {
			return nil, err
		}
		return fileResponse(a), nil
	case "dissociate_file":
		var req DissociateFileParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.services.Associations.Dissociate(ctx, pick(req.SessionID, defaultSession), req.FilePath); err != nil {
			return nil, err
		}
		return SuccessResponse{Success: true}, nil
	case "list_files":
		var req ListFilesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sessionID := pick(req.SessionID, defaultSession)
		list, err := h.services.Associations.List(ctx, sessionID, req.Limit)
		if err != nil {
			return nil, err
		}
		resp := ListFilesResponse{SessionID: sessionID, Files: make([]FileResponse, 0, len(list))}
		for i := range list {
			resp.Files = append(resp.Files, fileResponse(&list[i]))
		}
		return resp, nil
	case "record_edit":
		var req RecordEditParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		e, err := h.services.Edits.Record(ctx, edit.RecordRequest{
			SessionID:  pick(req.SessionID, defaultSession),
			FilePath:   req.FilePath,
			Diff:       req.Diff,
			OldContent: req.OldContent,
			NewContent: req.NewContent,
			PreHash:    req.PreHash,
			PostHash:   req.PostHash,
		})
		if err != nil {
			return nil, err
		}
		return editResponse(e, false), nil
	case "recent_edits":
		var req RecentEditsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sessionID := pick(req.SessionID, defaultSession)
		var list []edit.Edit
		var err error
		if strings.TrimSpace(req.FilePath) != "" {
			list, err = h.services.Edits.ListForFile(ctx, sessionID, req.FilePath)
			if err == nil && req.Limit > 0 && len(list) > req.Limit {
				list = list[len(list)-req.Limit:]
			}
		} else {
			list, err = h.services.Edits.Recent(ctx, sessionID, req.Limit)
		}
		if err != nil {
			return nil, err
		}
		resp := RecentEditsResponse{SessionID: sessionID, Edits: make([]EditResponse, 0, len(list))}
		for i := range list {
			resp.Edits = append(resp.Edits, editResponse(&list[i], true))
		}
		return resp, nil
	case "compute_diff":
		var req ComputeDiffParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		out := diff.Compute(req.OldContent, req.NewContent, req.Label)
		return ComputeDiffResponse{Diff: out, Valid: diff.Valid(out)}, nil
	case "link_discussion":
		var req LinkDiscussionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		d, err := h.services.Discussions.Link(ctx, discussion.LinkRequest{
			SessionID: pick(req.SessionID, defaultSession),
			FilePath:  req.FilePath,
			Type:      discussion.Type(req.Type),
			Summary:   req.Summary,
		})
		if err != nil {
			return nil, err
		}
		return DiscussionResponse{
			ID:        d.ID,
			FilePath:  d.Path,
			Type:      string(d.Type),
			Summary:   d.Summary,
			Timestamp: d.CreatedAt,
		}, nil
	case "programming_context":
		var req ProgrammingContextParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.services.Contexts.Build(ctx, assembler.Request{
			SessionID: pick(req.SessionID, defaultSession),
			Query:     req.Query,
			Limits: assembler.Limits{
				MaxFiles:    req.MaxFiles,
				MaxEdits:    req.MaxEdits,
				MaxSnippets: req.MaxSnippets,
			},
		})
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, method)
	}
}

func (h *Handler) sessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		SessionID:  sess.ID,
		CreatedAt:  sess.CreatedAt,
		LastActive: sess.LastActivity,
		Status:     string(sess.StatusAt(h.services.Sessions.Now(), h.services.Sessions.TTL())),
		FileCount:  sess.FileCount,
		Metadata:   sess.Metadata,
	}
}

func fileResponse(a *association.Association) FileResponse {
	return FileResponse{
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

func editResponse(e *edit.Edit, withDiff bool) EditResponse {
	resp := EditResponse{
		ID:           e.ID,
		FilePath:     e.Path,
		Seq:          e.Seq,
		Timestamp:    e.CreatedAt,
		LinesAdded:   e.LinesAdded,
		LinesRemoved: e.LinesRemoved,
	}
	if withDiff {
		resp.Diff = e.Diff
	}
	return resp
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

var errInvalidParams = apperr.New(apperr.ErrInvalidInput, "invalid params")

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}
