package transport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/context-keeper/internal/apperr"
	"github.com/rpggio/context-keeper/internal/diff"
	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

var errInvalidLimit = apperr.New(apperr.ErrInvalidInput, "limit must be a non-negative integer")

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.services.Sessions.Create(r.Context(), session.CreateRequest{Metadata: req.Metadata})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createSessionResponse{SessionID: sess.ID, CreatedAt: sess.CreatedAt})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.services.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:  sess.ID,
		CreatedAt:  sess.CreatedAt,
		LastActive: sess.LastActivity,
		Status:     string(sess.StatusAt(s.services.Sessions.Now(), s.services.Sessions.TTL())),
		FileCount:  sess.FileCount,
		Metadata:   sess.Metadata,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleAssociate(w http.ResponseWriter, r *http.Request) {
	var req associateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.services.Associations.Associate(r.Context(), association.AssociateRequest{
		SessionID: req.SessionID,
		FilePath:  req.FilePath,
		Language:  req.Language,
		Content:   req.Content,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, associateResponse{Success: true, File: toFileDTO(a)})
}

func (s *Server) handleDissociate(w http.ResponseWriter, r *http.Request) {
	var req dissociateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Associations.Dissociate(r.Context(), req.SessionID, req.FilePath); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.services.Associations.List(r.Context(), sessionID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	files := make([]fileDTO, 0, len(list))
	for i := range list {
		files = append(files, toFileDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, listFilesResponse{SessionID: sessionID, Files: files})
}

func (s *Server) handleRecordEdit(w http.ResponseWriter, r *http.Request) {
	var req recordEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.services.Edits.Record(r.Context(), edit.RecordRequest{
		SessionID:  req.SessionID,
		FilePath:   req.FilePath,
		Diff:       req.Diff,
		OldContent: req.OldContent,
		NewContent: req.NewContent,
		PreHash:    req.PreHash,
		PostHash:   req.PostHash,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordEditResponse{Success: true, Edit: toEditDTO(e, false)})
}

func (s *Server) handleRecentEdits(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.services.Edits.Recent(r.Context(), sessionID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	edits := make([]editDTO, 0, len(list))
	for i := range list {
		edits = append(edits, toEditDTO(&list[i], true))
	}
	writeJSON(w, http.StatusOK, recentEditsResponse{SessionID: sessionID, Edits: edits})
}

func (s *Server) handleComputeDiff(w http.ResponseWriter, r *http.Request) {
	var req computeDiffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out := diff.Compute(req.OldContent, req.NewContent, req.Label)
	writeJSON(w, http.StatusOK, computeDiffResponse{Diff: out, Valid: diff.Valid(out)})
}

func (s *Server) handleLinkDiscussion(w http.ResponseWriter, r *http.Request) {
	var req linkDiscussionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.services.Discussions.Link(r.Context(), discussion.LinkRequest{
		SessionID: req.SessionID,
		FilePath:  req.FilePath,
		Type:      discussion.Type(req.Type),
		Summary:   req.Summary,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linkDiscussionResponse{Success: true, Discussion: toDiscussionDTO(d)})
}

func (s *Server) handleProgrammingContext(w http.ResponseWriter, r *http.Request) {
	var req programmingContextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pc, err := s.services.Contexts.Build(r.Context(), assembler.Request{
		SessionID: req.SessionID,
		Query:     req.Query,
		Limits: assembler.Limits{
			MaxFiles:    req.MaxFiles,
			MaxEdits:    req.MaxEdits,
			MaxSnippets: req.MaxSnippets,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if pc.Degraded && s.metrics != nil {
		s.metrics.ContextDegraded()
	}
	writeJSON(w, http.StatusOK, pc)
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errInvalidLimit
	}
	return n, nil
}
