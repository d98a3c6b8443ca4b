package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/httputil"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// RankHandlers handles rank administration HTTP requests. Every route
// requires the administrator role.
type RankHandlers struct {
	s *Server
}

// NewRankHandlers creates a new rank handlers instance
func NewRankHandlers(s *Server) *RankHandlers {
	return &RankHandlers{s: s}
}

// RegisterRoutes registers rank administration routes
func (h *RankHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ranks", h.listRanks).Methods("GET")
	router.HandleFunc("/ranks", h.createRank).Methods("POST")
	router.HandleFunc("/users/{id}/ranks", h.listAssignments).Methods("GET")
	router.HandleFunc("/users/{id}/ranks", h.assignRank).Methods("POST")
	router.HandleFunc("/users/{id}/ranks/{assignment_id}", h.revokeRank).Methods("DELETE")
}

// listRanks handles GET /ranks
func (h *RankHandlers) listRanks(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.s.currentSession(w, r); !ok {
		return
	}
	httputil.WriteSuccess(w, h.s.registry.All())
}

// createRank handles POST /ranks
func (h *RankHandlers) createRank(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.requireAdmin(w, r)
	if !ok {
		return
	}

	var req CreateRankRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	created, err := h.s.registry.Create(rank.CreateRankInput{
		Name:        req.Name,
		Level:       req.Level,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	h.s.record(r.Context(), audit.Event{
		EventType:    audit.EventTypeRankCreate,
		Status:       audit.EventStatusSuccess,
		UserID:       sess.User.ID,
		ResourceType: "rank",
		ResourceID:   created.ID,
		Message:      created.Name,
		RequestID:    requestID(r),
	})

	httputil.WriteCreated(w, created)
}

// listAssignments handles GET /users/{id}/ranks
func (h *RankHandlers) listAssignments(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.s.requireAdmin(w, r); !ok {
		return
	}

	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	assignments, err := h.s.directory.Assignments(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, assignments)
}

// assignRank handles POST /users/{id}/ranks
func (h *RankHandlers) assignRank(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.requireAdmin(w, r)
	if !ok {
		return
	}

	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req AssignRankRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.RankID == "" {
		httputil.WriteBadRequest(w, "rank_id is required")
		return
	}
	if _, found := h.s.registry.Lookup(req.RankID); !found {
		httputil.WriteBadRequest(w, "unknown rank: "+req.RankID)
		return
	}

	assignment, err := h.s.directory.AssignRank(r.Context(), userID, req.RankID, req.SiteID, sess.User.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	// The subject's cached decisions no longer reflect their grants.
	h.s.evaluator.Invalidate(userID)

	h.s.record(r.Context(), audit.Event{
		EventType:    audit.EventTypeRankAssign,
		Status:       audit.EventStatusSuccess,
		UserID:       sess.User.ID,
		SiteID:       req.SiteID,
		ResourceType: "rank_assignment",
		ResourceID:   assignment.ID,
		Message:      req.RankID + " -> " + userID,
		RequestID:    requestID(r),
	})

	httputil.WriteCreated(w, assignment)
}

// revokeRank handles DELETE /users/{id}/ranks/{assignment_id}
func (h *RankHandlers) revokeRank(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.requireAdmin(w, r)
	if !ok {
		return
	}

	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	assignmentID, ok := httputil.ParsePathStringOrError(w, r, "assignment_id")
	if !ok {
		return
	}

	if err := h.s.directory.RevokeRank(r.Context(), assignmentID, sess.User.ID); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	h.s.evaluator.Invalidate(userID)

	h.s.record(r.Context(), audit.Event{
		EventType:    audit.EventTypeRankRevoke,
		Status:       audit.EventStatusSuccess,
		UserID:       sess.User.ID,
		ResourceType: "rank_assignment",
		ResourceID:   assignmentID,
		RequestID:    requestID(r),
	})

	httputil.WriteNoContent(w)
}
