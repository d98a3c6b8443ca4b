package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/httputil"
	"github.com/coverdesk/coverdesk/pkg/identity"
)

// ViewHandlers handles view simulation HTTP requests
type ViewHandlers struct {
	s *Server
}

// NewViewHandlers creates a new view handlers instance
func NewViewHandlers(s *Server) *ViewHandlers {
	return &ViewHandlers{s: s}
}

// RegisterRoutes registers view simulation routes
func (h *ViewHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/view", h.getView).Methods("GET")
	router.HandleFunc("/view/mode", h.setViewMode).Methods("PUT")
	router.HandleFunc("/view/test-mode", h.setTestMode).Methods("PUT")
	router.HandleFunc("/view/activity", h.logActivity).Methods("POST")
}

func (h *ViewHandlers) state() ViewStateResponse {
	sim := h.s.simulator
	return ViewStateResponse{
		ActualRole: sim.ActualRole(),
		Mode:       sim.Mode(),
		TestMode:   sim.TestModeActive(),
		Logs:       sim.Logs(),
	}
}

// getView handles GET /view
func (h *ViewHandlers) getView(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.s.currentSession(w, r); !ok {
		return
	}
	httputil.WriteSuccess(w, h.state())
}

// setViewMode handles PUT /view/mode
func (h *ViewHandlers) setViewMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	var req SetViewModeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role := identity.Role(req.Role)
	if !role.Valid() {
		httputil.WriteBadRequest(w, "invalid role: "+req.Role)
		return
	}

	changed := h.s.simulator.SetViewMode(role)
	if changed {
		h.s.record(r.Context(), audit.Event{
			EventType: audit.EventTypeViewChange,
			Status:    audit.EventStatusSuccess,
			UserID:    sess.User.ID,
			Message:   string(role),
			RequestID: requestID(r),
		})
	}

	httputil.WriteSuccess(w, h.state())
}

// setTestMode handles PUT /view/test-mode
func (h *ViewHandlers) setTestMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	// Only a real administrator may toggle test mode.
	if identity.CoarseRole(h.s.registry, sess.User, "") != identity.RoleAdmin {
		httputil.WriteForbidden(w, "administrator role required")
		return
	}

	var req SetTestModeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	h.s.simulator.SetTestMode(req.Active)

	eventType := audit.EventTypeTestModeOff
	if req.Active {
		eventType = audit.EventTypeTestModeOn
	}
	h.s.record(r.Context(), audit.Event{
		EventType: eventType,
		Status:    audit.EventStatusSuccess,
		UserID:    sess.User.ID,
		RequestID: requestID(r),
	})

	httputil.WriteSuccess(w, h.state())
}

// logActivity handles POST /view/activity
func (h *ViewHandlers) logActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	var req LogActivityRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Event == "" {
		httputil.WriteBadRequest(w, "event is required")
		return
	}

	if !h.s.simulator.TestModeActive() {
		httputil.WriteBadRequest(w, "test mode is not active")
		return
	}

	h.s.simulator.Log(req.Event, req.Detail)

	h.s.record(r.Context(), audit.Event{
		EventType: audit.EventTypeViewActivity,
		Status:    audit.EventStatusSuccess,
		UserID:    sess.User.ID,
		Message:   req.Event,
		RequestID: requestID(r),
	})

	httputil.WriteSuccess(w, h.state())
}
