package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/httputil"
)

// eventSource is the optional query surface an audit logger may expose.
// Loggers that only forward events (emitters, remote sinks) do not.
type eventSource interface {
	Events() []audit.Event
	EventsByType(types ...audit.EventType) []audit.Event
}

// AuditHandlers handles audit trail HTTP requests
type AuditHandlers struct {
	s *Server
}

// NewAuditHandlers creates a new audit handlers instance
func NewAuditHandlers(s *Server) *AuditHandlers {
	return &AuditHandlers{s: s}
}

// RegisterRoutes registers audit trail routes
func (h *AuditHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/audit/events", h.listEvents).Methods("GET")
}

// listEvents handles GET /audit/events
func (h *AuditHandlers) listEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.s.requireAdmin(w, r); !ok {
		return
	}

	source, ok := h.s.audit.(eventSource)
	if !ok {
		httputil.WriteNotFoundError(w, "audit history is not available")
		return
	}

	if typeFilter := r.URL.Query().Get("type"); typeFilter != "" {
		httputil.WriteSuccess(w, source.EventsByType(audit.EventType(typeFilter)))
		return
	}

	httputil.WriteSuccess(w, source.Events())
}
