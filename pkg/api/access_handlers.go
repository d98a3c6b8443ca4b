package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coverdesk/coverdesk/pkg/access"
	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/httputil"
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// AccessHandlers handles permission evaluation HTTP requests
type AccessHandlers struct {
	s *Server
}

// NewAccessHandlers creates a new access handlers instance
func NewAccessHandlers(s *Server) *AccessHandlers {
	return &AccessHandlers{s: s}
}

// RegisterRoutes registers access evaluation routes
func (h *AccessHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/access/check", h.check).Methods("POST")
	router.HandleFunc("/access/link-check", h.linkCheck).Methods("POST")
	router.HandleFunc("/access/modules/{module}", h.moduleAccess).Methods("GET")
}

// subject resolves the user an access question is about. Admins may ask
// about any user; everyone else only about themselves.
func (h *AccessHandlers) subject(w http.ResponseWriter, r *http.Request, sess *identity.User, userID string) (*identity.User, bool) {
	if userID == "" || userID == sess.ID {
		return sess, true
	}
	if identity.CoarseRole(h.s.registry, *sess, "") != identity.RoleAdmin {
		httputil.WriteForbidden(w, "cannot query access for another user")
		return nil, false
	}
	target, err := h.s.directory.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	if target == nil {
		httputil.WriteNotFoundError(w, "user not found")
		return nil, false
	}
	return target, true
}

// check handles POST /access/check
func (h *AccessHandlers) check(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	var req AccessCheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Action == "" || req.Resource == "" {
		httputil.WriteBadRequest(w, "action and resource are required")
		return
	}

	target, ok := h.subject(w, r, &sess.User, req.UserID)
	if !ok {
		return
	}

	var record *access.Record
	if req.Record != nil {
		record = &access.Record{
			ID:        req.Record.ID,
			Type:      req.Record.Type,
			CreatedBy: req.Record.CreatedBy,
			Fields:    req.Record.Fields,
		}
	}

	decision := h.s.evaluator.Evaluate(access.Check{
		User:     *target,
		Action:   rank.Action(req.Action),
		Resource: req.Resource,
		SiteID:   req.SiteID,
		Record:   record,
	})

	status := audit.EventStatusSuccess
	eventType := audit.EventTypeAuthzPermissionCheck
	if !decision.Allowed {
		status = audit.EventStatusDenied
		eventType = audit.EventTypeAuthzAccessDenied
	}
	h.s.record(r.Context(), audit.Event{
		EventType:    eventType,
		Status:       status,
		UserID:       target.ID,
		SiteID:       req.SiteID,
		ResourceType: req.Resource,
		Message:      req.Action + " " + req.Resource,
		RequestID:    requestID(r),
	})

	httputil.WriteSuccess(w, AccessCheckResponse{
		Allowed:             decision.Allowed,
		Reason:              decision.Reason,
		MatchedCapabilities: decision.MatchedCapabilities,
		CheckedAt:           decision.CheckedAt,
	})
}

// linkCheck handles POST /access/link-check
func (h *AccessHandlers) linkCheck(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	var req LinkCheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.OwnerID == "" {
		httputil.WriteBadRequest(w, "owner_id is required")
		return
	}

	actor, ok := h.subject(w, r, &sess.User, req.ActorID)
	if !ok {
		return
	}

	owner, err := h.s.directory.GetUser(r.Context(), req.OwnerID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if owner == nil {
		httputil.WriteNotFoundError(w, "owner not found")
		return
	}

	allowed := h.s.evaluator.CanLinkRecord(*actor, *owner, req.SiteID)

	status := audit.EventStatusSuccess
	if !allowed {
		status = audit.EventStatusDenied
	}
	h.s.record(r.Context(), audit.Event{
		EventType:    audit.EventTypeAuthzLinkCheck,
		Status:       status,
		UserID:       actor.ID,
		SiteID:       req.SiteID,
		ResourceType: "user",
		ResourceID:   owner.ID,
		RequestID:    requestID(r),
	})

	httputil.WriteSuccess(w, map[string]bool{"allowed": allowed})
}

// moduleAccess handles GET /access/modules/{module}
func (h *AccessHandlers) moduleAccess(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	moduleType, ok := httputil.ParsePathStringOrError(w, r, "module")
	if !ok {
		return
	}
	siteID := r.URL.Query().Get("site_id")

	allowed := h.s.evaluator.CanAccessModule(sess.User, moduleType, siteID)

	httputil.WriteSuccess(w, map[string]interface{}{
		"module":  moduleType,
		"allowed": allowed,
	})
}
