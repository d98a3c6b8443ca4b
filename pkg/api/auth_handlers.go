package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/httputil"
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/session"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	s *Server
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(s *Server) *AuthHandlers {
	return &AuthHandlers{s: s}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.login).Methods("POST")
	router.HandleFunc("/auth/logout", h.logout).Methods("POST")
	router.HandleFunc("/auth/session", h.getSession).Methods("GET")
	router.HandleFunc("/auth/session/extend", h.extendSession).Methods("POST")
}

// login handles POST /auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	sess, err := h.s.store.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		h.s.record(r.Context(), audit.Event{
			EventType: audit.EventTypeAuthLoginFailed,
			Status:    audit.EventStatusDenied,
			Email:     req.Email,
			RequestID: requestID(r),
		})
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	role := identity.CoarseRole(h.s.registry, sess.User, "")

	// A fresh login always starts in the real role with test mode off.
	h.s.simulator.SetTestMode(false)
	h.s.simulator.SetActualRole(role)

	h.s.record(r.Context(), audit.Event{
		EventType: audit.EventTypeAuthLogin,
		Status:    audit.EventStatusSuccess,
		UserID:    sess.User.ID,
		Email:     sess.User.Email,
		RequestID: requestID(r),
	})

	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		User:         sess.User,
		Role:         role,
		Token:        sess.Token,
		CreatedAt:    sess.CreatedAt,
		ExpiresAt:    sess.ExpiresAt,
		LastActivity: sess.LastActivity,
	})
}

// logout handles POST /auth/logout
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.s.store.GetSession(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if err := h.s.store.Logout(r.Context()); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	h.s.simulator.SetTestMode(false)
	h.s.simulator.SetActualRole(identity.RoleExternal)

	if sess != nil {
		h.s.record(r.Context(), audit.Event{
			EventType: audit.EventTypeAuthLogout,
			Status:    audit.EventStatusSuccess,
			UserID:    sess.User.ID,
			Email:     sess.User.Email,
			RequestID: requestID(r),
		})
	}

	httputil.WriteNoContent(w)
}

// getSession handles GET /auth/session
func (h *AuthHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	httputil.WriteSuccess(w, SessionResponse{
		User:         sess.User,
		Role:         identity.CoarseRole(h.s.registry, sess.User, ""),
		CreatedAt:    sess.CreatedAt,
		ExpiresAt:    sess.ExpiresAt,
		LastActivity: sess.LastActivity,
	})
}

// extendSession handles POST /auth/session/extend
func (h *AuthHandlers) extendSession(w http.ResponseWriter, r *http.Request) {
	extended, err := h.s.store.ExtendSession(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !extended {
		httputil.WriteUnauthorized(w, "no session to extend")
		return
	}

	sess, ok := h.s.currentSession(w, r)
	if !ok {
		return
	}

	httputil.WriteSuccess(w, SessionResponse{
		User:         sess.User,
		Role:         identity.CoarseRole(h.s.registry, sess.User, ""),
		CreatedAt:    sess.CreatedAt,
		ExpiresAt:    sess.ExpiresAt,
		LastActivity: sess.LastActivity,
	})
}
