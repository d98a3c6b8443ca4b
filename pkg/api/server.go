package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coverdesk/coverdesk/pkg/access"
	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/httputil"
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/observability"
	"github.com/coverdesk/coverdesk/pkg/rank"
	"github.com/coverdesk/coverdesk/pkg/session"
	"github.com/coverdesk/coverdesk/pkg/view"
)

// Server wires the access control surface into an HTTP API.
type Server struct {
	router    *mux.Router
	store     *session.Store
	directory *session.Directory
	evaluator *access.Evaluator
	registry  *rank.Registry
	simulator *view.Simulator
	extender  *session.ActivityExtender
	audit     audit.Logger
	logger    *observability.Logger

	authHandlers   *AuthHandlers
	rankHandlers   *RankHandlers
	accessHandlers *AccessHandlers
	viewHandlers   *ViewHandlers
	auditHandlers  *AuditHandlers
}

// NewServer creates a new API server. The audit logger may be nil, in which
// case nothing is recorded.
func NewServer(store *session.Store, directory *session.Directory, evaluator *access.Evaluator, registry *rank.Registry, auditLog audit.Logger, logger *observability.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		store:     store,
		directory: directory,
		evaluator: evaluator,
		registry:  registry,
		extender:  session.NewActivityExtender(store, session.SystemClock{}, 0),
		audit:     auditLog,
		logger:    logger,
	}

	// View state follows the session: changes are written back to the
	// store so they survive a restart the way the session itself does.
	s.simulator = view.NewSimulator(identity.RoleExternal,
		view.WithOnChange(func(role identity.Role, testMode bool) {
			if err := store.SetViewState(context.Background(), string(role), testMode); err != nil {
				logger.WithError(err).Warn("persisting view state")
			}
		}),
	)

	s.authHandlers = NewAuthHandlers(s)
	s.rankHandlers = NewRankHandlers(s)
	s.accessHandlers = NewAccessHandlers(s)
	s.viewHandlers = NewViewHandlers(s)
	s.auditHandlers = NewAuditHandlers(s)

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	s.authHandlers.RegisterRoutes(api)
	s.rankHandlers.RegisterRoutes(api)
	s.accessHandlers.RegisterRoutes(api)
	s.viewHandlers.RegisterRoutes(api)
	s.auditHandlers.RegisterRoutes(api)
}

// Router returns the bare route table without middleware.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped with the standard middleware chain.
func (s *Server) Handler() http.Handler {
	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.RecoveryMiddleware(s.logger),
		httputil.LoggingMiddleware(s.logger),
	)(s.router)
}

// Simulator exposes the view simulator for route-level consumers.
func (s *Server) Simulator() *view.Simulator {
	return s.simulator
}

// record forwards an event to the audit log when one is configured.
func (s *Server) record(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, event)
}

// currentSession resolves the caller's session, writing a 401 when there is
// none. The bool reports whether the caller may proceed.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.GetSession(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	if sess == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil, false
	}

	// Authenticated traffic counts as user activity; the extender
	// throttles so request bursts extend at most once per window.
	if _, err := s.extender.Touch(r.Context()); err != nil {
		s.logger.WithError(err).Warn("session activity extension")
	}

	return sess, true
}

// requireAdmin resolves the caller's session and verifies the actual (not
// simulated) role is administrator.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return nil, false
	}
	if identity.CoarseRole(s.registry, sess.User, "") != identity.RoleAdmin {
		s.record(r.Context(), audit.Event{
			EventType: audit.EventTypeAuthzAccessDenied,
			Status:    audit.EventStatusDenied,
			UserID:    sess.User.ID,
			Email:     sess.User.Email,
			Message:   "administrator role required",
			RequestID: requestID(r),
		})
		httputil.WriteForbidden(w, "administrator role required")
		return nil, false
	}
	return sess, true
}
