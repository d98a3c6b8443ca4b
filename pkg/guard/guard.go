// Package guard implements the route guard: HTTP middleware that gates a
// navigable target on the session's effective role, redirecting instead of
// erroring when access is denied.
package guard

import (
	"net/http"

	"github.com/coverdesk/coverdesk/pkg/contextkeys"
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/session"
	"github.com/coverdesk/coverdesk/pkg/view"
)

// Login routes per area.
const (
	RouteLogin         = "/login"
	RouteExternalLogin = "/external/login"
)

// EffectiveRoleFunc resolves the role a request should be gated on. The
// default consults the view-mode simulator, so simulated views are honored;
// the raw actual role is never used directly.
type EffectiveRoleFunc func(sess *session.Session) identity.Role

// Guard gates routes on session presence and effective role.
type Guard struct {
	store         *session.Store
	effectiveRole EffectiveRoleFunc
}

// NewGuard creates a route guard over the session store. effectiveRole must
// not be nil.
func NewGuard(store *session.Store, effectiveRole EffectiveRoleFunc) *Guard {
	return &Guard{store: store, effectiveRole: effectiveRole}
}

// Options configures a guarded target.
type Options struct {
	// RequiredRoles is the set of effective roles allowed through. Empty
	// means any authenticated session.
	RequiredRoles []identity.Role
	// RedirectPath overrides the default landing-route redirect on a role
	// mismatch.
	RedirectPath string
	// AllowGuest lets unauthenticated requests through.
	AllowGuest bool
}

// Middleware wraps a handler with the guard. The decision ladder: resolve
// the session (failure to resolve is "no session", not an error) → redirect
// unauthenticated requests to the area's login route unless guests are
// allowed → compute the effective role → on a role mismatch redirect to
// RedirectPath or the effective role's landing route → otherwise serve.
func (g *Guard) Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := g.store.GetSession(r.Context())
			if err != nil {
				// Storage faults degrade to "no session".
				sess = nil
			}

			if sess == nil {
				if opts.AllowGuest {
					next.ServeHTTP(w, r)
					return
				}
				http.Redirect(w, r, loginRoute(opts.RequiredRoles), http.StatusSeeOther)
				return
			}

			role := g.effectiveRole(sess)

			if len(opts.RequiredRoles) > 0 && !containsRole(opts.RequiredRoles, role) {
				target := opts.RedirectPath
				if target == "" {
					target = view.LandingRoute(role)
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			ctx := contextkeys.WithSession(r.Context(), sess)
			ctx = contextkeys.WithViewRole(ctx, string(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loginRoute picks the login route for the area the target belongs to:
// targets reserved for external users send visitors to the external login.
func loginRoute(required []identity.Role) string {
	if len(required) == 1 && required[0] == identity.RoleExternal {
		return RouteExternalLogin
	}
	return RouteLogin
}

func containsRole(roles []identity.Role, role identity.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// SessionFromRequest extracts the session placed in the context by the
// guard, or nil.
func SessionFromRequest(r *http.Request) *session.Session {
	v := r.Context().Value(contextkeys.SessionKey)
	if v == nil {
		return nil
	}
	sess, ok := v.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}
