// Package view implements view simulation: letting an administrator render
// the application as a lower-privilege role without changing their real
// permissions, plus the "test mode" that locks the rendered view and records
// an activity log.
package view

import (
	"sync"
	"time"

	"github.com/coverdesk/coverdesk/pkg/identity"
)

// Landing routes per coarse role.
const (
	RouteDashboard       = "/dashboard"
	RouteExternalProfile = "/dashboard/external/profile"
)

// LandingRoute returns the canonical landing route for a view.
func LandingRoute(role identity.Role) string {
	if role == identity.RoleExternal {
		return RouteExternalProfile
	}
	return RouteDashboard
}

// Navigator is the fire-and-forget navigation collaborator used for landing
// redirects after a view change.
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// NavigateTo implements Navigator.
func (f NavigatorFunc) NavigateTo(path string) { f(path) }

// Mode is the currently rendered view: a coarse role plus whether it
// diverges from the user's actual role.
type Mode struct {
	Role      identity.Role `json:"role"`
	Simulated bool          `json:"simulated"`
}

// LogEntry is one test-mode activity record.
type LogEntry struct {
	At     time.Time     `json:"at"`
	Event  string        `json:"event"`
	Role   identity.Role `json:"role,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// Simulator holds the (actual role, view mode, test mode) state machine.
//
// Invariant: whenever the actual role is not admin, or test mode is active,
// the view mode equals the actual role. Only a non-test-mode administrator
// may hold a diverging view.
type Simulator struct {
	mu sync.Mutex

	actual   identity.Role
	view     identity.Role
	testMode bool
	logs     []LogEntry

	nav   Navigator
	clock func() time.Time

	// onChange, when set, mirrors the view state outward (e.g. into the
	// session store's convenience keys).
	onChange func(view identity.Role, testMode bool)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithNavigator sets the navigation collaborator.
func WithNavigator(nav Navigator) Option {
	return func(s *Simulator) { s.nav = nav }
}

// WithOnChange registers a mirror for view-state changes.
func WithOnChange(fn func(view identity.Role, testMode bool)) Option {
	return func(s *Simulator) { s.onChange = fn }
}

// WithClock overrides the time source for log entries.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.clock = now }
}

// NewSimulator creates a simulator for a user whose actual coarse role is
// actual. The initial view equals the actual role.
func NewSimulator(actual identity.Role, opts ...Option) *Simulator {
	s := &Simulator{
		actual: actual,
		view:   actual,
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActualRole returns the user's real coarse role.
func (s *Simulator) ActualRole() identity.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actual
}

// Mode returns the currently rendered view.
func (s *Simulator) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Mode{Role: s.view, Simulated: s.view != s.actual}
}

// TestModeActive reports whether test mode is on.
func (s *Simulator) TestModeActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.testMode
}

// Logs returns a copy of the test-mode activity log.
func (s *Simulator) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// SetActualRole records an administrative change of the user's real role and
// recomputes the view: with test mode active, or for any non-admin role, the
// view is forced to the new role.
func (s *Simulator) SetActualRole(role identity.Role) {
	s.mu.Lock()
	s.actual = role
	forced := s.testMode || role != identity.RoleAdmin
	changed := false
	if forced && s.view != role {
		s.view = role
		changed = true
	}
	if s.testMode {
		s.appendLog("role_changed", role, "")
	}
	s.mu.Unlock()

	if changed {
		s.viewChanged(role)
	}
}

// SetTestMode toggles test mode. Activation locks the view to the actual
// role and starts the activity log; deactivation clears the log.
func (s *Simulator) SetTestMode(active bool) {
	s.mu.Lock()
	if s.testMode == active {
		s.mu.Unlock()
		return
	}
	s.testMode = active

	var changedTo identity.Role
	changed := false
	if active {
		s.logs = nil
		s.appendLog("test_mode_on", s.actual, "")
		if s.view != s.actual {
			s.view = s.actual
			changedTo = s.actual
			changed = true
		}
	} else {
		s.logs = nil
	}
	view := s.view
	testMode := s.testMode
	s.mu.Unlock()

	if changed {
		s.viewChanged(changedTo)
	} else if s.onChange != nil {
		s.onChange(view, testMode)
	}
}

// SetViewMode switches the rendered view. It is accepted only for a
// non-test-mode administrator; for everyone else it is a silent no-op, so a
// forced view can never be escaped through this API. It reports whether the
// view changed.
func (s *Simulator) SetViewMode(role identity.Role) bool {
	if !role.Valid() {
		return false
	}

	s.mu.Lock()
	if s.actual != identity.RoleAdmin || s.testMode {
		s.mu.Unlock()
		return false
	}
	if s.view == role {
		s.mu.Unlock()
		return false
	}
	s.view = role
	s.mu.Unlock()

	s.viewChanged(role)
	return true
}

// Log appends a test-mode activity entry. Outside test mode it is a no-op.
func (s *Simulator) Log(event, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.testMode {
		return
	}
	s.appendLog(event, s.view, detail)
}

// appendLog requires s.mu held.
func (s *Simulator) appendLog(event string, role identity.Role, detail string) {
	s.logs = append(s.logs, LogEntry{At: s.clock(), Event: event, Role: role, Detail: detail})
}

// viewChanged runs the side effects of a successful view change: mirror the
// state and navigate to the landing route for the new view.
func (s *Simulator) viewChanged(role identity.Role) {
	if s.onChange != nil {
		s.mu.Lock()
		view, testMode := s.view, s.testMode
		s.mu.Unlock()
		s.onChange(view, testMode)
	}
	if s.nav != nil {
		s.nav.NavigateTo(LandingRoute(role))
	}
}
