package access

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// Check describes a single authorization question.
type Check struct {
	User     identity.User
	Action   rank.Action
	Resource string
	SiteID   string // empty means all sites
	Record   *Record
}

// Decision is the outcome of an evaluated check.
type Decision struct {
	Allowed             bool      `json:"allowed"`
	Reason              string    `json:"reason,omitempty"`
	MatchedCapabilities []string  `json:"matched_capabilities,omitempty"`
	CheckedAt           time.Time `json:"checked_at"`
}

const defaultCacheSize = 4096

// Evaluator answers permission, module access and link questions against the
// rank catalog. A zero cacheTTL disables the decision cache.
type Evaluator struct {
	catalog identity.Catalog
	cache   *expirable.LRU[string, Decision]
	metrics *Metrics
}

// NewEvaluator creates an evaluator over the given catalog. Metrics may be
// nil.
func NewEvaluator(catalog identity.Catalog, cacheTTL time.Duration, metrics *Metrics) *Evaluator {
	e := &Evaluator{
		catalog: catalog,
		metrics: metrics,
	}
	if cacheTTL > 0 {
		e.cache = expirable.NewLRU[string, Decision](defaultCacheSize, nil, cacheTTL)
	}
	return e
}

// HasPermission reports whether the user may perform action on resource,
// optionally scoped to one site.
func (e *Evaluator) HasPermission(u identity.User, action rank.Action, resource, siteID string) bool {
	return e.Evaluate(Check{User: u, Action: action, Resource: resource, SiteID: siteID}).Allowed
}

// HasPermissionOn is HasPermission with the target record supplied, so
// ownership conditions can be established.
func (e *Evaluator) HasPermissionOn(u identity.User, action rank.Action, resource, siteID string, record *Record) bool {
	return e.Evaluate(Check{User: u, Action: action, Resource: resource, SiteID: siteID, Record: record}).Allowed
}

// Evaluate runs the full permission check and returns the decision with its
// reasoning. A user whose highest rank is level 0 is allowed unconditionally;
// otherwise at least one permission reachable through an active assignment
// must match the action and resource and have all its conditions hold.
func (e *Evaluator) Evaluate(check Check) Decision {
	// Record-bound checks are not cached: record identity is not part of
	// the cache key.
	cacheable := e.cache != nil && check.Record == nil
	key := decisionKey(check)
	if cacheable {
		if d, ok := e.cache.Get(key); ok {
			e.metrics.observeCacheHit()
			return d
		}
	}

	d := e.evaluate(check)
	e.metrics.observe("permission", d.Allowed)
	if cacheable {
		e.cache.Add(key, d)
	}
	return d
}

func (e *Evaluator) evaluate(check Check) Decision {
	d := Decision{CheckedAt: time.Now().UTC()}

	if _, highest, ok := identity.HighestAssignment(e.catalog, check.User, check.SiteID); ok && highest.IsAdmin() {
		d.Allowed = true
		d.Reason = "administrator bypass"
		return d
	}

	for _, a := range identity.ActiveAssignments(check.User, check.SiteID) {
		r, ok := e.catalog.Lookup(a.RankID)
		if !ok {
			continue
		}
		for _, cap := range r.Capabilities {
			for _, p := range cap.Permissions {
				if !p.Matches(check.Action, check.Resource) {
					continue
				}
				if !EvaluateConditions(p.Conditions, check.User, check.Record) {
					continue
				}
				d.Allowed = true
				d.MatchedCapabilities = append(d.MatchedCapabilities, cap.Name)
			}
		}
	}

	if d.Allowed {
		d.Reason = "granted by: " + strings.Join(d.MatchedCapabilities, ", ")
	} else {
		d.Reason = "no matching permission"
	}
	return d
}

// CanAccessModule reports whether any capability among the user's active
// assignments lists the module type (or the wildcard). Administrators bypass
// the gate.
func (e *Evaluator) CanAccessModule(u identity.User, moduleType, siteID string) bool {
	allowed := e.canAccessModule(u, moduleType, siteID)
	e.metrics.observe("module", allowed)
	return allowed
}

func (e *Evaluator) canAccessModule(u identity.User, moduleType, siteID string) bool {
	if _, highest, ok := identity.HighestAssignment(e.catalog, u, siteID); ok && highest.IsAdmin() {
		return true
	}
	for _, a := range identity.ActiveAssignments(u, siteID) {
		r, ok := e.catalog.Lookup(a.RankID)
		if !ok {
			continue
		}
		for _, cap := range r.Capabilities {
			if cap.GrantsModule(moduleType) {
				return true
			}
		}
	}
	return false
}

// Invalidate drops cached decisions for one user, e.g. after a rank
// assignment changes.
func (e *Evaluator) Invalidate(userID string) {
	if e.cache == nil {
		return
	}
	prefix := userID + "\x00"
	for _, k := range e.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			e.cache.Remove(k)
		}
	}
}

func decisionKey(check Check) string {
	return check.User.ID + "\x00" + string(check.Action) + "\x00" + check.Resource + "\x00" + check.SiteID
}
