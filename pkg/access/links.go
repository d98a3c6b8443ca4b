package access

import (
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// LinkResource is the resource name carried by the elevated permission that
// lets a lower-privilege user act on a superior's records.
const LinkResource = "modules"

// CanLinkRecord decides whether the acting user may attach or detach a
// module record belonging to the owner, based on relative rank:
//
//   - either side without a resolvable rank: deny
//   - acting administrator: allow
//   - equal levels: allow (peer-to-peer)
//   - actor outranks owner: allow (superior over subordinate)
//   - actor below owner: deny unless an explicit link grant exists
func (e *Evaluator) CanLinkRecord(actor, owner identity.User, siteID string) bool {
	allowed := e.canLinkRecord(actor, owner, siteID)
	e.metrics.observe("link", allowed)
	return allowed
}

func (e *Evaluator) canLinkRecord(actor, owner identity.User, siteID string) bool {
	_, actorRank, ok := identity.HighestAssignment(e.catalog, actor, siteID)
	if !ok {
		return false
	}
	_, ownerRank, ok := identity.HighestAssignment(e.catalog, owner, siteID)
	if !ok {
		return false
	}

	switch {
	case actorRank.IsAdmin():
		return true
	case actorRank.Level <= ownerRank.Level:
		return true
	default:
		// Acting upward needs the elevated grant.
		return e.Evaluate(Check{User: actor, Action: rank.ActionLink, Resource: LinkResource, SiteID: siteID}).Allowed
	}
}

// CanViewElement reports whether the user may see a UI element. Beyond the
// administrator bypass this is an allow-all baseline; per-element visibility
// rules hook in here.
func (e *Evaluator) CanViewElement(u identity.User, element, siteID string) bool {
	if _, highest, ok := identity.HighestAssignment(e.catalog, u, siteID); ok && highest.IsAdmin() {
		return true
	}
	_ = element
	return true
}
