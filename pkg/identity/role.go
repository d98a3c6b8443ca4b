package identity

import (
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// Role is the coarse projection of a user's highest rank, used by routing
// and view simulation.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleInternal Role = "internal"
	RoleExternal Role = "external"
)

// internalMaxLevel is the highest (least privileged) level still considered
// an internal staff role.
const internalMaxLevel = 3

// Valid reports whether the role is one of the three known coarse roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInternal, RoleExternal:
		return true
	}
	return false
}

// RoleForLevel maps a rank level to its coarse role. The mapping is total:
// level 0 is admin, levels 1 through 3 are internal, everything else is
// external.
func RoleForLevel(level int) Role {
	switch {
	case level == rank.AdminLevel:
		return RoleAdmin
	case level >= 1 && level <= internalMaxLevel:
		return RoleInternal
	default:
		return RoleExternal
	}
}

// ActiveAssignments returns the user's active assignments, optionally scoped
// to one site. An empty siteID means all sites.
func ActiveAssignments(u User, siteID string) []RankAssignment {
	var out []RankAssignment
	for _, a := range u.Ranks {
		if !a.IsActive() {
			continue
		}
		if siteID != "" && a.SiteID != siteID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// HighestAssignment resolves the user's highest-privilege assignment: the
// active assignment whose rank has the numerically lowest level. Ties keep
// the first assignment encountered, so repeated calls over the same user are
// stable. Assignments whose rank ID does not resolve grant nothing and are
// skipped. The second return is false when no assignment resolves.
func HighestAssignment(catalog Catalog, u User, siteID string) (RankAssignment, rank.Rank, bool) {
	var (
		best     RankAssignment
		bestRank rank.Rank
		found    bool
	)
	for _, a := range ActiveAssignments(u, siteID) {
		r, ok := catalog.Lookup(a.RankID)
		if !ok {
			continue
		}
		if !found || r.Level < bestRank.Level {
			best, bestRank, found = a, r, true
		}
	}
	return best, bestRank, found
}

// CoarseRole derives the user's coarse role from the highest resolvable
// assignment. A user with no active, resolvable assignments is external.
func CoarseRole(catalog Catalog, u User, siteID string) Role {
	_, r, ok := HighestAssignment(catalog, u, siteID)
	if !ok {
		return RoleExternal
	}
	return RoleForLevel(r.Level)
}
