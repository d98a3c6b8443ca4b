package identity

import (
	"time"

	"github.com/coverdesk/coverdesk/pkg/rank"
)

// AssignmentState models the lifecycle of a rank assignment. Assignments are
// never physically removed; revocation preserves the audit trail.
type AssignmentState string

const (
	AssignmentActive  AssignmentState = "active"
	AssignmentRevoked AssignmentState = "revoked"
)

// RankAssignment binds a user to a rank within a site (tenant).
type RankAssignment struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	RankID     string          `json:"rank_id"`
	SiteID     string          `json:"site_id"`
	State      AssignmentState `json:"state"`
	AssignedAt time.Time       `json:"assigned_at"`
	AssignedBy string          `json:"assigned_by,omitempty"`
	RevokedAt  *time.Time      `json:"revoked_at,omitempty"`
	RevokedBy  string          `json:"revoked_by,omitempty"`
}

// IsActive reports whether the assignment still counts toward privilege.
func (a RankAssignment) IsActive() bool {
	return a.State == AssignmentActive
}

// User is the authenticated identity together with its rank assignments.
type User struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	IsActive  bool             `json:"is_active"`
	Ranks     []RankAssignment `json:"ranks"`
	CreatedAt time.Time        `json:"created_at"`
}

// Catalog resolves rank IDs to rank definitions. Unresolved IDs mean the
// assignment grants nothing (fail closed).
type Catalog interface {
	Lookup(rankID string) (rank.Rank, bool)
}

// SystemCatalog resolves ranks against the static system catalog.
type SystemCatalog struct{}

// Lookup implements Catalog.
func (SystemCatalog) Lookup(rankID string) (rank.Rank, bool) {
	return rank.SystemRank(rankID)
}
