package rank

import (
	"time"
)

// Wildcard grants a permission or module list across every resource.
const Wildcard = "*"

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionLink   Action = "link"
	ActionUnlink Action = "unlink"
	ActionCreate Action = "create"
	ActionModify Action = "modify"
)

// Operator represents a comparison operator used in permission conditions
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
)

// CurrentUserSentinel is the condition value that binds a condition to the
// acting user's identity at evaluation time.
const CurrentUserSentinel = "current_user"

// Condition restricts a permission to records matching a field comparison.
// Conditions are evaluated against the target record, with the sentinel
// value resolved to the acting user.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Permission represents a single grant: an action on a resource, optionally
// narrowed by conditions. Resource may be the wildcard.
type Permission struct {
	ID         string      `json:"id"`
	Action     Action      `json:"action"`
	Resource   string      `json:"resource"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// String returns a string representation of the permission
func (p Permission) String() string {
	return string(p.Action) + ":" + p.Resource
}

// Matches reports whether this permission covers the requested action and
// resource. Conditions are not checked here; see access.EvaluateConditions.
func (p Permission) Matches(action Action, resource string) bool {
	if p.Action != action {
		return false
	}
	return p.Resource == Wildcard || p.Resource == resource
}

// Capability is a named, reusable bundle of permissions plus the module
// types it exposes. Modules containing the wildcard grants every module.
type Capability struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	Modules     []string     `json:"modules"`
}

// GrantsModule reports whether the capability exposes the given module type.
func (c Capability) GrantsModule(moduleType string) bool {
	for _, m := range c.Modules {
		if m == Wildcard || m == moduleType {
			return true
		}
	}
	return false
}

// Rank represents a hierarchical privilege tier. Level 0 is reserved for the
// unrestricted administrator; a numerically lower level means higher
// privilege.
type Rank struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Level        int          `json:"level"`
	Description  string       `json:"description,omitempty"`
	Capabilities []Capability `json:"capabilities"`
	Color        string       `json:"color,omitempty"`
	IsSystem     bool         `json:"is_system"`
	CreatedAt    time.Time    `json:"created_at"`
}

// AdminLevel is the level reserved for the unrestricted administrator.
const AdminLevel = 0

// IsAdmin reports whether the rank is the unrestricted administrator tier.
func (r Rank) IsAdmin() bool {
	return r.Level == AdminLevel
}

// Compare orders ranks by privilege: negative when r outranks other
// (numerically lower level), zero on equal level, positive otherwise.
func (r Rank) Compare(other Rank) int {
	switch {
	case r.Level < other.Level:
		return -1
	case r.Level > other.Level:
		return 1
	default:
		return 0
	}
}
