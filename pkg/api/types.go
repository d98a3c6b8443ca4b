package api

import (
	"net/http"
	"time"

	"github.com/coverdesk/coverdesk/pkg/contextkeys"
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/view"
)

// LoginRequest is the POST /auth/login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is the session state returned to the client. The token is
// only present immediately after login.
type SessionResponse struct {
	User         identity.User `json:"user"`
	Role         identity.Role `json:"role"`
	Token        string        `json:"token,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
	LastActivity time.Time     `json:"last_activity"`
}

// CreateRankRequest is the POST /ranks payload.
type CreateRankRequest struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// AssignRankRequest is the POST /users/{id}/ranks payload.
type AssignRankRequest struct {
	RankID string `json:"rank_id"`
	SiteID string `json:"site_id,omitempty"`
}

// RecordPayload is the optional target record of an access check.
type RecordPayload struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	CreatedBy string            `json:"created_by"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// AccessCheckRequest is the POST /access/check payload. The subject defaults
// to the calling session's user when UserID is empty.
type AccessCheckRequest struct {
	UserID   string         `json:"user_id,omitempty"`
	Action   string         `json:"action"`
	Resource string         `json:"resource"`
	SiteID   string         `json:"site_id,omitempty"`
	Record   *RecordPayload `json:"record,omitempty"`
}

// AccessCheckResponse reports the evaluator's decision.
type AccessCheckResponse struct {
	Allowed             bool      `json:"allowed"`
	Reason              string    `json:"reason,omitempty"`
	MatchedCapabilities []string  `json:"matched_capabilities,omitempty"`
	CheckedAt           time.Time `json:"checked_at"`
}

// LinkCheckRequest is the POST /access/link-check payload. The actor defaults
// to the calling session's user when ActorID is empty.
type LinkCheckRequest struct {
	ActorID string `json:"actor_id,omitempty"`
	OwnerID string `json:"owner_id"`
	SiteID  string `json:"site_id,omitempty"`
}

// ViewStateResponse is the simulator state returned to the client.
type ViewStateResponse struct {
	ActualRole identity.Role   `json:"actual_role"`
	Mode       view.Mode       `json:"mode"`
	TestMode   bool            `json:"test_mode"`
	Logs       []view.LogEntry `json:"logs,omitempty"`
}

// SetViewModeRequest is the PUT /view/mode payload.
type SetViewModeRequest struct {
	Role string `json:"role"`
}

// SetTestModeRequest is the PUT /view/test-mode payload.
type SetTestModeRequest struct {
	Active bool `json:"active"`
}

// LogActivityRequest is the POST /view/activity payload.
type LogActivityRequest struct {
	Event  string `json:"event"`
	Detail string `json:"detail,omitempty"`
}

func requestID(r *http.Request) string {
	return contextkeys.GetRequestID(r.Context())
}
