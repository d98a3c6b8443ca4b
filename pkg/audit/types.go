// Package audit records security-relevant events: logins, authorization
// decisions, rank changes and view simulation. Events feed the test-mode
// activity log and operator debugging.
package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLogout      EventType = "auth.logout"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"

	// Authorization events
	EventTypeAuthzPermissionCheck EventType = "authz.permission_check"
	EventTypeAuthzAccessDenied    EventType = "authz.access_denied"
	EventTypeAuthzLinkCheck       EventType = "authz.link_check"

	// Rank administration events
	EventTypeRankAssign EventType = "rank.assign"
	EventTypeRankRevoke EventType = "rank.revoke"
	EventTypeRankCreate EventType = "rank.create"

	// View simulation events
	EventTypeViewChange   EventType = "view.change"
	EventTypeTestModeOn   EventType = "view.test_mode_on"
	EventTypeTestModeOff  EventType = "view.test_mode_off"
	EventTypeViewActivity EventType = "view.activity"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event represents a single audit log entry
type Event struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	SiteID string `json:"site_id,omitempty"`

	// Subject
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON serializes the event.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an event.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
