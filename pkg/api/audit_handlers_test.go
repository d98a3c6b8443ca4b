package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverdesk/coverdesk/pkg/audit"
)

func TestListAuditEventsRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "agent@coverdesk.test", "agent123")

	rec := ts.do(t, http.MethodGet, "/api/v1/audit/events", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAuditEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "admin@coverdesk.test", "admin123")

	rec := ts.do(t, http.MethodGet, "/api/v1/audit/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events := decode[[]audit.Event](t, rec)
	require.NotEmpty(t, events)
	assert.Equal(t, audit.EventTypeAuthLogin, events[0].EventType)
}

func TestListAuditEventsFilteredByType(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "admin@coverdesk.test", "admin123")
	ts.login(t, "admin@coverdesk.test", "admin123")

	rec := ts.do(t, http.MethodGet, "/api/v1/audit/events?type=auth.login", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events := decode[[]audit.Event](t, rec)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, audit.EventTypeAuthLogin, e.EventType)
	}
}
