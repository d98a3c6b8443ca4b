package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLogger_RecordAssignsIDsAndTimestamps(t *testing.T) {
	l := NewMemoryLogger(10)
	ctx := context.Background()

	l.Record(ctx, Event{EventType: EventTypeAuthLogin, Status: EventStatusSuccess, UserID: "u-1"})
	l.Record(ctx, Event{EventType: EventTypeAuthzAccessDenied, Status: EventStatusDenied, UserID: "u-1"})

	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, int64(2), events[1].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestMemoryLogger_RingBound(t *testing.T) {
	l := NewMemoryLogger(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Record(ctx, Event{EventType: EventTypeViewActivity})
	}

	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, int64(3), events[0].ID, "oldest events are dropped first")
	assert.Equal(t, int64(5), events[2].ID)
}

func TestMemoryLogger_EventsByType(t *testing.T) {
	l := NewMemoryLogger(10)
	ctx := context.Background()

	l.Record(ctx, Event{EventType: EventTypeAuthLogin})
	l.Record(ctx, Event{EventType: EventTypeAuthzLinkCheck, Status: EventStatusDenied, UserID: "u-2"})
	l.Record(ctx, Event{EventType: EventTypeAuthLogout})

	got := l.EventsByType(EventTypeAuthLogin, EventTypeAuthLogout)
	require.Len(t, got, 2)
}

func TestMemoryLogger_Clear(t *testing.T) {
	l := NewMemoryLogger(10)
	l.Record(context.Background(), Event{EventType: EventTypeAuthLogin})
	l.Clear()
	assert.Empty(t, l.Events())
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	e := &Event{
		ID:        7,
		EventType: EventTypeRankAssign,
		Status:    EventStatusSuccess,
		UserID:    "u-admin",
		Metadata:  map[string]interface{}{"rank_id": "rank-agent"},
	}

	data, err := e.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, e.EventType, parsed.EventType)
	assert.Equal(t, e.UserID, parsed.UserID)
}

func TestLogEmitter_DelegatesHistory(t *testing.T) {
	mem := NewMemoryLogger(10)
	emitter := NewLogEmitter(mem, nil)

	emitter.Record(context.Background(), Event{EventType: EventTypeAuthLogin})
	emitter.Record(context.Background(), Event{EventType: EventTypeAuthLogout})

	assert.Len(t, emitter.Events(), 2)
	assert.Len(t, emitter.EventsByType(EventTypeAuthLogin), 1)
}
