package audit

import (
	"context"
	"sync"
	"time"

	"github.com/coverdesk/coverdesk/pkg/observability"
)

// Logger records audit events. Recording must never fail the operation
// being audited.
type Logger interface {
	Record(ctx context.Context, event Event)
}

// MemoryLogger keeps the most recent events in a bounded ring, newest last.
// It backs the test-mode activity view and tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
	nextID int64
	limit  int
	clock  func() time.Time
}

// NewMemoryLogger creates a ring logger holding at most limit events.
func NewMemoryLogger(limit int) *MemoryLogger {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryLogger{
		limit: limit,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Record implements Logger.
func (l *MemoryLogger) Record(_ context.Context, event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	event.ID = l.nextID
	if event.Timestamp.IsZero() {
		event.Timestamp = l.clock()
	}
	l.events = append(l.events, event)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
}

// Events returns a copy of the retained events, oldest first.
func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// EventsByType filters the retained events.
func (l *MemoryLogger) EventsByType(types ...EventType) []Event {
	want := make(map[EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Event
	for _, e := range l.Events() {
		if want[e.EventType] {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops every retained event.
func (l *MemoryLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// LogEmitter forwards every event to the structured application log in
// addition to another logger.
type LogEmitter struct {
	next Logger
	log  *observability.Logger
}

// NewLogEmitter wraps next so events also reach the application log.
func NewLogEmitter(next Logger, log *observability.Logger) *LogEmitter {
	return &LogEmitter{next: next, log: log}
}

// Record implements Logger.
func (e *LogEmitter) Record(ctx context.Context, event Event) {
	if e.next != nil {
		e.next.Record(ctx, event)
	}
	if e.log != nil {
		e.log.WithFields(map[string]interface{}{
			"event_type": string(event.EventType),
			"status":     string(event.Status),
			"user_id":    event.UserID,
			"resource":   event.ResourceID,
		}).Info(string(event.EventType))
	}
}

// Events delegates to the wrapped logger when it keeps history.
func (e *LogEmitter) Events() []Event {
	if source, ok := e.next.(interface{ Events() []Event }); ok {
		return source.Events()
	}
	return nil
}

// EventsByType delegates to the wrapped logger when it keeps history.
func (e *LogEmitter) EventsByType(types ...EventType) []Event {
	if source, ok := e.next.(interface{ EventsByType(...EventType) []Event }); ok {
		return source.EventsByType(types...)
	}
	return nil
}
