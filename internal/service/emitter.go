package service

import (
	"context"
	"sync"

	"blockeditor/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from whatever hosts the editor
// ─────────────────────────────────────────────────────────────

// Events emitted by the services.
const (
	EventBlocksChanged   = "document:blocks-changed"
	EventDragChanged     = "document:drag-changed"
	EventDocumentRemoved = "document:removed"
)

// EventEmitter delivers change notifications to the editor host. Services
// depend on this interface instead of a concrete transport so they can be
// tested with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a logger. Used when no frontend listens,
// e.g. in the CLI and the stdio MCP server.
type LogEmitter struct {
	Log logger.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Log.Debug("event", logger.String("event", event), logger.Any("data", data))
}

// MultiEmitter delivers every event to each of its emitters in order.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event string, data any) {
	for _, e := range m {
		e.Emit(ctx, event, data)
	}
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}
