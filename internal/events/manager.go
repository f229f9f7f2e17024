// Package events provides in-process event emission for the trading core.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	TradeExecuted    EventType = "TRADE_EXECUTED"
	PortfolioCreated EventType = "PORTFOLIO_CREATED"
	PortfolioHalted  EventType = "PORTFOLIO_HALTED"
	SnapshotCaptured EventType = "SNAPSHOT_CAPTURED"
	ErrorOccurred    EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Listener receives emitted events. Listeners run synchronously on the
// emitter's goroutine and must not block.
type Listener func(Event)

// Manager handles event emission and logging
type Manager struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
	log       zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		listeners: make(map[EventType][]Listener),
		log:       log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers a listener for an event type
func (m *Manager) Subscribe(eventType EventType, listener Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[eventType] = append(m.listeners[eventType], listener)
}

// Emit emits an event
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	m.mu.RLock()
	listeners := m.listeners[eventType]
	m.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	data := map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	}
	m.Emit(ErrorOccurred, module, data)
}
