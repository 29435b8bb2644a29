package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UnitSuggestionRequested asks for suggestions to be computed and merged into
// a unit's mappings in the background.
const UnitSuggestionRequested = "unit_suggestion"

// TaskRequestEvent represents a request to create a background task.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent creates an event of the given type with a JSON payload.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnitSuggestionPayload is the payload of a UnitSuggestionRequested event.
type UnitSuggestionPayload struct {
	UnitID uuid.UUID `json:"unit_id"`
}

// NewUnitSuggestionEvent creates a UnitSuggestionRequested event for unitID.
func NewUnitSuggestionEvent(unitID uuid.UUID) (*TaskRequestEvent, error) {
	return NewTaskRequestEvent(UnitSuggestionRequested, UnitSuggestionPayload{UnitID: unitID})
}

// EventHandler processes events of the types it understands.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
