package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/events"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/service"
)

// SuggestionApplier merges fresh suggestions into a unit's mappings. A nil
// expected version applies against whatever version is current.
type SuggestionApplier interface {
	ApplySuggestions(ctx context.Context, unitID uuid.UUID, expectedVersion *int64) (*service.ApplyResult, error)
}

// UnitSuggestionTask applies suggestions to one unit in the background. It
// always merges against the latest mappings, so user edits made between the
// request and the run are preserved by the merge rules.
type UnitSuggestionTask struct {
	id      uuid.UUID
	payload events.UnitSuggestionPayload
	applier SuggestionApplier
	logger  *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*UnitSuggestionTask)(nil)

// NewUnitSuggestionTask creates a pending task for unitID.
func NewUnitSuggestionTask(
	id, unitID uuid.UUID,
	applier SuggestionApplier,
	l *slog.Logger,
) (*UnitSuggestionTask, error) {
	if unitID == uuid.Nil {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}
	if applier == nil {
		return nil, fmt.Errorf("suggestion applier cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &UnitSuggestionTask{
		id:      id,
		payload: events.UnitSuggestionPayload{UnitID: unitID},
		applier: applier,
		logger:  l.With(slog.String("component", "unit_suggestion_task")),
		status:  TaskStatusPending,
	}, nil
}

func (t *UnitSuggestionTask) ID() uuid.UUID { return t.id }

func (t *UnitSuggestionTask) Type() string { return TaskTypeUnitSuggestion }

// Payload returns the JSON-encoded events.UnitSuggestionPayload.
func (t *UnitSuggestionTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func (t *UnitSuggestionTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// UnitID returns the unit the task works on.
func (t *UnitSuggestionTask) UnitID() uuid.UUID { return t.payload.UnitID }

func (t *UnitSuggestionTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute implements Task.
func (t *UnitSuggestionTask) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, t.logger).With(
		slog.String("unit_id", t.payload.UnitID.String()))

	t.setStatus(TaskStatusProcessing)

	result, err := t.applier.ApplySuggestions(ctx, t.payload.UnitID, nil)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to apply suggestions to unit %s: %w", t.payload.UnitID, err)
	}

	t.setStatus(TaskStatusCompleted)
	log.Info("suggestions applied",
		slog.Int("filled", len(result.Report.Filled)),
		slog.Int("preserved", len(result.Report.Preserved)),
		slog.Int64("version", result.Version))
	return nil
}

// UnitSuggestionTaskFactory builds UnitSuggestionTasks for new requests and
// for recovery.
type UnitSuggestionTaskFactory struct {
	applier SuggestionApplier
	logger  *slog.Logger
}

var _ Factory = (*UnitSuggestionTaskFactory)(nil)

// NewUnitSuggestionTaskFactory creates a factory that runs tasks with applier.
func NewUnitSuggestionTaskFactory(applier SuggestionApplier, l *slog.Logger) *UnitSuggestionTaskFactory {
	if l == nil {
		l = slog.Default()
	}
	return &UnitSuggestionTaskFactory{applier: applier, logger: l}
}

// Type implements Factory.
func (f *UnitSuggestionTaskFactory) Type() string { return TaskTypeUnitSuggestion }

// FromPayload implements Factory.
func (f *UnitSuggestionTaskFactory) FromPayload(id uuid.UUID, payload []byte) (Task, error) {
	var p events.UnitSuggestionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", TaskTypeUnitSuggestion, err)
	}
	return NewUnitSuggestionTask(id, p.UnitID, f.applier, f.logger)
}
