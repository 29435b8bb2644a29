package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/events"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeUnitSuggestion merges fresh suggestions into one unit's mappings.
const TaskTypeUnitSuggestion = events.UnitSuggestionRequested

var (
	// ErrNotRehydrated is returned when a persisted task is executed before
	// a Factory has rebuilt it.
	ErrNotRehydrated = errors.New("task loaded from storage has not been rehydrated")

	// ErrUnknownTaskType is returned when no Factory is registered for a
	// persisted task's type.
	ErrUnknownTaskType = errors.New("unknown task type")
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as JSON
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Factory rebuilds executable tasks of one type from their persisted payload.
type Factory interface {
	Type() string
	FromPayload(id uuid.UUID, payload []byte) (Task, error)
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks retrieves tasks with "processing" status. If
	// olderThan is non-zero, only tasks that have been in this state longer
	// than olderThan are returned.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)

	// WithTx returns a TaskStore that runs every call on tx.
	WithTx(tx *sql.Tx) TaskStore
}

// Record is a task as loaded from storage. It carries data but no behavior
// until the runner passes it through the Factory registered for its type.
type Record struct {
	id           uuid.UUID
	taskType     string
	payload      []byte
	status       TaskStatus
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRecord builds a Record from stored columns.
func NewRecord(
	id uuid.UUID,
	taskType string,
	payload []byte,
	status TaskStatus,
	errorMessage string,
	createdAt, updatedAt time.Time,
) *Record {
	return &Record{
		id:           id,
		taskType:     taskType,
		payload:      payload,
		status:       status,
		errorMessage: errorMessage,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (r *Record) ID() uuid.UUID        { return r.id }
func (r *Record) Type() string         { return r.taskType }
func (r *Record) Payload() []byte      { return r.payload }
func (r *Record) Status() TaskStatus   { return r.status }
func (r *Record) ErrorMessage() string { return r.errorMessage }
func (r *Record) CreatedAt() time.Time { return r.createdAt }
func (r *Record) UpdatedAt() time.Time { return r.updatedAt }

// Execute always fails: a Record must be rehydrated first.
func (r *Record) Execute(context.Context) error {
	return ErrNotRehydrated
}
