package task

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/mapping"
	"github.com/phrazzld/curriculum-api/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memTaskStore is an in-memory TaskStore. Tasks are stored as Records so that
// reads behave like the database: callers must rehydrate them.
type memTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	history map[uuid.UUID][]TaskStatus

	saveErr   error
	updateErr error
	listErr   error
}

var _ TaskStore = (*memTaskStore)(nil)

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{
		records: make(map[uuid.UUID]*Record),
		history: make(map[uuid.UUID][]TaskStatus),
	}
}

func (s *memTaskStore) SaveTask(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	now := time.Now().UTC()
	s.records[t.ID()] = NewRecord(t.ID(), t.Type(), t.Payload(), t.Status(), "", now, now)
	s.history[t.ID()] = append(s.history[t.ID()], t.Status())
	return nil
}

// put stores a raw record, as left behind by a previous process.
func (s *memTaskStore) put(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID()] = r
}

func (s *memTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status TaskStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	r, ok := s.records[id]
	if !ok {
		return nil
	}
	s.records[id] = NewRecord(r.ID(), r.Type(), r.Payload(), status, msg, r.CreatedAt(), time.Now().UTC())
	s.history[id] = append(s.history[id], status)
	return nil
}

func (s *memTaskStore) list(status TaskStatus, olderThan time.Duration) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []Task{}
	for _, r := range s.records {
		if r.Status() != status {
			continue
		}
		if olderThan > 0 && time.Since(r.UpdatedAt()) < olderThan {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *memTaskStore) GetPendingTasks(context.Context) ([]Task, error) {
	return s.list(TaskStatusPending, 0)
}

func (s *memTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]Task, error) {
	return s.list(TaskStatusProcessing, olderThan)
}

func (s *memTaskStore) WithTx(*sql.Tx) TaskStore { return s }

func (s *memTaskStore) status(id uuid.UUID) (TaskStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return "", ""
	}
	return r.Status(), r.ErrorMessage()
}

func (s *memTaskStore) statuses(id uuid.UUID) []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TaskStatus(nil), s.history[id]...)
}

// funcTask is a Task whose Execute runs fn.
type funcTask struct {
	id uuid.UUID
	fn func(ctx context.Context) error
}

func newFuncTask(fn func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), fn: fn}
}

func (t *funcTask) ID() uuid.UUID      { return t.id }
func (t *funcTask) Type() string       { return "func" }
func (t *funcTask) Payload() []byte    { return []byte("{}") }
func (t *funcTask) Status() TaskStatus { return TaskStatusPending }
func (t *funcTask) Execute(ctx context.Context) error {
	if t.fn == nil {
		return nil
	}
	return t.fn(ctx)
}

// fakeApplier records ApplySuggestions calls.
type fakeApplier struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
	done  chan uuid.UUID
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{done: make(chan uuid.UUID, 16)}
}

func (a *fakeApplier) ApplySuggestions(
	_ context.Context,
	unitID uuid.UUID,
	expectedVersion *int64,
) (*service.ApplyResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, unitID)
	err := a.err
	a.mu.Unlock()
	defer func() { a.done <- unitID }()

	if expectedVersion != nil {
		return nil, errors.New("background runs never pin a version")
	}
	if err != nil {
		return nil, err
	}
	return &service.ApplyResult{
		Mappings: domain.NewMappingSet(unitID, 1),
		Report: mapping.Report{
			Filled:    []mapping.Slot{{Kind: mapping.SlotGoal, Code: "SDG13"}},
			Preserved: []mapping.Slot{},
		},
		Version: 1,
	}, nil
}
