package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/curriculum-api/internal/events"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
)

// Submitter accepts tasks for execution. *TaskRunner implements it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns task request events into tasks using the
// factory registered for the event type, and submits them. The event ID
// becomes the task ID.
type TaskFactoryEventHandler struct {
	factories map[string]Factory
	runner    Submitter
	logger    *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates a handler for the types of factories.
func NewTaskFactoryEventHandler(runner Submitter, l *slog.Logger, factories ...Factory) *TaskFactoryEventHandler {
	if l == nil {
		l = slog.Default()
	}
	byType := make(map[string]Factory, len(factories))
	for _, f := range factories {
		byType[f.Type()] = f
	}
	return &TaskFactoryEventHandler{
		factories: byType,
		runner:    runner,
		logger:    l.With(slog.String("component", "task_factory_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. Events of unknown types are
// ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger).With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	f, ok := h.factories[event.Type]
	if !ok {
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	t, err := f.FromPayload(event.ID, event.Payload)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, t); err != nil {
		log.Error("failed to submit task", slog.String("error", err.Error()))
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("task submitted", slog.String("task_id", t.ID().String()))
	return nil
}
