package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/events"
)

func TestNewUnitSuggestionTask(t *testing.T) {
	t.Parallel()

	applier := newFakeApplier()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		_, err := NewUnitSuggestionTask(uuid.New(), uuid.Nil, applier, nil)
		assert.EqualError(t, err, "unit ID cannot be empty")

		_, err = NewUnitSuggestionTask(uuid.New(), uuid.New(), nil, nil)
		assert.EqualError(t, err, "suggestion applier cannot be nil")
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		unitID := uuid.New()
		task, err := NewUnitSuggestionTask(uuid.Nil, unitID, applier, nil)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID())
		assert.Equal(t, TaskTypeUnitSuggestion, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())
		assert.Equal(t, unitID, task.UnitID())

		var p events.UnitSuggestionPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &p))
		assert.Equal(t, unitID, p.UnitID)
	})
}

func TestUnitSuggestionTask_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		applyErr   error
		wantStatus TaskStatus
	}{
		{name: "applies suggestions", wantStatus: TaskStatusCompleted},
		{name: "apply failure", applyErr: errors.New("unit is locked"), wantStatus: TaskStatusFailed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			applier := newFakeApplier()
			applier.err = tc.applyErr
			unitID := uuid.New()
			task, err := NewUnitSuggestionTask(uuid.New(), unitID, applier, discardLogger())
			require.NoError(t, err)

			err = task.Execute(context.Background())
			if tc.applyErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.applyErr)
				assert.Contains(t, err.Error(), unitID.String())
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tc.wantStatus, task.Status())
			assert.Equal(t, []uuid.UUID{unitID}, applier.calls)
		})
	}
}

func TestUnitSuggestionTaskFactory(t *testing.T) {
	t.Parallel()

	factory := NewUnitSuggestionTaskFactory(newFakeApplier(), nil)
	assert.Equal(t, TaskTypeUnitSuggestion, factory.Type())

	original, err := NewUnitSuggestionTask(uuid.New(), uuid.New(), newFakeApplier(), nil)
	require.NoError(t, err)

	rebuilt, err := factory.FromPayload(original.ID(), original.Payload())
	require.NoError(t, err)
	assert.Equal(t, original.ID(), rebuilt.ID())
	assert.Equal(t, original.UnitID(), rebuilt.(*UnitSuggestionTask).UnitID())

	_, err = factory.FromPayload(uuid.New(), []byte("{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid "+TaskTypeUnitSuggestion+" payload")
}
