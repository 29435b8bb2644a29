package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_EnqueueAndReceive(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, discardLogger())
	first := newFuncTask(nil)
	second := newFuncTask(nil)

	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(second))

	assert.Equal(t, first.ID(), (<-q.Channel()).ID())
	assert.Equal(t, second.ID(), (<-q.Channel()).ID())
}

func TestTaskQueue_Full(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1, discardLogger())
	require.NoError(t, q.Enqueue(newFuncTask(nil)))

	err := q.Enqueue(newFuncTask(nil))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.True(t, IsQueueFull(err))
}

func TestTaskQueue_Close(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(0, discardLogger())
	queued := newFuncTask(nil)
	require.NoError(t, q.Enqueue(queued), "size is clamped to one")

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newFuncTask(nil)), ErrQueueClosed)

	got, ok := <-q.Channel()
	require.True(t, ok, "tasks queued before close stay readable")
	assert.Equal(t, queued.ID(), got.ID())

	_, ok = <-q.Channel()
	assert.False(t, ok)
}
