package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	given := WithTraceID(ctx, "abc123")
	assert.Equal(t, "abc123", GetTraceID(given))

	generated := GetTraceID(WithTraceID(ctx, ""))
	require.Len(t, generated, 2*TraceIDLength)
	_, err := hex.DecodeString(generated)
	assert.NoError(t, err)

	assert.Empty(t, GetTraceID(context.WithValue(ctx, TraceIDKey, 42)), "non-string values are ignored")
}

func TestNewTraceIDIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		id := NewTraceID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()

	_, ok := GetSubject(context.Background())
	assert.False(t, ok)

	_, ok = GetSubject(WithSubject(context.Background(), ""))
	assert.False(t, ok)

	subject, ok := GetSubject(WithSubject(context.Background(), "lecturer-42"))
	assert.True(t, ok)
	assert.Equal(t, "lecturer-42", subject)
}
