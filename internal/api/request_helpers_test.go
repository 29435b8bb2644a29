package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	tests := []struct {
		name    string
		value   string
		want    uuid.UUID
		wantErr string
	}{
		{name: "valid", value: id.String(), want: id},
		{name: "missing", value: "", wantErr: "unitID is required"},
		{name: "malformed", value: "BUS101", wantErr: "unitID has invalid format"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "unitID", tc.value)
			got, err := getPathUUID(r, "unitID")
			if tc.wantErr != "" {
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpectedVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    *int64
		wantErr bool
	}{
		{name: "absent", header: ""},
		{name: "wildcard", header: "*"},
		{name: "quoted", header: `"7"`, want: int64Ptr(7)},
		{name: "weak", header: `W/"7"`, want: int64Ptr(7)},
		{name: "bare", header: "0", want: int64Ptr(0)},
		{name: "negative", header: "-1", wantErr: true},
		{name: "garbage", header: `"abc"`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPut, "/", nil)
			if tc.header != "" {
				r.Header.Set("If-Match", tc.header)
			}
			got, err := expectedVersion(r)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQueryParams(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?async=true&week=3&bad=x", nil)

	async, err := queryBool(r, "async")
	require.NoError(t, err)
	assert.True(t, async)

	missing, err := queryBool(r, "missing")
	require.NoError(t, err)
	assert.False(t, missing)

	_, err = queryBool(r, "bad")
	assert.ErrorIs(t, err, domain.ErrValidation)

	week, err := queryInt(r, "week")
	require.NoError(t, err)
	assert.Equal(t, 3, week)

	_, err = queryInt(r, "missing")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = queryInt(r, "bad")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetVersion(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	setVersion(w, 12)
	assert.Equal(t, `"12"`, w.Header().Get("ETag"))
}
