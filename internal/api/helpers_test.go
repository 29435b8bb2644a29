package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/api/middleware"
	"github.com/phrazzld/curriculum-api/internal/api/shared"
	"github.com/phrazzld/curriculum-api/internal/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter mounts the API routes on a router the way the server does,
// minus authentication.
func newTestRouter(units *mocks.MockUnitService, alignment *mocks.MockAlignmentService) http.Handler {
	if units == nil {
		units = &mocks.MockUnitService{}
	}
	if alignment == nil {
		alignment = &mocks.MockAlignmentService{}
	}
	l := discardLogger()

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(l))
	RegisterRoutes(r, NewUnitHandler(units, l), NewAlignmentHandler(alignment, l))
	return r
}

func serve(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, rec).Error
}
