package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/config"
	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/mocks"
	"github.com/phrazzld/curriculum-api/internal/service/auth"
)

const testSecret = "an-hmac-secret-that-is-long-enough-for-tests"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, subject string, expiresIn time.Duration) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestRouter(t *testing.T) {
	t.Parallel()

	verifier, err := auth.NewTokenVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	unitID := uuid.New()
	units := &mocks.MockUnitService{
		GetSnapshotFn: func(_ context.Context, id uuid.UUID) (*domain.UnitSnapshot, error) {
			return &domain.UnitSnapshot{
				Unit:     domain.Unit{ID: id, Code: "BUS101", DurationWeeks: 12},
				Mappings: domain.NewMappingSet(id, 2),
			}, nil
		},
	}
	router := newRouter(discardLogger(), verifier, units, &mocks.MockAlignmentService{})

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{name: "health is public", path: "/health", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "api requires a token", path: "/api/units/" + unitID.String(), wantStatus: http.StatusUnauthorized},
		{
			name:       "expired token",
			path:       "/api/units/" + unitID.String(),
			token:      signToken(t, "author-1", -time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "authorized",
			path:       "/api/units/" + unitID.String(),
			token:      signToken(t, "author-1", time.Hour),
			wantStatus: http.StatusOK,
		},
		{
			name:       "authorized catalog",
			path:       "/api/catalogs/unknown",
			token:      signToken(t, "author-1", time.Hour),
			wantStatus: http.StatusNotFound,
		},
		{name: "unknown path", path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRouterSetsTraceHeader(t *testing.T) {
	t.Parallel()

	verifier, err := auth.NewTokenVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	router := newRouter(discardLogger(), verifier, &mocks.MockUnitService{}, &mocks.MockAlignmentService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}
