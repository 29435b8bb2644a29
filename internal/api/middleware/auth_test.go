package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/api/shared"
	"github.com/phrazzld/curriculum-api/internal/service/auth"
)

type stubVerifier struct {
	claims *auth.Claims
	err    error
	tokens []string
}

func (v *stubVerifier) VerifyToken(_ context.Context, token string) (*auth.Claims, error) {
	v.tokens = append(v.tokens, token)
	return v.claims, v.err
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		header      string
		verifyErr   error
		wantStatus  int
		wantMessage string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "lower case scheme", header: "bearer good", wantStatus: http.StatusOK},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantMessage: "Authorization header required"},
		{name: "no scheme", header: "good", wantStatus: http.StatusUnauthorized, wantMessage: "Invalid authorization format"},
		{name: "basic auth", header: "Basic dXNlcjpwdw==", wantStatus: http.StatusUnauthorized, wantMessage: "Invalid authorization format"},
		{name: "empty token", header: "Bearer  ", wantStatus: http.StatusUnauthorized, wantMessage: "Invalid authorization format"},
		{name: "expired", header: "Bearer old", verifyErr: auth.ErrExpiredToken, wantStatus: http.StatusUnauthorized, wantMessage: "Token expired"},
		{name: "invalid", header: "Bearer bad", verifyErr: auth.ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantMessage: "Invalid token"},
		{name: "not yet valid", header: "Bearer early", verifyErr: auth.ErrTokenNotYetValid, wantStatus: http.StatusUnauthorized, wantMessage: "Invalid token"},
		{name: "verifier failure", header: "Bearer x", verifyErr: errors.New("key store down"), wantStatus: http.StatusInternalServerError, wantMessage: "Authentication error"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			verifier := &stubVerifier{claims: &auth.Claims{Subject: "lecturer-7"}, err: tc.verifyErr}
			var subject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject, _ = shared.GetSubject(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			NewAuthMiddleware(verifier).Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, "lecturer-7", subject)
				assert.Equal(t, []string{"good"}, verifier.tokens)
				return
			}

			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantMessage, body.Error)
			assert.Empty(t, subject)
		})
	}
}
