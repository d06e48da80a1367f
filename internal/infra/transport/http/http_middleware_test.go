package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/isupipe-usersvc/internal/infra/context"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/session"
	http_ "github.com/mkrupp/isupipe-usersvc/internal/infra/transport/http"
)

type stubVerifier struct {
	sess session.Session
	err  error
}

func (v stubVerifier) Verify(*http.Request) (session.Session, error) {
	return v.sess, v.err
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verifier   stubVerifier
		wantStatus int
	}{
		{
			name:       "valid session reaches handler",
			verifier:   stubVerifier{sess: session.Session{UserID: 42, Username: "alice"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing session is forbidden",
			verifier:   stubVerifier{err: session.ErrNoSession},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "expired session is unauthorized",
			verifier:   stubVerifier{err: session.ErrSessionExpired},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUserID int64

			handler := http_.RequireSession(tt.verifier, logging.NewNopLogger(), func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = context_.UserIDFromContext(r.Context())
			})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, int64(42), gotUserID)
			}
		})
	}
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	var gotTraceID string

	handler := http_.TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotTraceID, _ = context_.TraceIDFromContext(r.Context())
	}))

	t.Run("keeps incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(http_.TraceIDHeader, "abc123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc123", gotTraceID)
		assert.Equal(t, "abc123", rec.Header().Get(http_.TraceIDHeader))
	})

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, gotTraceID)
		assert.Equal(t, gotTraceID, rec.Header().Get(http_.TraceIDHeader))
	})
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid object", body: `{"image":"YWJj"}`},
		{name: "malformed", body: `{"image":`, wantErr: true},
		{name: "trailing data", body: `{"image":"YWJj"} {}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var v struct {
				Image string `json:"image"`
			}

			req := httptest.NewRequest(http.MethodPost, "/api/icon", strings.NewReader(tt.body))
			err := http_.DecodeJSON(httptest.NewRecorder(), req, 1<<20, &v)

			if tt.wantErr {
				require.ErrorIs(t, err, http_.ErrInvalidJSON)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "YWJj", v.Image)
		})
	}
}
