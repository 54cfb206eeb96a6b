package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia/internal/auth/jwt"
)

const testPassword = "let-me-in-please"

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	return NewService(hash, jwt.TokenConfig{Secret: []byte("test-secret"), TTL: 30 * time.Minute}, zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword(hash, testPassword))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong-password"), ErrInvalidPassword)
}

func TestService_Login(t *testing.T) {
	svc := newTestService(t)
	assert.True(t, svc.Enabled())
	assert.Equal(t, 1800, svc.TokenTTLSeconds())

	_, err := svc.Login("nope-nope-nope")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	token, err := svc.Login(testPassword)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAdmin, claims.Role)
}

func TestService_Disabled(t *testing.T) {
	svc := NewService("", jwt.TokenConfig{}, zerolog.Nop())
	assert.False(t, svc.Enabled())

	_, err := svc.Login(testPassword)
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestRequireAdmin(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Login(testPassword)
	require.NoError(t, err)

	var sawClaims bool
	protected := RequireAdmin(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + token, http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sawClaims = false
			req := httptest.NewRequest(http.MethodPost, "/questions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusNoContent, sawClaims)
		})
	}
}

func TestRequireAdmin_DisabledPassesThrough(t *testing.T) {
	svc := NewService("", jwt.TokenConfig{}, zerolog.Nop())
	called := false
	handler := RequireAdmin(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/questions/1", nil))
	assert.True(t, called)
}

func TestHandleLogin(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"missing password", `{}`, http.StatusUnprocessableEntity},
		{"wrong password", `{"password":"incorrect-pass"}`, http.StatusUnauthorized},
		{"ok", `{"password":"` + testPassword + `"}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			svc.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestHandleLogin_Disabled(t *testing.T) {
	svc := NewService("", jwt.TokenConfig{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	svc.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"whatever1"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
