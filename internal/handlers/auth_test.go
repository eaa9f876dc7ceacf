package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/dto"
)

func TestAuthHandler_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t, false)

	w := s.request(t, nil, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	alice := s.signup(t, "alice@example.com")

	w = s.request(t, alice, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me dto.UserDTO
	decode(t, w, &me)
	assert.Equal(t, alice.id, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.False(t, me.EmailVerified)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	s := newTestServer(t, false)

	w := s.request(t, nil, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "not-an-email", "name": "", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body apiError
	decode(t, w, &body)
	assert.Equal(t, "INVALID_INPUT", body.Code)
	assert.Contains(t, body.Details, "email")
	assert.Contains(t, body.Details, "name")
	assert.Contains(t, body.Details, "password")

	w = s.request(t, nil, http.MethodPost, "/api/auth/register", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_RegisterRejectsOverlongPassword(t *testing.T) {
	s := newTestServer(t, false)

	w := s.request(t, nil, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "long@example.com", "name": "Long", "password": strings.Repeat("a", 100),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body apiError
	decode(t, w, &body)
	assert.Equal(t, "INVALID_INPUT", body.Code)
	assert.Equal(t, "must be at most 72 bytes", body.Details["password"])
}

func TestAuthHandler_DuplicateRegistration(t *testing.T) {
	s := newTestServer(t, false)
	s.signup(t, "alice@example.com")

	w := s.request(t, nil, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "alice@example.com", "name": "Other", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_LoginFailure(t *testing.T) {
	s := newTestServer(t, false)
	s.signup(t, "alice@example.com")

	w := s.request(t, nil, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body apiError
	decode(t, w, &body)
	assert.Equal(t, "invalid email or password", body.Message)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandler_LogoutRevokesSession(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice@example.com")

	w := s.request(t, alice, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The old cookie still carries the token, but the session is gone.
	w = s.request(t, alice, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice@example.com")
	token := s.outbox.tokenFor(t, alice.email)

	w := s.request(t, nil, http.MethodPost, "/api/auth/verify-email", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user dto.UserDTO
	decode(t, w, &user)
	assert.True(t, user.EmailVerified)

	w = s.request(t, nil, http.MethodPost, "/api/auth/verify-email", map[string]string{"token": token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice@example.com")

	w := s.request(t, nil, http.MethodPost, "/api/auth/password-reset", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = s.request(t, nil, http.MethodPost, "/api/auth/password-reset", map[string]string{"email": alice.email})
	require.Equal(t, http.StatusAccepted, w.Code)
	token := s.outbox.tokenFor(t, alice.email)

	w = s.request(t, nil, http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"token": token, "password": "brand-new-password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.request(t, alice, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "existing sessions are revoked")

	w = s.request(t, nil, http.MethodPost, "/api/auth/login", map[string]string{
		"email": alice.email, "password": "brand-new-password",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
