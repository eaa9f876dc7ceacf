package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, APIError, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/objectives", nil)
	Respond(c, log, err, "failed to fetch objectives")

	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body, hook
}

func TestRespond_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperr.InvalidField("title", "is required"), http.StatusBadRequest, ErrCodeInvalidInput},
		{"not found", apperr.NotFound("objective", "o1"), http.StatusNotFound, ErrCodeNotFound},
		{"authorization", apperr.Forbidden("edit objective"), http.StatusForbidden, ErrCodeForbidden},
		{"authentication", apperr.Unauthenticated("session expired"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"conflict", apperr.Conflict("email is already registered"), http.StatusConflict, ErrCodeConflict},
		{"wrapped not found", fmt.Errorf("loading: %w", apperr.NotFound("team", "")), http.StatusNotFound, ErrCodeNotFound},
		{"ai unavailable", apperr.Unavailable("AI service"), http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"storage unavailable", fmt.Errorf("upload: %w", apperr.Unavailable("avatar storage")), http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body, hook := respond(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body.Code)
			assert.Empty(t, hook.AllEntries())
		})
	}
}

func TestRespond_ValidationDetails(t *testing.T) {
	_, body, _ := respond(t, apperr.NewValidation("", map[string]string{"title": "is required", "endDate": "must not be before startDate"}))

	details, ok := body.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
	assert.Equal(t, "must not be before startDate", details["endDate"])
}

func TestRespond_RepositoryErrorIsHidden(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.1:5432: connection refused")
	w, body, hook := respond(t, apperr.Repository(apperr.DomainOkr, "list objectives", cause))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrCodeInternalError, body.Code)
	assert.Equal(t, "failed to fetch objectives", body.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, apperr.DomainOkr, entry.Data["domain"])
	assert.Equal(t, "list objectives", entry.Data["op"])
}

func TestHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Unauthorized(c, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
	assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"Authentication required"}`, w.Body.String())
}
