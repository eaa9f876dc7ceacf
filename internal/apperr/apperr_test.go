package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepository_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Repository(DomainOkr, "create objective", cause)

	var repoErr *RepositoryError
	assert.True(t, errors.As(err, &repoErr))
	assert.Equal(t, DomainOkr, repoErr.Domain)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "okr repository: create objective: connection reset", err.Error())
}

func TestRepository_PassesTypedErrorsThrough(t *testing.T) {
	nf := NotFound("objective", "o1")
	assert.Same(t, nf, Repository(DomainOkr, "update objective", nf))
	assert.Nil(t, Repository(DomainOkr, "noop", nil))
}

func TestClassification(t *testing.T) {
	wrapped := fmt.Errorf("use case: %w", Forbidden("okr:edit"))

	assert.True(t, IsAuthorization(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsValidation(InvalidField("title", "is required")))
	assert.True(t, IsConflict(Conflict("already a member")))
	assert.True(t, IsAuthentication(Unauthenticated("")))
	assert.False(t, IsTyped(errors.New("plain")))
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidation("", map[string]string{"title": "is required", "endDate": "must not be before startDate"})
	assert.Equal(t, "validation failed (endDate: must not be before startDate; title: is required)", err.Error())
	assert.Equal(t, "objective o1 not found", NotFound("objective", "o1").Error())
}

func TestUnavailable(t *testing.T) {
	err := fmt.Errorf("upload avatar: %w", Unavailable("avatar storage"))

	assert.True(t, IsUnavailable(err))
	assert.True(t, IsTyped(err))
	assert.False(t, IsRepository(err))
	assert.Equal(t, "avatar storage is not configured", Unavailable("avatar storage").Error())

	passed := Unavailable("AI service")
	assert.Same(t, passed, Repository(DomainOkr, "suggest", passed))
}
