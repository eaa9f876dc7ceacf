package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
)

type sampleInput struct {
	Name       string  `json:"name" validate:"required,notblank,max=10"`
	Email      string  `json:"email" validate:"required,email_format"`
	Target     float64 `json:"targetValue" validate:"min=0"`
	Kind       string  `json:"type" validate:"required,oneof=percentage number boolean"`
	TeamID     *string `json:"teamId" validate:"omitempty,uuid"`
	StartDate  int64   `json:"startDate" validate:"required"`
	EndDate    int64   `json:"endDate" validate:"required,gtefield=StartDate"`
	Permission string  `json:"permission" validate:"omitempty,permission_name"`
}

func validSample() sampleInput {
	return sampleInput{
		Name:      "ok",
		Email:     "alice@example.com",
		Target:    10,
		Kind:      "number",
		StartDate: 1000,
		EndDate:   2000,
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(validSample()))
}

func TestStruct_FieldMessages(t *testing.T) {
	in := validSample()
	in.Name = "   "
	in.Email = "not-an-email"
	in.Target = -1
	in.Kind = "currency"
	bad := "nope"
	in.TeamID = &bad
	in.EndDate = 500
	in.Permission = "Edit Things"

	err := Struct(in)
	require.Error(t, err)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "must be a valid email", verr.Fields["email"])
	assert.Equal(t, "must be at least 0", verr.Fields["targetValue"])
	assert.Equal(t, "must be one of: percentage number boolean", verr.Fields["type"])
	assert.Equal(t, "must be a valid id", verr.Fields["teamId"])
	assert.Equal(t, "must not be before startDate", verr.Fields["endDate"])
	assert.Equal(t, "must look like resource:action", verr.Fields["permission"])
}

func TestStruct_StringLength(t *testing.T) {
	in := validSample()
	in.Name = "this name is far too long"

	var verr *apperr.ValidationError
	require.ErrorAs(t, Struct(in), &verr)
	assert.Equal(t, "must be at most 10 characters", verr.Fields["name"])
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("bob@example.org"))
	assert.False(t, Email("bob@"))
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=8,bcrypt_len"`
}

func TestStruct_BcryptLength(t *testing.T) {
	assert.NoError(t, Struct(passwordInput{Password: strings.Repeat("a", 72)}))

	err := Struct(passwordInput{Password: strings.Repeat("a", 73)})
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])

	// 37 two-byte runes pass a character count but not the byte limit.
	assert.Error(t, Struct(passwordInput{Password: strings.Repeat("é", 37)}))
}
