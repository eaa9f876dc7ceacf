package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

func TestUserService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice@example.com")

	err := e.users.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "wrong-one", NewPassword: "new-password"})
	assert.True(t, apperr.IsValidation(err))

	err = e.users.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "password123", NewPassword: strings.Repeat("p", 100)})
	assert.True(t, apperr.IsValidation(err))

	require.NoError(t, e.users.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "new-password"}))

	_, _, err = e.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "new-password"})
	assert.NoError(t, err)
}

func TestUserService_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "bob@example.com")
	mail, ok := e.mailer.last("verification")
	require.True(t, ok)
	e.register(t, "taken@example.com")

	verified, err := e.auth.VerifyEmail(ctx, mail.Token)
	require.NoError(t, err)
	require.True(t, verified.EmailVerified)

	updated, err := e.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: ptr("Robert")})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
	assert.True(t, updated.EmailVerified)

	_, err = e.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Email: ptr("Taken@example.com")})
	assert.True(t, apperr.IsConflict(err))

	updated, err = e.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Email: ptr("Rob@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "rob@example.com", updated.Email)
	assert.False(t, updated.EmailVerified)

	_, err = e.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: ptr("   ")})
	assert.True(t, apperr.IsValidation(err))
}

func TestUserService_UploadAvatar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "carol@example.com")
	body := []byte("\x89PNG fake image")

	updated, err := e.users.UploadAvatar(ctx, user.ID, AvatarUpload{ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body)})
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarURL)
	assert.True(t, strings.HasPrefix(*updated.AvatarURL, "https://cdn.example.com/avatars/"+user.ID+"/"))
	assert.True(t, strings.HasSuffix(*updated.AvatarURL, ".png"))

	_, err = e.users.UploadAvatar(ctx, user.ID, AvatarUpload{ContentType: "image/gif", Size: 10, Body: bytes.NewReader(body)})
	assert.True(t, apperr.IsValidation(err))

	_, err = e.users.UploadAvatar(ctx, user.ID, AvatarUpload{ContentType: "image/png", Size: constants.MaxAvatarBytes + 1, Body: bytes.NewReader(body)})
	assert.True(t, apperr.IsValidation(err))
}

func TestUserService_UploadAvatarWithoutStorage(t *testing.T) {
	e := newEnv(t)
	log, _ := test.NewNullLogger()
	users := NewUserService(e.store.Users(), e.store.Sessions(), e.store.Teams(), e.store.Roles(), NewBcryptHasher(4), nil, log)

	_, err := users.UploadAvatar(context.Background(), "any", AvatarUpload{ContentType: "image/png", Size: 1})
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestUserService_DeleteAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "dave@example.com")
	leaving := e.register(t, "erin@example.com")
	team := e.teamWith(t, owner, map[*models.User]string{leaving: authz.RoleMember})

	_, session, err := e.auth.Login(ctx, LoginInput{Email: "erin@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, e.users.DeleteAccount(ctx, leaving.ID))

	_, _, err = e.auth.ValidateSession(ctx, session.Token)
	assert.True(t, apperr.IsAuthentication(err))

	member, err := e.store.Teams().FindMember(ctx, team.ID, leaving.ID)
	require.NoError(t, err)
	assert.Nil(t, member)

	assert.True(t, apperr.IsNotFound(e.users.DeleteAccount(ctx, leaving.ID)))
}

func TestUserService_DeleteAccountRejectsSoleAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "frank@example.com")
	member := e.register(t, "gwen@example.com")
	team := e.teamWith(t, owner, map[*models.User]string{member: authz.RoleMember})

	err := e.users.DeleteAccount(ctx, owner.ID)
	assert.True(t, apperr.IsConflict(err))

	m, err := e.store.Teams().FindMember(ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = e.teams.UpdateMemberRole(ctx, owner.ID, team.ID, member.ID, UpdateMemberRoleInput{Role: authz.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, e.users.DeleteAccount(ctx, owner.ID))

	m, err = e.store.Teams().FindMember(ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

type failingDeleteUsers struct {
	repository.UserRepository
}

func (failingDeleteUsers) Delete(context.Context, string) error { return errBoom }

func TestUserService_DeleteAccountFailureLeavesAccountIntact(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "hank@example.com")
	member := e.register(t, "iris@example.com")
	team := e.teamWith(t, owner, map[*models.User]string{member: authz.RoleMember})

	_, session, err := e.auth.Login(ctx, LoginInput{Email: "iris@example.com", Password: "password123"})
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	users := NewUserService(failingDeleteUsers{e.store.Users()}, e.store.Sessions(), e.store.Teams(), e.store.Roles(), NewBcryptHasher(4), nil, log)

	assert.ErrorIs(t, users.DeleteAccount(ctx, member.ID), errBoom)

	m, err := e.store.Teams().FindMember(ctx, team.ID, member.ID)
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, _, err = e.auth.ValidateSession(ctx, session.Token)
	assert.NoError(t, err)
}
