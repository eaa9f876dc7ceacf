package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

func TestTeamService_CreateTeamMakesCreatorAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")

	team, err := e.teams.CreateTeam(ctx, owner.ID, CreateTeamInput{Name: "  Platform  ", Description: "infra"})
	require.NoError(t, err)
	assert.Equal(t, "Platform", team.Name)

	members, err := e.teams.ListMembers(ctx, owner.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].Member.UserID)
	assert.Equal(t, authz.RoleAdmin, members[0].Role.Name)
	assert.Equal(t, owner.Email, members[0].User.Email)
	assert.True(t, members[0].Member.IsActive())

	teams, err := e.teams.ListTeamsForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, teams, 1)

	_, err = e.teams.CreateTeam(ctx, owner.ID, CreateTeamInput{Name: " "})
	assert.True(t, apperr.IsValidation(err))
}

func TestTeamService_NonMembersCannotSeeTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	stranger := e.register(t, "stranger@example.com")
	team := e.teamWith(t, owner, nil)

	_, err := e.teams.GetTeam(ctx, stranger.ID, team.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = e.teams.ListMembers(ctx, stranger.ID, team.ID)
	assert.True(t, apperr.IsNotFound(err))

	got, err := e.teams.GetTeam(ctx, owner.ID, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, got.ID)
}

func TestTeamService_ViewerCannotEscalate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	viewer := e.register(t, "viewer@example.com")
	target := e.register(t, "target@example.com")
	team := e.teamWith(t, owner, map[*models.User]string{viewer: authz.RoleViewer})

	invitation, err := e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: "later@example.com", Role: authz.RoleMember})
	require.NoError(t, err)

	mutations := map[string]func() error{
		"UpdateTeam": func() error {
			_, err := e.teams.UpdateTeam(ctx, viewer.ID, team.ID, UpdateTeamInput{Name: ptr("Hijacked")})
			return err
		},
		"DeleteTeam": func() error {
			return e.teams.DeleteTeam(ctx, viewer.ID, team.ID)
		},
		"AddMember": func() error {
			_, err := e.teams.AddMember(ctx, viewer.ID, team.ID, AddMemberInput{UserID: target.ID, Role: authz.RoleAdmin})
			return err
		},
		"UpdateMemberRole": func() error {
			_, err := e.teams.UpdateMemberRole(ctx, viewer.ID, team.ID, viewer.ID, UpdateMemberRoleInput{Role: authz.RoleAdmin})
			return err
		},
		"RemoveMember": func() error {
			return e.teams.RemoveMember(ctx, viewer.ID, team.ID, owner.ID)
		},
		"InviteToTeam": func() error {
			_, err := e.teams.InviteToTeam(ctx, viewer.ID, team.ID, InviteInput{Email: "friend@example.com", Role: authz.RoleAdmin})
			return err
		},
		"CancelInvitation": func() error {
			return e.teams.CancelInvitation(ctx, viewer.ID, team.ID, invitation.ID)
		},
		"ListInvitations": func() error {
			_, err := e.teams.ListInvitations(ctx, viewer.ID, team.ID)
			return err
		},
	}

	for name, call := range mutations {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.True(t, apperr.IsAuthorization(err), "expected authorization error, got %v", err)
		})
	}

	got, err := e.teams.GetTeam(ctx, owner.ID, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Growth", got.Name)

	member, err := e.store.Teams().FindMember(ctx, team.ID, viewer.ID)
	require.NoError(t, err)
	role, err := e.store.Roles().FindRoleByID(ctx, member.RoleID)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleViewer, role.Name)
}

func TestTeamService_MemberManagement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	alice := e.register(t, "alice@example.com")
	team := e.teamWith(t, owner, nil)

	member, err := e.teams.AddMember(ctx, owner.ID, team.ID, AddMemberInput{UserID: alice.ID, Role: authz.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, member.Status)
	require.NotNil(t, member.JoinedAt)

	_, err = e.teams.AddMember(ctx, owner.ID, team.ID, AddMemberInput{UserID: alice.ID, Role: authz.RoleViewer})
	assert.True(t, apperr.IsConflict(err))

	_, err = e.teams.AddMember(ctx, owner.ID, team.ID, AddMemberInput{UserID: models.NewID(), Role: authz.RoleViewer})
	assert.True(t, apperr.IsNotFound(err))

	_, err = e.teams.AddMember(ctx, owner.ID, team.ID, AddMemberInput{UserID: alice.ID, Role: "superuser"})
	assert.True(t, apperr.IsValidation(err))

	updated, err := e.teams.UpdateMemberRole(ctx, owner.ID, team.ID, alice.ID, UpdateMemberRoleInput{Role: authz.RoleMember})
	require.NoError(t, err)
	memberRole, err := e.store.Roles().FindRoleByName(ctx, authz.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, memberRole.ID, updated.RoleID)

	assert.True(t, apperr.IsValidation(e.teams.RemoveMember(ctx, owner.ID, team.ID, owner.ID)))

	require.NoError(t, e.teams.RemoveMember(ctx, owner.ID, team.ID, alice.ID))
	found, err := e.store.Teams().FindMember(ctx, team.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.True(t, apperr.IsNotFound(e.teams.RemoveMember(ctx, owner.ID, team.ID, alice.ID)))
}

func TestTeamService_InvitationLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	invitee := e.register(t, "invitee@example.com")
	impostor := e.register(t, "impostor@example.com")
	team := e.teamWith(t, owner, nil)

	invitation, err := e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: "Invitee@Example.com", Role: authz.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, "invitee@example.com", invitation.Email)
	assert.Equal(t, models.InvitationStatusPending, invitation.Status)

	mail, ok := e.mailer.last("invitation")
	require.True(t, ok)
	assert.Equal(t, invitation.Token, mail.Token)

	_, err = e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: "invitee@example.com", Role: authz.RoleMember})
	assert.True(t, apperr.IsConflict(err))

	_, err = e.teams.AcceptInvitation(ctx, impostor.ID, invitation.Token)
	assert.True(t, apperr.IsAuthorization(err))

	member, err := e.teams.AcceptInvitation(ctx, invitee.ID, invitation.Token)
	require.NoError(t, err)
	assert.True(t, member.IsActive())

	_, err = e.teams.AcceptInvitation(ctx, invitee.ID, invitation.Token)
	assert.True(t, apperr.IsConflict(err))

	assert.True(t, apperr.IsConflict(e.teams.CancelInvitation(ctx, owner.ID, team.ID, invitation.ID)))

	_, err = e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: "invitee@example.com", Role: authz.RoleMember})
	assert.True(t, apperr.IsConflict(err))

	_, err = e.teams.AcceptInvitation(ctx, invitee.ID, "no-such-token")
	assert.True(t, apperr.IsNotFound(err))
}

func TestTeamService_CancelledInvitationIsInert(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	invitee := e.register(t, "invitee@example.com")
	team := e.teamWith(t, owner, nil)

	invitation, err := e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: invitee.Email, Role: authz.RoleViewer})
	require.NoError(t, err)
	require.NoError(t, e.teams.CancelInvitation(ctx, owner.ID, team.ID, invitation.ID))

	_, err = e.teams.AcceptInvitation(ctx, invitee.ID, invitation.Token)
	assert.True(t, apperr.IsConflict(err))

	member, err := e.store.Teams().FindMember(ctx, team.ID, invitee.ID)
	require.NoError(t, err)
	assert.Nil(t, member)

	other := e.teamWith(t, owner, nil)
	assert.True(t, apperr.IsNotFound(e.teams.CancelInvitation(ctx, owner.ID, other.ID, invitation.ID)))
}

func TestTeamService_ExpiredInvitationIsMarked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	invitee := e.register(t, "invitee@example.com")
	team := e.teamWith(t, owner, nil)

	invitation, err := e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: invitee.Email, Role: authz.RoleViewer})
	require.NoError(t, err)
	invitation.ExpiresAt = models.NowMillis() - 1
	require.NoError(t, e.store.Teams().UpdateInvitation(ctx, invitation))

	_, err = e.teams.AcceptInvitation(ctx, invitee.ID, invitation.Token)
	assert.True(t, apperr.IsConflict(err))

	stored, err := e.store.Teams().FindInvitationByToken(ctx, invitation.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusExpired, stored.Status)

	again, err := e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: invitee.Email, Role: authz.RoleViewer})
	require.NoError(t, err)
	assert.NotEqual(t, invitation.Token, again.Token)
}

func TestTeamService_InviteMailFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	team := e.teamWith(t, owner, nil)
	e.mailer.err = errBoom

	invitation, err := e.teams.InviteToTeam(ctx, owner.ID, team.ID, InviteInput{Email: "someone@example.com", Role: authz.RoleViewer})
	require.NoError(t, err)

	invitations, err := e.teams.ListInvitations(ctx, owner.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, invitations, 1)
	assert.Equal(t, invitation.ID, invitations[0].ID)
}

func TestTeamService_DeleteTeamCascadesObjectives(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	team := e.teamWith(t, owner, nil)
	start, end := dates()

	objective, err := e.okrs.CreateObjective(ctx, owner.ID, CreateObjectiveInput{
		Title: "Team goal", Type: models.ObjectiveTypeTeam, TeamID: &team.ID, StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	require.NoError(t, e.teams.DeleteTeam(ctx, owner.ID, team.ID))

	_, err = e.okrs.GetObjective(ctx, owner.ID, objective.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = e.teams.GetTeam(ctx, owner.ID, team.ID)
	assert.True(t, apperr.IsNotFound(err))
}
