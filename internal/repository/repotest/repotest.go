// Package repotest holds a behavioural test suite shared by every
// implementation of the repository interfaces.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

// Repositories bundles one implementation of each interface over shared storage.
type Repositories struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Teams    repository.TeamRepository
	Okrs     repository.OkrRepository
	Roles    repository.RoleRepository
}

// Factory returns fresh, empty repositories for one test.
type Factory func(t *testing.T) Repositories

// Run executes the suite against the repositories built by newRepos.
func Run(t *testing.T, newRepos Factory) {
	tests := map[string]func(t *testing.T, r Repositories){
		"UserLifecycle":                   testUserLifecycle,
		"DeleteUserCascadesSessions":      testDeleteUserCascadesSessions,
		"Sessions":                        testSessions,
		"ObjectiveCRUD":                   testObjectiveCRUD,
		"MutationsOnMissingObjective":     testMutationsOnMissingObjective,
		"DeleteObjectiveCascades":         testDeleteObjectiveCascades,
		"KeyResultProgress":               testKeyResultProgress,
		"AccessPredicates":                testAccessPredicates,
		"ListObjectivesPagination":        testListObjectivesPagination,
		"ListObjectivesFilters":           testListObjectivesFilters,
		"ListObjectivesSorting":           testListObjectivesSorting,
		"DashboardStats":                  testDashboardStats,
		"MemberAddRemove":                 testMemberAddRemove,
		"DuplicateMembershipRejected":     testDuplicateMembershipRejected,
		"InvitationAcceptance":            testInvitationAcceptance,
		"ExpireInvitations":               testExpireInvitations,
		"DeleteTeamCascades":              testDeleteTeamCascades,
		"DuplicateRoleName":               testDuplicateRoleName,
		"RolePermissions":                 testRolePermissions,
		"UserPermissionsThroughMembership": testUserPermissionsThroughMembership,
		"SearchMatchesLiterally":          testSearchMatchesLiterally,
		"DeleteObjectiveDetachesChildren": testDeleteObjectiveDetachesChildren,
		"DeleteTeamDetachesChildren":      testDeleteTeamDetachesChildren,
		"DeleteUserRemovesMemberships":    testDeleteUserRemovesMemberships,
	}

	for name, fn := range tests {
		fn := fn
		t.Run(name, func(t *testing.T) {
			fn(t, newRepos(t))
		})
	}
}

var ctx = context.Background()

func ptr[T any](v T) *T {
	return &v
}

func newUser(t *testing.T, r Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: email, PasswordHash: "hash"}
	require.NoError(t, r.Users.Create(ctx, u))
	return u
}

func newObjective(t *testing.T, r Repositories, ownerID string, typ models.ObjectiveType, title string) *models.Objective {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o := &models.Objective{
		Title:     title,
		Type:      typ,
		OwnerID:   ownerID,
		StartDate: models.ToMillis(start),
		EndDate:   models.ToMillis(start.AddDate(0, 3, 0)),
		Status:    models.ObjectiveStatusDraft,
	}
	require.NoError(t, r.Okrs.CreateObjective(ctx, o))
	return o
}

func newKeyResult(t *testing.T, r Repositories, objectiveID string, typ models.KeyResultType, target float64) *models.KeyResult {
	t.Helper()
	kr := &models.KeyResult{
		ObjectiveID: objectiveID,
		Title:       "kr",
		Type:        typ,
		TargetValue: target,
		StartDate:   1,
		EndDate:     2,
		Status:      models.KeyResultStatusActive,
	}
	require.NoError(t, r.Okrs.CreateKeyResult(ctx, kr))
	return kr
}

func newRole(t *testing.T, r Repositories, name string, permissions ...string) *models.Role {
	t.Helper()
	role := &models.Role{Name: name}
	require.NoError(t, r.Roles.CreateRole(ctx, role))
	for _, pn := range permissions {
		p, err := r.Roles.FindPermissionByName(ctx, pn)
		require.NoError(t, err)
		if p == nil {
			p = &models.Permission{Name: pn}
			require.NoError(t, r.Roles.CreatePermission(ctx, p))
		}
		require.NoError(t, r.Roles.AssignPermission(ctx, role.ID, p.ID))
	}
	return role
}

func newTeam(t *testing.T, r Repositories, ownerID, roleID string) *models.Team {
	t.Helper()
	joined := models.NowMillis()
	team := &models.Team{Name: "Team " + ownerID[:8], CreatedByID: ownerID}
	owner := &models.TeamMember{UserID: ownerID, RoleID: roleID, Status: models.MemberStatusActive, JoinedAt: &joined}
	require.NoError(t, r.Teams.CreateWithOwner(ctx, team, owner))
	return team
}

func testUserLifecycle(t *testing.T, r Repositories) {
	u := newUser(t, r, "Alice@Example.com")
	assert.NotEmpty(t, u.ID)
	assert.NotZero(t, u.CreatedAt)

	found, err := r.Users.FindByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)

	missing, err := r.Users.FindByID(ctx, models.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)

	found.Name = "Alice Liddell"
	require.NoError(t, r.Users.Update(ctx, found))
	require.NoError(t, r.Users.ChangePassword(ctx, u.ID, "new-hash"))

	reloaded, err := r.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", reloaded.Name)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)

	err = r.Users.ChangePassword(ctx, models.NewID(), "x")
	assert.True(t, apperr.IsNotFound(err))

	dup := &models.User{Email: "alice@example.com", Name: "dup", PasswordHash: "x"}
	assert.True(t, apperr.IsRepository(r.Users.Create(ctx, dup)))

	newUser(t, r, "bob@example.com")
	users, total, err := r.Users.List(ctx, repository.UserFilter{Search: "BOB", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].Email)
}

func testDeleteUserCascadesSessions(t *testing.T, r Repositories) {
	u := newUser(t, r, "carol@example.com")
	require.NoError(t, r.Sessions.Create(ctx, &models.Session{UserID: u.ID, Token: "tok-carol", ExpiresAt: models.NowMillis() + 60000}))
	require.NoError(t, r.Users.CreatePasswordResetToken(ctx, &models.PasswordResetToken{Token: "reset-carol", UserID: u.ID, ExpiresAt: 1}))

	require.NoError(t, r.Users.Delete(ctx, u.ID))

	s, err := r.Sessions.FindByToken(ctx, "tok-carol")
	require.NoError(t, err)
	assert.Nil(t, s)
	rt, err := r.Users.FindPasswordResetToken(ctx, "reset-carol")
	require.NoError(t, err)
	assert.Nil(t, rt)

	assert.True(t, apperr.IsNotFound(r.Users.Delete(ctx, u.ID)))
}

func testSessions(t *testing.T, r Repositories) {
	now := models.NowMillis()
	u := newUser(t, r, "dave@example.com")

	require.NoError(t, r.Sessions.Create(ctx, &models.Session{UserID: u.ID, Token: "live", ExpiresAt: now + 60000}))
	require.NoError(t, r.Sessions.Create(ctx, &models.Session{UserID: u.ID, Token: "stale", ExpiresAt: now - 1}))

	sessions, err := r.Sessions.FindByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	removed, err := r.Sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, r.Sessions.UpdateExpiry(ctx, "live", now+120000))
	live, err := r.Sessions.FindByToken(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, now+120000, live.ExpiresAt)

	assert.True(t, apperr.IsNotFound(r.Sessions.UpdateExpiry(ctx, "missing", now)))

	require.NoError(t, r.Sessions.DeleteByUserID(ctx, u.ID))
	sessions, err = r.Sessions.FindByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func testObjectiveCRUD(t *testing.T, r Repositories) {
	owner := newUser(t, r, "erin@example.com")
	o := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Ship v1")
	assert.NotEmpty(t, o.ID)

	found, err := r.Okrs.FindObjectiveByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ship v1", found.Title)
	assert.Empty(t, found.KeyResults)

	found.Title = "Ship v2"
	found.Status = models.ObjectiveStatusActive
	require.NoError(t, r.Okrs.UpdateObjective(ctx, found))

	reloaded, err := r.Okrs.FindObjectiveByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ship v2", reloaded.Title)
	assert.Equal(t, models.ObjectiveStatusActive, reloaded.Status)
	assert.Equal(t, o.Description, reloaded.Description)

	missing, err := r.Okrs.FindObjectiveByID(ctx, models.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testMutationsOnMissingObjective(t *testing.T, r Repositories) {
	id := models.NewID()

	err := r.Okrs.UpdateObjective(ctx, &models.Objective{ID: id, Title: "ghost", Type: models.ObjectiveTypePersonal})
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(r.Okrs.DeleteObjective(ctx, id)))
	assert.True(t, apperr.IsNotFound(r.Okrs.DeleteKeyResult(ctx, id)))

	_, err = r.Okrs.UpdateKeyResultProgress(ctx, id, 5)
	assert.True(t, apperr.IsNotFound(err))

	err = r.Okrs.CreateKeyResult(ctx, &models.KeyResult{ObjectiveID: id, Title: "orphan", Type: models.KeyResultTypeNumber, TargetValue: 1})
	assert.True(t, apperr.IsNotFound(err))
}

func testDeleteObjectiveCascades(t *testing.T, r Repositories) {
	owner := newUser(t, r, "frank@example.com")
	o := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Cascade")
	other := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Survivor")
	for i := 0; i < 3; i++ {
		newKeyResult(t, r, o.ID, models.KeyResultTypeNumber, 10)
	}
	survivor := newKeyResult(t, r, other.ID, models.KeyResultTypeNumber, 10)

	krs, err := r.Okrs.ListKeyResults(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, krs, 3)

	require.NoError(t, r.Okrs.DeleteObjective(ctx, o.ID))

	krs, err = r.Okrs.ListKeyResults(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, krs)

	kept, err := r.Okrs.FindKeyResultByID(ctx, survivor.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func testKeyResultProgress(t *testing.T, r Repositories) {
	owner := newUser(t, r, "gina@example.com")
	o := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Progress")
	kr := newKeyResult(t, r, o.ID, models.KeyResultTypePercentage, 100)

	updated, err := r.Okrs.UpdateKeyResultProgress(ctx, kr.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, float64(150), updated.CurrentValue)
	assert.Equal(t, models.KeyResultStatusActive, updated.Status)
	assert.Equal(t, kr.Title, updated.Title)
	assert.GreaterOrEqual(t, updated.UpdatedAt, kr.UpdatedAt)

	loaded, err := r.Okrs.FindObjectiveByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, loaded.KeyResults, 1)
	assert.Equal(t, float64(150), loaded.KeyResults[0].ProgressPercentage())
	assert.Equal(t, float64(100), loaded.ProgressPercentage())
}

func testAccessPredicates(t *testing.T, r Repositories) {
	owner := newUser(t, r, "hank@example.com")
	stranger := newUser(t, r, "ivy@example.com")
	teamObj := newObjective(t, r, owner.ID, models.ObjectiveTypeTeam, "Team goal")
	personal := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Private goal")

	check := func(objectiveID, userID string) (bool, bool, bool) {
		isOwner, err := r.Okrs.IsObjectiveOwner(ctx, objectiveID, userID)
		require.NoError(t, err)
		access, err := r.Okrs.CanUserAccessObjective(ctx, objectiveID, userID)
		require.NoError(t, err)
		edit, err := r.Okrs.CanUserEditObjective(ctx, objectiveID, userID)
		require.NoError(t, err)
		return isOwner, access, edit
	}

	isOwner, access, edit := check(teamObj.ID, stranger.ID)
	assert.False(t, isOwner)
	assert.True(t, access)
	assert.False(t, edit)

	isOwner, access, edit = check(personal.ID, stranger.ID)
	assert.False(t, isOwner)
	assert.False(t, access)
	assert.False(t, edit)

	isOwner, access, edit = check(personal.ID, owner.ID)
	assert.True(t, isOwner)
	assert.True(t, access)
	assert.True(t, edit)

	_, access, _ = check(models.NewID(), owner.ID)
	assert.False(t, access)
}

func testListObjectivesPagination(t *testing.T, r Repositories) {
	owner := newUser(t, r, "jack@example.com")
	for i := 0; i < 25; i++ {
		newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, fmt.Sprintf("Objective %02d", i))
	}

	items, count, err := r.Okrs.ListObjectives(ctx, repository.ObjectiveFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, int64(25), count)

	last, count, err := r.Okrs.ListObjectives(ctx, repository.ObjectiveFilter{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last, 5)
	assert.Equal(t, int64(25), count)

	beyond, count, err := r.Okrs.ListObjectives(ctx, repository.ObjectiveFilter{Page: 4, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, int64(25), count)

	first, _, err := r.Okrs.ListObjectives(ctx, repository.ObjectiveFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, o := range append(first, items...) {
		assert.False(t, seen[o.ID], "pages must not overlap")
		seen[o.ID] = true
	}
}

func testListObjectivesFilters(t *testing.T, r Repositories) {
	owner := newUser(t, r, "kate@example.com")
	other := newUser(t, r, "leo@example.com")
	role := newRole(t, r, "filter-admin")
	team := newTeam(t, r, owner.ID, role.ID)

	parent := newObjective(t, r, owner.ID, models.ObjectiveTypeOrganization, "Grow Revenue")
	child := &models.Objective{
		Title: "Expand sales team", Description: "hire for REVENUE growth", Type: models.ObjectiveTypeTeam,
		OwnerID: owner.ID, TeamID: &team.ID, ParentID: &parent.ID, StartDate: 1, EndDate: 2,
		Status: models.ObjectiveStatusActive,
	}
	require.NoError(t, r.Okrs.CreateObjective(ctx, child))
	newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Read books")
	newObjective(t, r, other.ID, models.ObjectiveTypePersonal, "Secret revenue plan")

	list := func(f repository.ObjectiveFilter) []models.Objective {
		items, count, err := r.Okrs.ListObjectives(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(len(items)), count)
		return items
	}

	assert.Len(t, list(repository.ObjectiveFilter{Search: "revenue"}), 3)
	assert.Len(t, list(repository.ObjectiveFilter{Search: "revenue", VisibleTo: &owner.ID}), 2)
	assert.Len(t, list(repository.ObjectiveFilter{Search: "revenue", VisibleTo: &other.ID}), 3)
	assert.Len(t, list(repository.ObjectiveFilter{Type: ptr(models.ObjectiveTypePersonal)}), 2)
	assert.Len(t, list(repository.ObjectiveFilter{Status: ptr(models.ObjectiveStatusActive)}), 1)
	assert.Len(t, list(repository.ObjectiveFilter{OwnerID: &other.ID}), 1)

	byTeam := list(repository.ObjectiveFilter{TeamID: &team.ID})
	require.Len(t, byTeam, 1)
	assert.Equal(t, child.ID, byTeam[0].ID)

	byParent := list(repository.ObjectiveFilter{ParentID: &parent.ID})
	require.Len(t, byParent, 1)
	assert.Equal(t, child.ID, byParent[0].ID)

	assert.Len(t, list(repository.ObjectiveFilter{VisibleTo: &other.ID}), 3)
}

func testListObjectivesSorting(t *testing.T, r Repositories) {
	owner := newUser(t, r, "mia@example.com")
	for _, title := range []string{"bravo", "alpha", "charlie"} {
		newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, title)
	}

	titles := func(f repository.ObjectiveFilter) []string {
		items, _, err := r.Okrs.ListObjectives(ctx, f)
		require.NoError(t, err)
		out := make([]string, len(items))
		for i, o := range items {
			out[i] = o.Title
		}
		return out
	}

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, titles(repository.ObjectiveFilter{SortBy: repository.SortByTitle, SortOrder: repository.SortAsc}))
	assert.Equal(t, []string{"charlie", "bravo", "alpha"}, titles(repository.ObjectiveFilter{SortBy: repository.SortByTitle, SortOrder: repository.SortDesc}))
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, titles(repository.ObjectiveFilter{}))
	assert.Equal(t, []string{"bravo", "alpha", "charlie"}, titles(repository.ObjectiveFilter{SortBy: "1; DROP TABLE objectives", SortOrder: repository.SortAsc}))
}

func testDashboardStats(t *testing.T, r Repositories) {
	owner := newUser(t, r, "nina@example.com")
	o := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Dashboard")
	kr := newKeyResult(t, r, o.ID, models.KeyResultTypeNumber, 100)
	_, err := r.Okrs.UpdateKeyResultProgress(ctx, kr.ID, 50)
	require.NoError(t, err)
	newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Empty")

	stats, err := r.Okrs.GetDashboardStats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalObjectives)
	assert.Equal(t, int64(1), stats.TotalKeyResults)
	assert.InDelta(t, 25, stats.AverageProgress, 1e-9)
	assert.Equal(t, int64(2), stats.ObjectivesByStatus[models.ObjectiveStatusDraft])
}

func testMemberAddRemove(t *testing.T, r Repositories) {
	owner := newUser(t, r, "oscar@example.com")
	member := newUser(t, r, "pam@example.com")
	role := newRole(t, r, "member-role")
	team := newTeam(t, r, owner.ID, role.ID)

	require.NoError(t, r.Teams.AddMember(ctx, &models.TeamMember{TeamID: team.ID, UserID: member.ID, RoleID: role.ID, Status: models.MemberStatusActive}))

	found, err := r.Teams.FindMember(ctx, team.ID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	members, err := r.Teams.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, r.Teams.RemoveMember(ctx, team.ID, member.ID))

	found, err = r.Teams.FindMember(ctx, team.ID, member.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.True(t, apperr.IsNotFound(r.Teams.RemoveMember(ctx, team.ID, member.ID)))

	teams, err := r.Teams.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team.ID, teams[0].ID)

	teams, err = r.Teams.ListForUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func testDuplicateMembershipRejected(t *testing.T, r Repositories) {
	owner := newUser(t, r, "quinn@example.com")
	role := newRole(t, r, "dup-role")
	team := newTeam(t, r, owner.ID, role.ID)

	err := r.Teams.AddMember(ctx, &models.TeamMember{TeamID: team.ID, UserID: owner.ID, RoleID: role.ID, Status: models.MemberStatusActive})
	assert.True(t, apperr.IsRepository(err))

	members, err := r.Teams.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func testInvitationAcceptance(t *testing.T, r Repositories) {
	owner := newUser(t, r, "rita@example.com")
	invitee := newUser(t, r, "sam@example.com")
	role := newRole(t, r, "invite-role")
	team := newTeam(t, r, owner.ID, role.ID)

	inv := &models.TeamInvitation{
		TeamID: team.ID, Email: "SAM@example.com", RoleID: role.ID, Token: "invite-token",
		InvitedByID: owner.ID, ExpiresAt: models.NowMillis() + 60000, Status: models.InvitationStatusPending,
	}
	require.NoError(t, r.Teams.CreateInvitation(ctx, inv))

	pending, err := r.Teams.FindPendingInvitation(ctx, team.ID, "sam@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, inv.ID, pending.ID)

	joined := models.NowMillis()
	member := &models.TeamMember{TeamID: team.ID, UserID: invitee.ID, RoleID: role.ID, Status: models.MemberStatusActive, InvitedByID: &owner.ID, JoinedAt: &joined}
	require.NoError(t, r.Teams.AcceptInvitation(ctx, pending, member))

	stored, err := r.Teams.FindInvitationByToken(ctx, "invite-token")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, stored.Status)

	found, err := r.Teams.FindMember(ctx, team.ID, invitee.ID)
	require.NoError(t, err)
	require.True(t, found.IsActive())

	again := &models.TeamMember{TeamID: team.ID, UserID: invitee.ID, RoleID: role.ID, Status: models.MemberStatusActive}
	assert.Error(t, r.Teams.AcceptInvitation(ctx, stored, again))

	pending, err = r.Teams.FindPendingInvitation(ctx, team.ID, "sam@example.com")
	require.NoError(t, err)
	assert.Nil(t, pending)

	invitations, err := r.Teams.ListInvitations(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, invitations, 1)
}

func testExpireInvitations(t *testing.T, r Repositories) {
	owner := newUser(t, r, "tina@example.com")
	role := newRole(t, r, "expire-role")
	team := newTeam(t, r, owner.ID, role.ID)
	now := models.NowMillis()

	for i, expiresAt := range []int64{now - 1000, now + 60000} {
		require.NoError(t, r.Teams.CreateInvitation(ctx, &models.TeamInvitation{
			TeamID: team.ID, Email: fmt.Sprintf("guest%d@example.com", i), RoleID: role.ID,
			Token: fmt.Sprintf("expire-%d", i), InvitedByID: owner.ID, ExpiresAt: expiresAt,
			Status: models.InvitationStatusPending,
		}))
	}

	expired, err := r.Teams.ExpireInvitations(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	old, err := r.Teams.FindInvitationByToken(ctx, "expire-0")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusExpired, old.Status)

	fresh, err := r.Teams.FindInvitationByToken(ctx, "expire-1")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusPending, fresh.Status)
}

func testDeleteTeamCascades(t *testing.T, r Repositories) {
	owner := newUser(t, r, "uma@example.com")
	role := newRole(t, r, "cascade-role")
	team := newTeam(t, r, owner.ID, role.ID)
	keep := newTeam(t, r, owner.ID, role.ID)

	teamObj := &models.Objective{Title: "Team OKR", Type: models.ObjectiveTypeTeam, OwnerID: owner.ID, TeamID: &team.ID, StartDate: 1, EndDate: 2, Status: models.ObjectiveStatusDraft}
	require.NoError(t, r.Okrs.CreateObjective(ctx, teamObj))
	kr := newKeyResult(t, r, teamObj.ID, models.KeyResultTypeBoolean, 1)
	personal := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Mine")
	require.NoError(t, r.Teams.CreateInvitation(ctx, &models.TeamInvitation{
		TeamID: team.ID, Email: "x@example.com", RoleID: role.ID, Token: "cascade-invite",
		InvitedByID: owner.ID, ExpiresAt: models.NowMillis() + 1000, Status: models.InvitationStatusPending,
	}))

	require.NoError(t, r.Teams.Delete(ctx, team.ID))

	gone, err := r.Teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	obj, err := r.Okrs.FindObjectiveByID(ctx, teamObj.ID)
	require.NoError(t, err)
	assert.Nil(t, obj)

	krFound, err := r.Okrs.FindKeyResultByID(ctx, kr.ID)
	require.NoError(t, err)
	assert.Nil(t, krFound)

	inv, err := r.Teams.FindInvitationByToken(ctx, "cascade-invite")
	require.NoError(t, err)
	assert.Nil(t, inv)

	m, err := r.Teams.FindMember(ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, m)

	mine, err := r.Okrs.FindObjectiveByID(ctx, personal.ID)
	require.NoError(t, err)
	assert.NotNil(t, mine)

	kept, err := r.Teams.FindMember(ctx, keep.ID, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	assert.True(t, apperr.IsNotFound(r.Teams.Delete(ctx, team.ID)))
}

func testDuplicateRoleName(t *testing.T, r Repositories) {
	first := &models.Role{Name: "auditor", Description: "first"}
	require.NoError(t, r.Roles.CreateRole(ctx, first))

	second := &models.Role{Name: "auditor", Description: "second"}
	err := r.Roles.CreateRole(ctx, second)
	require.Error(t, err)
	assert.True(t, apperr.IsRepository(err))

	stored, err := r.Roles.FindRoleByName(ctx, "auditor")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "first", stored.Description)
}

func testRolePermissions(t *testing.T, r Repositories) {
	role := newRole(t, r, "editor", "okr:edit", "okr:view")
	view, err := r.Roles.FindPermissionByName(ctx, "okr:view")
	require.NoError(t, err)

	require.NoError(t, r.Roles.AssignPermission(ctx, role.ID, view.ID))

	permissions, err := r.Roles.ListRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, permissions, 2)

	ok, err := r.Roles.HasPermission(ctx, role.ID, "okr:edit")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Roles.HasPermission(ctx, role.ID, "team:delete")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Roles.RevokePermission(ctx, role.ID, view.ID))
	ok, err = r.Roles.HasPermission(ctx, role.ID, "okr:view")
	require.NoError(t, err)
	assert.False(t, ok)

	roles, err := r.Roles.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Len(t, roles[0].Permissions, 1)
	assert.Equal(t, "okr:edit", roles[0].Permissions[0].Name)

	require.NoError(t, r.Roles.DeleteRole(ctx, role.ID))
	gone, err := r.Roles.FindRoleByID(ctx, role.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testUserPermissionsThroughMembership(t *testing.T, r Repositories) {
	owner := newUser(t, r, "vera@example.com")
	admin := newRole(t, r, "perm-admin", "team:delete", "okr:view")
	viewer := newRole(t, r, "perm-viewer", "okr:view")
	teamA := newTeam(t, r, owner.ID, admin.ID)

	other := newUser(t, r, "walt@example.com")
	teamB := newTeam(t, r, other.ID, admin.ID)
	require.NoError(t, r.Teams.AddMember(ctx, &models.TeamMember{TeamID: teamB.ID, UserID: owner.ID, RoleID: viewer.ID, Status: models.MemberStatusActive}))

	all, err := r.Roles.GetUserPermissions(ctx, owner.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"okr:view", "team:delete"}, all)

	scoped, err := r.Roles.GetUserPermissions(ctx, owner.ID, &teamB.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"okr:view"}, scoped)

	member, err := r.Teams.FindMember(ctx, teamA.ID, owner.ID)
	require.NoError(t, err)
	member.Status = models.MemberStatusInactive
	require.NoError(t, r.Teams.UpdateMember(ctx, member))

	scoped, err = r.Roles.GetUserPermissions(ctx, owner.ID, &teamA.ID)
	require.NoError(t, err)
	assert.Empty(t, scoped)
}

func testSearchMatchesLiterally(t *testing.T, r Repositories) {
	owner := newUser(t, r, "search@example.com")
	newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "100% uptime")
	newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Plan_B rollout")
	newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Plain rollout!")
	renamed := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Draft")
	renamed.Title = "ÉTÉ launch"
	require.NoError(t, r.Okrs.UpdateObjective(ctx, renamed))

	titles := func(search string) []string {
		items, total, err := r.Okrs.ListObjectives(ctx, repository.ObjectiveFilter{Search: search})
		require.NoError(t, err)
		assert.Equal(t, int64(len(items)), total)
		out := make([]string, 0, len(items))
		for _, o := range items {
			out = append(out, o.Title)
		}
		return out
	}

	assert.Equal(t, []string{"100% uptime"}, titles("%"))
	assert.Equal(t, []string{"Plan_B rollout"}, titles("_"))
	assert.Equal(t, []string{"Plan_B rollout"}, titles("n_b"))
	assert.Equal(t, []string{"Plain rollout!"}, titles("!"))
	assert.Equal(t, []string{"ÉTÉ launch"}, titles("été"))
	assert.Empty(t, titles("draft"))

	u := &models.User{Email: "elodie@example.com", Name: "ÉLODIE 50%", PasswordHash: "hash"}
	require.NoError(t, r.Users.Create(ctx, u))
	users, total, err := r.Users.List(ctx, repository.UserFilter{Search: "élodie 50%", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)

	_, total, err = r.Users.List(ctx, repository.UserFilter{Search: "_", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func testDeleteObjectiveDetachesChildren(t *testing.T, r Repositories) {
	owner := newUser(t, r, "parent@example.com")
	parent := newObjective(t, r, owner.ID, models.ObjectiveTypeOrganization, "Parent")
	child := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Child")
	child.ParentID = &parent.ID
	require.NoError(t, r.Okrs.UpdateObjective(ctx, child))

	require.NoError(t, r.Okrs.DeleteObjective(ctx, parent.ID))

	kept, err := r.Okrs.FindObjectiveByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Nil(t, kept.ParentID)

	items, _, err := r.Okrs.ListObjectives(ctx, repository.ObjectiveFilter{ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testDeleteTeamDetachesChildren(t *testing.T, r Repositories) {
	owner := newUser(t, r, "teamparent@example.com")
	role := newRole(t, r, "detach-role")
	team := newTeam(t, r, owner.ID, role.ID)

	teamObj := &models.Objective{Title: "Team goal", Type: models.ObjectiveTypeTeam, OwnerID: owner.ID, TeamID: &team.ID, StartDate: 1, EndDate: 2, Status: models.ObjectiveStatusDraft}
	require.NoError(t, r.Okrs.CreateObjective(ctx, teamObj))
	personal := newObjective(t, r, owner.ID, models.ObjectiveTypePersonal, "Contributes")
	personal.ParentID = &teamObj.ID
	require.NoError(t, r.Okrs.UpdateObjective(ctx, personal))

	require.NoError(t, r.Teams.Delete(ctx, team.ID))

	kept, err := r.Okrs.FindObjectiveByID(ctx, personal.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Nil(t, kept.ParentID)
}

func testDeleteUserRemovesMemberships(t *testing.T, r Repositories) {
	owner := newUser(t, r, "keeper@example.com")
	leaving := newUser(t, r, "leaver@example.com")
	role := newRole(t, r, "membership-role")
	team := newTeam(t, r, owner.ID, role.ID)
	joined := models.NowMillis()
	require.NoError(t, r.Teams.AddMember(ctx, &models.TeamMember{
		TeamID: team.ID, UserID: leaving.ID, RoleID: role.ID, Status: models.MemberStatusActive, JoinedAt: &joined,
	}))

	require.NoError(t, r.Users.Delete(ctx, leaving.ID))

	m, err := r.Teams.FindMember(ctx, team.ID, leaving.ID)
	require.NoError(t, err)
	assert.Nil(t, m)

	members, err := r.Teams.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].UserID)
}
