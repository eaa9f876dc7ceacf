package authz

import (
	"context"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

// Authorizer answers team-scoped permission questions.
type Authorizer struct {
	teams repository.TeamRepository
	roles repository.RoleRepository
}

// NewAuthorizer creates an Authorizer
func NewAuthorizer(teams repository.TeamRepository, roles repository.RoleRepository) *Authorizer {
	return &Authorizer{teams: teams, roles: roles}
}

// Membership returns the caller's active membership of the team. Callers who
// are not active members get a NotFoundError for the team so that its
// existence is not revealed.
func (a *Authorizer) Membership(ctx context.Context, userID, teamID string) (*models.TeamMember, error) {
	member, err := a.teams.FindMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive() {
		return nil, apperr.NotFound("team", teamID)
	}
	return member, nil
}

// Require checks that userID is an active member of teamID whose role grants
// permission, and returns the membership.
func (a *Authorizer) Require(ctx context.Context, userID, teamID, permission string) (*models.TeamMember, error) {
	member, err := a.Membership(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	ok, err := a.roles.HasPermission(ctx, member.RoleID, permission)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden(permission)
	}
	return member, nil
}

// Can reports whether userID holds permission in teamID.
func (a *Authorizer) Can(ctx context.Context, userID, teamID, permission string) (bool, error) {
	_, err := a.Require(ctx, userID, teamID, permission)
	switch {
	case err == nil:
		return true, nil
	case apperr.IsNotFound(err), apperr.IsAuthorization(err):
		return false, nil
	default:
		return false, err
	}
}
