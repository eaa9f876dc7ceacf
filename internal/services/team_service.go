package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/utils"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/validation"
)

// TeamService provides business logic for teams, members and invitations.
// Every mutation checks the caller's team permission itself.
type TeamService struct {
	teams      repository.TeamRepository
	users      repository.UserRepository
	roles      repository.RoleRepository
	authorizer *authz.Authorizer
	mailer     Mailer
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewTeamService creates a new TeamService.
func NewTeamService(
	teams repository.TeamRepository,
	users repository.UserRepository,
	roles repository.RoleRepository,
	authorizer *authz.Authorizer,
	mailer Mailer,
	log logrus.FieldLogger,
) *TeamService {
	return &TeamService{
		teams:      teams,
		users:      users,
		roles:      roles,
		authorizer: authorizer,
		mailer:     mailer,
		log:        log,
		now:        time.Now,
	}
}

// MemberDetail is a membership with its user and role resolved.
type MemberDetail struct {
	Member models.TeamMember
	User   *models.User
	Role   *models.Role
}

func (s *TeamService) roleByName(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.roles.FindRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, apperr.InvalidField("role", "is not a known role")
	}
	return role, nil
}

func (s *TeamService) loadTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperr.NotFound("team", teamID)
	}
	return team, nil
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CreateTeam creates a team with the creator as its active admin.
func (s *TeamService) CreateTeam(ctx context.Context, userID string, input CreateTeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	admin, err := s.roles.FindRoleByName(ctx, authz.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, fmt.Errorf("role %q is not seeded", authz.RoleAdmin)
	}

	joinedAt := models.ToMillis(s.now())
	team := &models.Team{
		Name:        input.Name,
		Description: input.Description,
		CreatedByID: userID,
	}
	owner := &models.TeamMember{
		UserID:   userID,
		RoleID:   admin.ID,
		Status:   models.MemberStatusActive,
		JoinedAt: &joinedAt,
	}
	if err := s.teams.CreateWithOwner(ctx, team, owner); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"team_id": team.ID, "user_id": userID}).Info("Team created")
	return team, nil
}

// GetTeam returns a team the caller is a member of.
func (s *TeamService) GetTeam(ctx context.Context, userID, teamID string) (*models.Team, error) {
	if _, err := s.authorizer.Require(ctx, userID, teamID, authz.TeamView); err != nil {
		return nil, err
	}
	return s.loadTeam(ctx, teamID)
}

// ListTeamsForUser returns the teams the user is an active member of.
func (s *TeamService) ListTeamsForUser(ctx context.Context, userID string) ([]models.Team, error) {
	return s.teams.ListForUser(ctx, userID)
}

// UpdateTeamInput holds optional team changes.
type UpdateTeamInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateTeam renames or describes a team.
func (s *TeamService) UpdateTeam(ctx context.Context, userID, teamID string, input UpdateTeamInput) (*models.Team, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Require(ctx, userID, teamID, authz.TeamUpdate); err != nil {
		return nil, err
	}

	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		team.Description = *input.Description
	}

	if err := s.teams.Update(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam removes a team together with its members, invitations and objectives.
func (s *TeamService) DeleteTeam(ctx context.Context, userID, teamID string) error {
	if _, err := s.authorizer.Require(ctx, userID, teamID, authz.TeamDelete); err != nil {
		return err
	}
	if err := s.teams.Delete(ctx, teamID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": userID}).Info("Team deleted")
	return nil
}

// ListMembers returns all members with their users and roles.
func (s *TeamService) ListMembers(ctx context.Context, userID, teamID string) ([]MemberDetail, error) {
	if _, err := s.authorizer.Require(ctx, userID, teamID, authz.TeamView); err != nil {
		return nil, err
	}

	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	roles := map[string]*models.Role{}
	details := make([]MemberDetail, 0, len(members))
	for _, m := range members {
		user, err := s.users.FindByID(ctx, m.UserID)
		if err != nil {
			return nil, err
		}

		role, ok := roles[m.RoleID]
		if !ok {
			if role, err = s.roles.FindRoleByID(ctx, m.RoleID); err != nil {
				return nil, err
			}
			roles[m.RoleID] = role
		}

		details = append(details, MemberDetail{Member: m, User: user, Role: role})
	}
	return details, nil
}

// AddMemberInput identifies the user to add and their role.
type AddMemberInput struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,max=50"`
}

// AddMember adds an existing user to the team as an active member.
func (s *TeamService) AddMember(ctx context.Context, requesterID, teamID string, input AddMemberInput) (*models.TeamMember, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Require(ctx, requesterID, teamID, authz.MemberAdd); err != nil {
		return nil, err
	}

	role, err := s.roleByName(ctx, input.Role)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", input.UserID)
	}

	existing, err := s.teams.FindMember(ctx, teamID, input.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("user is already a member of this team")
	}

	joinedAt := models.ToMillis(s.now())
	member := &models.TeamMember{
		TeamID:      teamID,
		UserID:      input.UserID,
		RoleID:      role.ID,
		Status:      models.MemberStatusActive,
		InvitedByID: &requesterID,
		JoinedAt:    &joinedAt,
	}
	if err := s.teams.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": input.UserID}).Info("Member added")
	return member, nil
}

// UpdateMemberRoleInput names the new role.
type UpdateMemberRoleInput struct {
	Role string `json:"role" validate:"required,max=50"`
}

// UpdateMemberRole changes a member's role.
func (s *TeamService) UpdateMemberRole(ctx context.Context, requesterID, teamID, userID string, input UpdateMemberRoleInput) (*models.TeamMember, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Require(ctx, requesterID, teamID, authz.MemberUpdateRole); err != nil {
		return nil, err
	}

	role, err := s.roleByName(ctx, input.Role)
	if err != nil {
		return nil, err
	}

	member, err := s.teams.FindMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperr.NotFound("team member", userID)
	}

	member.RoleID = role.ID
	if err := s.teams.UpdateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes another member from the team. Pending invitations for
// the removed user are left untouched.
func (s *TeamService) RemoveMember(ctx context.Context, requesterID, teamID, userID string) error {
	if _, err := s.authorizer.Require(ctx, requesterID, teamID, authz.MemberRemove); err != nil {
		return err
	}
	if requesterID == userID {
		return apperr.InvalidField("userId", "cannot remove yourself")
	}
	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": userID}).Info("Member removed")
	return nil
}

// InviteInput names the invitee and the role they will receive.
type InviteInput struct {
	Email string `json:"email" validate:"required,max=255,email_format"`
	Role  string `json:"role" validate:"required,max=50"`
}

// InviteToTeam creates a pending invitation and emails its token.
func (s *TeamService) InviteToTeam(ctx context.Context, requesterID, teamID string, input InviteInput) (*models.TeamInvitation, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Require(ctx, requesterID, teamID, authz.InvitationCreate); err != nil {
		return nil, err
	}

	role, err := s.roleByName(ctx, input.Role)
	if err != nil {
		return nil, err
	}
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	invitee, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if invitee != nil {
		member, err := s.teams.FindMember(ctx, teamID, invitee.ID)
		if err != nil {
			return nil, err
		}
		if member.IsActive() {
			return nil, apperr.Conflict("user is already a member of this team")
		}
	}

	now := s.now()
	pending, err := s.teams.FindPendingInvitation(ctx, teamID, input.Email)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		if !pending.IsExpired(models.ToMillis(now)) {
			return nil, apperr.Conflict("an invitation is already pending for this email")
		}
		pending.Status = models.InvitationStatusExpired
		if err := s.teams.UpdateInvitation(ctx, pending); err != nil {
			return nil, err
		}
	}

	token, err := utils.GenerateToken(constants.InvitationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	invitation := &models.TeamInvitation{
		TeamID:      teamID,
		Email:       input.Email,
		RoleID:      role.ID,
		Token:       token,
		InvitedByID: requesterID,
		ExpiresAt:   models.ToMillis(now.Add(constants.InvitationTTL)),
		Status:      models.InvitationStatusPending,
	}
	if err := s.teams.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"team_id": teamID, "invitation_id": invitation.ID})
	inviter, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		log.WithError(err).Warn("Failed to load inviter")
	}
	if err := s.mailer.SendTeamInvitation(ctx, invitation, team, inviter); err != nil {
		log.WithError(err).Warn("Failed to send invitation email")
	}

	log.Info("Invitation created")
	return invitation, nil
}

// ListInvitations returns every invitation of the team, newest first.
func (s *TeamService) ListInvitations(ctx context.Context, userID, teamID string) ([]models.TeamInvitation, error) {
	if _, err := s.authorizer.Require(ctx, userID, teamID, authz.InvitationView); err != nil {
		return nil, err
	}
	return s.teams.ListInvitations(ctx, teamID)
}

// CancelInvitation cancels a pending invitation.
func (s *TeamService) CancelInvitation(ctx context.Context, requesterID, teamID, invitationID string) error {
	if _, err := s.authorizer.Require(ctx, requesterID, teamID, authz.InvitationCancel); err != nil {
		return err
	}

	invitation, err := s.teams.FindInvitationByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if invitation == nil || invitation.TeamID != teamID {
		return apperr.NotFound("invitation", invitationID)
	}
	if !invitation.IsPending() {
		return apperr.Conflict("invitation is no longer pending")
	}

	invitation.Status = models.InvitationStatusCancelled
	return s.teams.UpdateInvitation(ctx, invitation)
}

// AcceptInvitation joins the user to the invitation's team. The invitation
// must be pending, unexpired and addressed to the user's email.
func (s *TeamService) AcceptInvitation(ctx context.Context, userID, token string) (*models.TeamMember, error) {
	invitation, err := s.teams.FindInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, apperr.NotFound("invitation", "")
	}
	if !invitation.IsPending() {
		return nil, apperr.Conflict("invitation is no longer pending")
	}

	now := s.now()
	if invitation.IsExpired(models.ToMillis(now)) {
		invitation.Status = models.InvitationStatusExpired
		if err := s.teams.UpdateInvitation(ctx, invitation); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("invitation has expired")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !strings.EqualFold(user.Email, invitation.Email) {
		return nil, apperr.Forbidden("accept invitation")
	}

	joinedAt := models.ToMillis(now)
	invitedBy := invitation.InvitedByID
	member := &models.TeamMember{
		TeamID:      invitation.TeamID,
		UserID:      userID,
		RoleID:      invitation.RoleID,
		Status:      models.MemberStatusActive,
		InvitedByID: &invitedBy,
		JoinedAt:    &joinedAt,
	}
	if err := s.teams.AcceptInvitation(ctx, invitation, member); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"team_id": invitation.TeamID, "user_id": userID}).Info("Invitation accepted")
	return member, nil
}
