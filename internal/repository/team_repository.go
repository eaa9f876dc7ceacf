package repository

import (
	"context"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

func (r *GormTeamRepository) fail(op string, err error) error {
	return apperr.Repository(apperr.DomainTeam, op, err)
}

// CreateWithOwner creates a team and its first member atomically.
func (r *GormTeamRepository) CreateWithOwner(ctx context.Context, team *models.Team, owner *models.TeamMember) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}

		owner.TeamID = team.ID
		return tx.Create(owner).Error
	})
	return r.fail("create team", err)
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &team)
	if err != nil || !found {
		return nil, r.fail("find team", err)
	}
	return &team, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(ctx context.Context, team *models.Team) error {
	found, err := saveAll(r.db.WithContext(ctx), team, &models.Team{}, team.ID)
	if err != nil {
		return r.fail("update team", err)
	}
	if !found {
		return apperr.NotFound("team", team.ID)
	}
	return nil
}

// Delete deletes a team and all related data
func (r *GormTeamRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// MySQL refuses an UPDATE whose subquery reads the same table, so ids are loaded first.
		var objectiveIDs []string
		if err := tx.Model(&models.Objective{}).Where("team_id = ?", id).Pluck("id", &objectiveIDs).Error; err != nil {
			return err
		}
		if len(objectiveIDs) > 0 {
			if err := tx.Where("objective_id IN ?", objectiveIDs).Delete(&models.KeyResult{}).Error; err != nil {
				return err
			}
			if err := detachChildren(tx, objectiveIDs...); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", objectiveIDs).Delete(&models.Objective{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Team{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("team", id)
		}
		return nil
	})
	return r.fail("delete team", err)
}

// ListForUser lists the teams a user is an active member of
func (r *GormTeamRepository) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND team_members.status = ?", userID, models.MemberStatusActive).
		Order("teams.name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, r.fail("list teams", err)
	}
	return teams, nil
}

// AddMember adds a member to a team
func (r *GormTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	return r.fail("add member", r.db.WithContext(ctx).Create(member).Error)
}

// FindMember finds a specific team member
func (r *GormTeamRepository) FindMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	var member models.TeamMember
	found, err := first(r.db.WithContext(ctx).Where("team_id = ? AND user_id = ?", teamID, userID), &member)
	if err != nil || !found {
		return nil, r.fail("find member", err)
	}
	return &member, nil
}

// UpdateMember saves a membership
func (r *GormTeamRepository) UpdateMember(ctx context.Context, member *models.TeamMember) error {
	found, err := saveAll(r.db.WithContext(ctx), member, &models.TeamMember{}, member.ID)
	if err != nil {
		return r.fail("update member", err)
	}
	if !found {
		return apperr.NotFound("team member", member.UserID)
	}
	return nil
}

// RemoveMember hard deletes a membership
func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result := r.db.WithContext(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.TeamMember{})
	if result.Error != nil {
		return r.fail("remove member", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("team member", userID)
	}
	return nil
}

// ListMembers lists all members of a team
func (r *GormTeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("created_at ASC").Order("id ASC").Find(&members).Error; err != nil {
		return nil, r.fail("list members", err)
	}
	return members, nil
}

func (r *GormTeamRepository) CreateInvitation(ctx context.Context, invitation *models.TeamInvitation) error {
	invitation.Email = strings.ToLower(invitation.Email)
	return r.fail("create invitation", r.db.WithContext(ctx).Create(invitation).Error)
}

func (r *GormTeamRepository) FindInvitationByID(ctx context.Context, id string) (*models.TeamInvitation, error) {
	var invitation models.TeamInvitation
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &invitation)
	if err != nil || !found {
		return nil, r.fail("find invitation", err)
	}
	return &invitation, nil
}

func (r *GormTeamRepository) FindInvitationByToken(ctx context.Context, token string) (*models.TeamInvitation, error) {
	var invitation models.TeamInvitation
	found, err := first(r.db.WithContext(ctx).Where("token = ?", token), &invitation)
	if err != nil || !found {
		return nil, r.fail("find invitation", err)
	}
	return &invitation, nil
}

func (r *GormTeamRepository) FindPendingInvitation(ctx context.Context, teamID, email string) (*models.TeamInvitation, error) {
	var invitation models.TeamInvitation
	query := r.db.WithContext(ctx).
		Where("team_id = ? AND email = ? AND status = ?", teamID, strings.ToLower(email), models.InvitationStatusPending)
	found, err := first(query, &invitation)
	if err != nil || !found {
		return nil, r.fail("find pending invitation", err)
	}
	return &invitation, nil
}

func (r *GormTeamRepository) ListInvitations(ctx context.Context, teamID string) ([]models.TeamInvitation, error) {
	var invitations []models.TeamInvitation
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("created_at DESC").Order("id DESC").Find(&invitations).Error; err != nil {
		return nil, r.fail("list invitations", err)
	}
	return invitations, nil
}

func (r *GormTeamRepository) UpdateInvitation(ctx context.Context, invitation *models.TeamInvitation) error {
	found, err := saveAll(r.db.WithContext(ctx), invitation, &models.TeamInvitation{}, invitation.ID)
	if err != nil {
		return r.fail("update invitation", err)
	}
	if !found {
		return apperr.NotFound("invitation", invitation.ID)
	}
	return nil
}

// AcceptInvitation creates or activates the membership and marks the invitation accepted.
func (r *GormTeamRepository) AcceptInvitation(ctx context.Context, invitation *models.TeamInvitation, member *models.TeamMember) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.TeamMember
		found, err := first(tx.Where("team_id = ? AND user_id = ?", member.TeamID, member.UserID), &existing)
		if err != nil {
			return err
		}

		if found {
			if existing.Status == models.MemberStatusActive {
				return apperr.Conflict("user is already a member of this team")
			}
			member.ID = existing.ID
			member.CreatedAt = existing.CreatedAt
			if _, err := saveAll(tx, member, &models.TeamMember{}, member.ID); err != nil {
				return err
			}
		} else if err := tx.Create(member).Error; err != nil {
			return err
		}

		result := tx.Model(&models.TeamInvitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationStatusPending).
			Update("status", models.InvitationStatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("invitation", invitation.ID)
		}
		invitation.Status = models.InvitationStatusAccepted
		return nil
	})
	return r.fail("accept invitation", err)
}

// ExpireInvitations marks pending invitations past their expiry as expired
func (r *GormTeamRepository) ExpireInvitations(ctx context.Context, now int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.TeamInvitation{}).
		Where("status = ? AND expires_at <= ?", models.InvitationStatusPending, now).
		Update("status", models.InvitationStatusExpired)
	if result.Error != nil {
		return 0, r.fail("expire invitations", result.Error)
	}
	return result.RowsAffected, nil
}
