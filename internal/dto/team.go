package dto

import (
	"time"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedByID string    `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TeamMemberDTO represents a membership in API responses
type TeamMemberDTO struct {
	ID       string              `json:"id"`
	TeamID   string              `json:"teamId"`
	UserID   string              `json:"userId"`
	Role     string              `json:"role,omitempty"`
	Status   models.MemberStatus `json:"status"`
	JoinedAt *time.Time          `json:"joinedAt"`
	User     *UserSummaryDTO     `json:"user,omitempty"`
}

// InvitationDTO represents a team invitation. The token is never exposed.
type InvitationDTO struct {
	ID          string                  `json:"id"`
	TeamID      string                  `json:"teamId"`
	Email       string                  `json:"email"`
	RoleID      string                  `json:"roleId"`
	InvitedByID string                  `json:"invitedById"`
	Status      models.InvitationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expiresAt"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// PermissionDTO represents a permission in API responses
type PermissionDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoleDTO represents a role with its permissions
type RoleDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Permissions []PermissionDTO `json:"permissions"`
}

// ToTeamDTO converts a team to DTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatedByID: team.CreatedByID,
		CreatedAt:   models.FromMillis(team.CreatedAt),
		UpdatedAt:   models.FromMillis(team.UpdatedAt),
	}
}

// ToTeamDTOs converts a list of teams
func ToTeamDTOs(teams []models.Team) []TeamDTO {
	out := make([]TeamDTO, len(teams))
	for i, team := range teams {
		out[i] = ToTeamDTO(team)
	}
	return out
}

// ToTeamMemberDTO converts a membership to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	out := TeamMemberDTO{
		ID:     member.ID,
		TeamID: member.TeamID,
		UserID: member.UserID,
		Status: member.Status,
	}
	if member.JoinedAt != nil {
		joined := models.FromMillis(*member.JoinedAt)
		out.JoinedAt = &joined
	}
	return out
}

// ToMemberDetailDTO converts a membership with its user and role
func ToMemberDetailDTO(detail services.MemberDetail) TeamMemberDTO {
	out := ToTeamMemberDTO(detail.Member)
	if detail.User != nil {
		summary := ToUserSummaryDTO(*detail.User)
		out.User = &summary
	}
	if detail.Role != nil {
		out.Role = detail.Role.Name
	}
	return out
}

// ToInvitationDTO converts an invitation to DTO
func ToInvitationDTO(invitation models.TeamInvitation) InvitationDTO {
	return InvitationDTO{
		ID:          invitation.ID,
		TeamID:      invitation.TeamID,
		Email:       invitation.Email,
		RoleID:      invitation.RoleID,
		InvitedByID: invitation.InvitedByID,
		Status:      invitation.Status,
		ExpiresAt:   models.FromMillis(invitation.ExpiresAt),
		CreatedAt:   models.FromMillis(invitation.CreatedAt),
	}
}

// ToRoleDTO converts a role with its permissions
func ToRoleDTO(role models.Role) RoleDTO {
	permissions := make([]PermissionDTO, len(role.Permissions))
	for i, p := range role.Permissions {
		permissions[i] = PermissionDTO{Name: p.Name, Description: p.Description}
	}
	return RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: permissions,
	}
}
