package services

import (
	"context"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

// RoleService exposes roles and the caller's effective permissions.
type RoleService struct {
	roles repository.RoleRepository
}

// NewRoleService creates a new RoleService.
func NewRoleService(roles repository.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

// ListRoles returns every role with its permissions.
func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.roles.ListRoles(ctx)
}

// GetUserPermissions returns the permission names the user holds through
// active memberships, optionally limited to one team.
func (s *RoleService) GetUserPermissions(ctx context.Context, userID string, teamID *string) ([]string, error) {
	permissions, err := s.roles.GetUserPermissions(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if permissions == nil {
		permissions = []string{}
	}
	return permissions, nil
}
