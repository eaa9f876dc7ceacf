package memory

import (
	"context"
	"sort"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

type roleRepository struct {
	s *Store
}

func (r *roleRepository) permissionsOf(roleID string) []models.Permission {
	permissions := []models.Permission{}
	for pid := range r.s.grants[roleID] {
		if p, ok := r.s.permissions[pid]; ok {
			permissions = append(permissions, p)
		}
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Name < permissions[j].Name })
	return permissions
}

func (r *roleRepository) CreateRole(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return duplicate(apperr.DomainRole, "create role")
		}
	}
	stamp(&role.ID, &role.CreatedAt, &role.UpdatedAt, r.s.now())
	stored := *role
	stored.Permissions = nil
	r.s.roles[role.ID] = stored
	return nil
}

func (r *roleRepository) FindRoleByID(_ context.Context, id string) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id]
	if !ok {
		return nil, nil
	}
	role.Permissions = r.permissionsOf(role.ID)
	return &role, nil
}

func (r *roleRepository) FindRoleByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if role.Name == name {
			role.Permissions = r.permissionsOf(role.ID)
			return &role, nil
		}
	}
	return nil, nil
}

func (r *roleRepository) UpdateRole(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.roles[role.ID]
	if !ok {
		return apperr.NotFound("role", role.ID)
	}
	for _, other := range r.s.roles {
		if other.Name == role.Name && other.ID != role.ID {
			return duplicate(apperr.DomainRole, "update role")
		}
	}
	role.CreatedAt = existing.CreatedAt
	role.UpdatedAt = r.s.now()
	stored := *role
	stored.Permissions = nil
	r.s.roles[role.ID] = stored
	return nil
}

func (r *roleRepository) DeleteRole(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[id]; !ok {
		return apperr.NotFound("role", id)
	}
	delete(r.s.grants, id)
	delete(r.s.roles, id)
	return nil
}

func (r *roleRepository) ListRoles(_ context.Context) ([]models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := make([]models.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		role.Permissions = r.permissionsOf(role.ID)
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (r *roleRepository) CreatePermission(_ context.Context, permission *models.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.permissions {
		if existing.Name == permission.Name {
			return duplicate(apperr.DomainRole, "create permission")
		}
	}
	if permission.ID == "" {
		permission.ID = models.NewID()
	}
	if permission.CreatedAt == 0 {
		permission.CreatedAt = r.s.now()
	}
	r.s.permissions[permission.ID] = *permission
	return nil
}

func (r *roleRepository) FindPermissionByName(_ context.Context, name string) (*models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.permissions {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *roleRepository) ListPermissions(_ context.Context) ([]models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	permissions := make([]models.Permission, 0, len(r.s.permissions))
	for _, p := range r.s.permissions {
		permissions = append(permissions, p)
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Name < permissions[j].Name })
	return permissions, nil
}

func (r *roleRepository) AssignPermission(_ context.Context, roleID, permissionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[roleID]; !ok {
		return apperr.NotFound("role", roleID)
	}
	if _, ok := r.s.permissions[permissionID]; !ok {
		return apperr.NotFound("permission", permissionID)
	}
	if r.s.grants[roleID] == nil {
		r.s.grants[roleID] = map[string]struct{}{}
	}
	r.s.grants[roleID][permissionID] = struct{}{}
	return nil
}

func (r *roleRepository) RevokePermission(_ context.Context, roleID, permissionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.grants[roleID], permissionID)
	return nil
}

func (r *roleRepository) ListRolePermissions(_ context.Context, roleID string) ([]models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.permissionsOf(roleID), nil
}

func (r *roleRepository) HasPermission(_ context.Context, roleID, permissionName string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for pid := range r.s.grants[roleID] {
		if p, ok := r.s.permissions[pid]; ok && p.Name == permissionName {
			return true, nil
		}
	}
	return false, nil
}

func (r *roleRepository) GetUserPermissions(_ context.Context, userID string, teamID *string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, m := range r.s.members {
		if m.UserID != userID || m.Status != models.MemberStatusActive {
			continue
		}
		if teamID != nil && m.TeamID != *teamID {
			continue
		}
		for _, p := range r.permissionsOf(m.RoleID) {
			seen[p.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
