package repository

import (
	"context"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRoleRepository is a GORM implementation of RoleRepository
type GormRoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

func (r *GormRoleRepository) fail(op string, err error) error {
	return apperr.Repository(apperr.DomainRole, op, err)
}

// CreateRole creates a role. Role names are unique.
func (r *GormRoleRepository) CreateRole(ctx context.Context, role *models.Role) error {
	return r.fail("create role", r.db.WithContext(ctx).Create(role).Error)
}

func (r *GormRoleRepository) FindRoleByID(ctx context.Context, id string) (*models.Role, error) {
	return r.findRole(ctx, "id = ?", id)
}

func (r *GormRoleRepository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	return r.findRole(ctx, "name = ?", name)
}

func (r *GormRoleRepository) findRole(ctx context.Context, cond string, arg string) (*models.Role, error) {
	var role models.Role
	found, err := first(r.db.WithContext(ctx).Where(cond, arg), &role)
	if err != nil || !found {
		return nil, r.fail("find role", err)
	}

	permissions, err := r.ListRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = permissions
	return &role, nil
}

func (r *GormRoleRepository) UpdateRole(ctx context.Context, role *models.Role) error {
	found, err := saveAll(r.db.WithContext(ctx), role, &models.Role{}, role.ID)
	if err != nil {
		return r.fail("update role", err)
	}
	if !found {
		return apperr.NotFound("role", role.ID)
	}
	return nil
}

// DeleteRole deletes a role and its permission grants
func (r *GormRoleRepository) DeleteRole(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Role{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("role", id)
		}
		return nil
	})
	return r.fail("delete role", err)
}

// ListRoles lists roles with their permissions
func (r *GormRoleRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, r.fail("list roles", err)
	}

	for i := range roles {
		permissions, err := r.ListRolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = permissions
	}
	return roles, nil
}

func (r *GormRoleRepository) CreatePermission(ctx context.Context, permission *models.Permission) error {
	return r.fail("create permission", r.db.WithContext(ctx).Create(permission).Error)
}

func (r *GormRoleRepository) FindPermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	var permission models.Permission
	found, err := first(r.db.WithContext(ctx).Where("name = ?", name), &permission)
	if err != nil || !found {
		return nil, r.fail("find permission", err)
	}
	return &permission, nil
}

func (r *GormRoleRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&permissions).Error; err != nil {
		return nil, r.fail("list permissions", err)
	}
	return permissions, nil
}

// AssignPermission grants a permission to a role; granting twice is a no-op
func (r *GormRoleRepository) AssignPermission(ctx context.Context, roleID, permissionID string) error {
	grant := models.RolePermission{RoleID: roleID, PermissionID: permissionID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error
	return r.fail("assign permission", err)
}

func (r *GormRoleRepository) RevokePermission(ctx context.Context, roleID, permissionID string) error {
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{}).Error
	return r.fail("revoke permission", err)
}

func (r *GormRoleRepository) ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error) {
	var permissions []models.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.name ASC").
		Find(&permissions).Error
	if err != nil {
		return nil, r.fail("list role permissions", err)
	}
	return permissions, nil
}

// HasPermission reports whether the role grants the named permission
func (r *GormRoleRepository) HasPermission(ctx context.Context, roleID, permissionName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RolePermission{}).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id = ? AND permissions.name = ?", roleID, permissionName).
		Count(&count).Error
	if err != nil {
		return false, r.fail("check permission", err)
	}
	return count > 0, nil
}

// GetUserPermissions returns the permission names granted through active memberships
func (r *GormRoleRepository) GetUserPermissions(ctx context.Context, userID string, teamID *string) ([]string, error) {
	query := r.db.WithContext(ctx).Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN team_members ON team_members.role_id = role_permissions.role_id").
		Where("team_members.user_id = ? AND team_members.status = ?", userID, models.MemberStatusActive)
	if teamID != nil {
		query = query.Where("team_members.team_id = ?", *teamID)
	}

	var names []string
	if err := query.Distinct().Order("permissions.name ASC").Pluck("permissions.name", &names).Error; err != nil {
		return nil, r.fail("list user permissions", err)
	}
	return names, nil
}
