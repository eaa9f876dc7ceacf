package authz

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

// SeedDefaults creates the permission catalog and the default roles. Existing
// rows are reused, so running it repeatedly is safe.
func SeedDefaults(ctx context.Context, roles repository.RoleRepository, log logrus.FieldLogger) error {
	permissionIDs := make(map[string]string, len(Catalog))
	for _, def := range Catalog {
		p, err := roles.FindPermissionByName(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("find permission %s: %w", def.Name, err)
		}
		if p == nil {
			p = &models.Permission{Name: def.Name, Description: def.Description}
			if err := roles.CreatePermission(ctx, p); err != nil {
				return fmt.Errorf("create permission %s: %w", def.Name, err)
			}
			log.WithField("permission", def.Name).Debug("Seeded permission")
		}
		permissionIDs[def.Name] = p.ID
	}

	for _, def := range DefaultRoles {
		role, err := roles.FindRoleByName(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("find role %s: %w", def.Name, err)
		}
		if role == nil {
			role = &models.Role{Name: def.Name, Description: def.Description}
			if err := roles.CreateRole(ctx, role); err != nil {
				return fmt.Errorf("create role %s: %w", def.Name, err)
			}
			log.WithField("role", def.Name).Info("Seeded role")
		}

		for _, name := range def.Permissions {
			if err := roles.AssignPermission(ctx, role.ID, permissionIDs[name]); err != nil {
				return fmt.Errorf("grant %s to %s: %w", name, def.Name, err)
			}
		}
	}

	return nil
}
