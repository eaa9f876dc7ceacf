// Package authz holds the permission catalog, the default roles and the
// team-scoped permission check used by every team mutation.
package authz

// Permission names as stored in the permissions table
const (
	TeamView         = "team:view"
	TeamUpdate       = "team:update"
	TeamDelete       = "team:delete"
	MemberAdd        = "member:add"
	MemberRemove     = "member:remove"
	MemberUpdateRole = "member:update_role"
	InvitationCreate = "invitation:create"
	InvitationCancel = "invitation:cancel"
	InvitationView   = "invitation:view"
	OkrCreate        = "okr:create"
)

// Default role names
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// PermissionDef describes a permission in the catalog.
type PermissionDef struct {
	Name        string
	Description string
}

// RoleDef describes a default role and the permissions it grants.
type RoleDef struct {
	Name        string
	Description string
	Permissions []string
}

// Catalog lists every permission known to the application.
var Catalog = []PermissionDef{
	{TeamView, "View team details and members"},
	{TeamUpdate, "Rename or describe the team"},
	{TeamDelete, "Delete the team"},
	{MemberAdd, "Add members to the team"},
	{MemberRemove, "Remove members from the team"},
	{MemberUpdateRole, "Change a member's role"},
	{InvitationCreate, "Invite people by email"},
	{InvitationCancel, "Cancel pending invitations"},
	{InvitationView, "View team invitations"},
	{OkrCreate, "Create objectives scoped to the team"},
}

// DefaultRoles are seeded at startup.
var DefaultRoles = []RoleDef{
	{
		Name:        RoleAdmin,
		Description: "Full control over the team",
		Permissions: allPermissions(),
	},
	{
		Name:        RoleMember,
		Description: "Works on team objectives",
		Permissions: []string{TeamView, InvitationView, OkrCreate},
	},
	{
		Name:        RoleViewer,
		Description: "Read-only access",
		Permissions: []string{TeamView},
	},
}

func allPermissions() []string {
	names := make([]string, len(Catalog))
	for i, p := range Catalog {
		names[i] = p.Name
	}
	return names
}
