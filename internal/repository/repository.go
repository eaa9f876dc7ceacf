package repository

import (
	"context"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

// Find* methods return (nil, nil) when the record does not exist. Mutations
// addressing a missing record return *apperr.NotFoundError. Storage failures
// are returned as *apperr.RepositoryError.

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves all user fields
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user together with their sessions, tokens and team memberships
	Delete(ctx context.Context, id string) error

	// List retrieves users with filtering and pagination
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// ChangePassword replaces the stored password hash
	ChangePassword(ctx context.Context, id, passwordHash string) error

	CreateEmailVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, token string) (*models.EmailVerificationToken, error)
	DeleteEmailVerificationToken(ctx context.Context, token string) error

	CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	DeletePasswordResetToken(ctx context.Context, token string) error
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Search   string
	Page     int
	PageSize int
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	// Create stores a new session
	Create(ctx context.Context, session *models.Session) error

	// FindByToken finds a session by its token
	FindByToken(ctx context.Context, token string) (*models.Session, error)

	// FindByUserID lists the sessions of a user
	FindByUserID(ctx context.Context, userID string) ([]models.Session, error)

	// UpdateExpiry moves the expiry of a session
	UpdateExpiry(ctx context.Context, token string, expiresAt int64) error

	// Delete removes a session by token
	Delete(ctx context.Context, token string) error

	// DeleteByUserID removes every session of a user
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired removes sessions that expired before now and returns how many were removed
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

// TeamRepository defines the interface for team, membership and invitation data access
type TeamRepository interface {
	// CreateWithOwner creates a team and its first member in one transaction
	CreateWithOwner(ctx context.Context, team *models.Team, owner *models.TeamMember) error

	// FindByID finds a team by ID
	FindByID(ctx context.Context, id string) (*models.Team, error)

	// Update updates a team
	Update(ctx context.Context, team *models.Team) error

	// Delete deletes a team with its members, invitations, objectives and key results
	Delete(ctx context.Context, id string) error

	// ListForUser lists the teams a user is an active member of
	ListForUser(ctx context.Context, userID string) ([]models.Team, error)

	// AddMember adds a member to a team
	AddMember(ctx context.Context, member *models.TeamMember) error

	// FindMember finds a specific team member
	FindMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error)

	// UpdateMember saves a membership
	UpdateMember(ctx context.Context, member *models.TeamMember) error

	// RemoveMember hard deletes a membership
	RemoveMember(ctx context.Context, teamID, userID string) error

	// ListMembers lists all members of a team
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)

	CreateInvitation(ctx context.Context, invitation *models.TeamInvitation) error
	FindInvitationByID(ctx context.Context, id string) (*models.TeamInvitation, error)
	FindInvitationByToken(ctx context.Context, token string) (*models.TeamInvitation, error)
	FindPendingInvitation(ctx context.Context, teamID, email string) (*models.TeamInvitation, error)
	ListInvitations(ctx context.Context, teamID string) ([]models.TeamInvitation, error)
	UpdateInvitation(ctx context.Context, invitation *models.TeamInvitation) error

	// AcceptInvitation stores the membership and marks the invitation accepted atomically.
	// An existing membership row for the same user is activated instead of duplicated.
	AcceptInvitation(ctx context.Context, invitation *models.TeamInvitation, member *models.TeamMember) error

	// ExpireInvitations marks pending invitations past their expiry as expired
	ExpireInvitations(ctx context.Context, now int64) (int64, error)
}

// OkrRepository defines the interface for objective and key result data access
type OkrRepository interface {
	CreateObjective(ctx context.Context, objective *models.Objective) error

	// FindObjectiveByID finds an objective with its key results
	FindObjectiveByID(ctx context.Context, id string) (*models.Objective, error)

	// UpdateObjective saves all objective fields
	UpdateObjective(ctx context.Context, objective *models.Objective) error

	// DeleteObjective deletes an objective and its key results in one transaction
	DeleteObjective(ctx context.Context, id string) error

	// ListObjectives retrieves objectives with filtering, sorting and pagination.
	// The count is the filtered total before pagination.
	ListObjectives(ctx context.Context, filter ObjectiveFilter) ([]models.Objective, int64, error)

	CreateKeyResult(ctx context.Context, keyResult *models.KeyResult) error
	FindKeyResultByID(ctx context.Context, id string) (*models.KeyResult, error)
	ListKeyResults(ctx context.Context, objectiveID string) ([]models.KeyResult, error)
	UpdateKeyResult(ctx context.Context, keyResult *models.KeyResult) error
	DeleteKeyResult(ctx context.Context, id string) error

	// UpdateKeyResultProgress sets only the current value
	UpdateKeyResultProgress(ctx context.Context, id string, currentValue float64) (*models.KeyResult, error)

	IsObjectiveOwner(ctx context.Context, objectiveID, userID string) (bool, error)
	CanUserAccessObjective(ctx context.Context, objectiveID, userID string) (bool, error)
	CanUserEditObjective(ctx context.Context, objectiveID, userID string) (bool, error)

	// GetDashboardStats summarises the objectives owned by a user
	GetDashboardStats(ctx context.Context, userID string) (*models.DashboardStats, error)
}

// Sort fields accepted by ListObjectives
const (
	SortByTitle     = "title"
	SortByStatus    = "status"
	SortByType      = "type"
	SortByStartDate = "startDate"
	SortByEndDate   = "endDate"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ObjectiveSortColumns maps sort fields to column names
var ObjectiveSortColumns = map[string]string{
	SortByTitle:     "title",
	SortByStatus:    "status",
	SortByType:      "type",
	SortByStartDate: "start_date",
	SortByEndDate:   "end_date",
	SortByCreatedAt: "created_at",
	SortByUpdatedAt: "updated_at",
}

// ObjectiveFilter holds filtering options for listing objectives
type ObjectiveFilter struct {
	Search   string
	Type     *models.ObjectiveType
	Status   *models.ObjectiveStatus
	OwnerID  *string
	TeamID   *string
	ParentID *string

	// VisibleTo restricts results to objectives the user can access
	VisibleTo *string

	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Normalized returns the filter with sort defaults applied.
func (f ObjectiveFilter) Normalized() ObjectiveFilter {
	if _, ok := ObjectiveSortColumns[f.SortBy]; !ok {
		f.SortBy = SortByCreatedAt
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
	return f
}

// RoleRepository defines the interface for roles and permissions
type RoleRepository interface {
	CreateRole(ctx context.Context, role *models.Role) error
	FindRoleByID(ctx context.Context, id string) (*models.Role, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	UpdateRole(ctx context.Context, role *models.Role) error

	// DeleteRole deletes a role and its permission grants
	DeleteRole(ctx context.Context, id string) error

	// ListRoles lists roles with their permissions
	ListRoles(ctx context.Context) ([]models.Role, error)

	CreatePermission(ctx context.Context, permission *models.Permission) error
	FindPermissionByName(ctx context.Context, name string) (*models.Permission, error)
	ListPermissions(ctx context.Context) ([]models.Permission, error)

	// AssignPermission grants a permission to a role; granting twice is a no-op
	AssignPermission(ctx context.Context, roleID, permissionID string) error
	RevokePermission(ctx context.Context, roleID, permissionID string) error
	ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error)

	// HasPermission reports whether the role grants the named permission
	HasPermission(ctx context.Context, roleID, permissionName string) (bool, error)

	// GetUserPermissions returns the permission names granted through the user's
	// active memberships, limited to one team when teamID is set
	GetUserPermissions(ctx context.Context, userID string, teamID *string) ([]string, error)
}
