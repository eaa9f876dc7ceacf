// Package memory provides map-backed implementations of the repository
// interfaces. They follow the same contracts as the GORM repositories and are
// used by service tests and local tooling.
package memory

import (
	"errors"
	"sync"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

var errDuplicate = errors.New("unique constraint violated")

// Store holds every table in memory. Repositories returned by a Store share
// its data so cascades behave like the relational schema.
type Store struct {
	mu sync.RWMutex

	users        map[string]models.User
	sessions     map[string]models.Session
	verifyTokens map[string]models.EmailVerificationToken
	resetTokens  map[string]models.PasswordResetToken

	teams       map[string]models.Team
	members     map[string]models.TeamMember
	invitations map[string]models.TeamInvitation

	roles       map[string]models.Role
	permissions map[string]models.Permission
	grants      map[string]map[string]struct{}

	objectives map[string]models.Objective
	keyResults map[string]models.KeyResult

	now func() int64
}

func NewStore() *Store {
	return &Store{
		users:        map[string]models.User{},
		sessions:     map[string]models.Session{},
		verifyTokens: map[string]models.EmailVerificationToken{},
		resetTokens:  map[string]models.PasswordResetToken{},
		teams:        map[string]models.Team{},
		members:      map[string]models.TeamMember{},
		invitations:  map[string]models.TeamInvitation{},
		roles:        map[string]models.Role{},
		permissions:  map[string]models.Permission{},
		grants:       map[string]map[string]struct{}{},
		objectives:   map[string]models.Objective{},
		keyResults:   map[string]models.KeyResult{},
		now:          models.NowMillis,
	}
}

func (s *Store) Users() repository.UserRepository       { return &userRepository{s} }
func (s *Store) Sessions() repository.SessionRepository { return &sessionRepository{s} }
func (s *Store) Teams() repository.TeamRepository       { return &teamRepository{s} }
func (s *Store) Okrs() repository.OkrRepository         { return &okrRepository{s} }
func (s *Store) Roles() repository.RoleRepository       { return &roleRepository{s} }

func duplicate(domain apperr.Domain, op string) error {
	return apperr.Repository(domain, op, errDuplicate)
}

func stamp(id *string, createdAt, updatedAt *int64, now int64) {
	if *id == "" {
		*id = models.NewID()
	}
	if *createdAt == 0 {
		*createdAt = now
	}
	if updatedAt != nil && *updatedAt == 0 {
		*updatedAt = now
	}
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page <= 0 || pageSize <= 0 {
		return items
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
