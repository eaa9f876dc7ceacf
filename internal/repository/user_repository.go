package repository

import (
	"context"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/database"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) fail(op string, err error) error {
	return apperr.Repository(apperr.DomainUser, op, err)
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	user.SearchText = models.SearchText(user.Name, user.Email)
	return r.fail("create user", r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &user)
	if err != nil || !found {
		return nil, r.fail("find user", err)
	}
	return &user, nil
}

// FindByEmail finds a user by email address
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := first(r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)), &user)
	if err != nil || !found {
		return nil, r.fail("find user by email", err)
	}
	return &user, nil
}

// Update saves all user fields
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	user.SearchText = models.SearchText(user.Name, user.Email)
	found, err := saveAll(r.db.WithContext(ctx), user, &models.User{}, user.ID)
	if err != nil {
		return r.fail("update user", err)
	}
	if !found {
		return apperr.NotFound("user", user.ID)
	}
	return nil
}

// Delete deletes a user together with their sessions, tokens and team memberships
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.EmailVerificationToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("user", id)
		}
		return nil
	})
	return r.fail("delete user", err)
}

// List retrieves users with filtering and pagination
func (r *GormUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("search_text LIKE ? ESCAPE '"+likeEscape+"'", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.fail("count users", err)
	}

	listQuery := query.Order("name ASC").Order("id ASC")
	listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))

	var users []models.User
	if err := listQuery.Find(&users).Error; err != nil {
		return nil, 0, r.fail("list users", err)
	}
	return users, total, nil
}

// ChangePassword replaces the stored password hash
func (r *GormUserRepository) ChangePassword(ctx context.Context, id, passwordHash string) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return r.fail("change password", result.Error)
	}
	if result.RowsAffected == 0 {
		found, err := exists(db, &models.User{}, id)
		if err != nil {
			return r.fail("change password", err)
		}
		if !found {
			return apperr.NotFound("user", id)
		}
	}
	return nil
}

func (r *GormUserRepository) CreateEmailVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error {
	return r.fail("create verification token", r.db.WithContext(ctx).Create(token).Error)
}

func (r *GormUserRepository) FindEmailVerificationToken(ctx context.Context, token string) (*models.EmailVerificationToken, error) {
	var t models.EmailVerificationToken
	found, err := first(r.db.WithContext(ctx).Where("token = ?", token), &t)
	if err != nil || !found {
		return nil, r.fail("find verification token", err)
	}
	return &t, nil
}

func (r *GormUserRepository) DeleteEmailVerificationToken(ctx context.Context, token string) error {
	return r.fail("delete verification token",
		r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.EmailVerificationToken{}).Error)
}

func (r *GormUserRepository) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return r.fail("create reset token", r.db.WithContext(ctx).Create(token).Error)
}

func (r *GormUserRepository) FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	found, err := first(r.db.WithContext(ctx).Where("token = ?", token), &t)
	if err != nil || !found {
		return nil, r.fail("find reset token", err)
	}
	return &t, nil
}

func (r *GormUserRepository) DeletePasswordResetToken(ctx context.Context, token string) error {
	return r.fail("delete reset token",
		r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.PasswordResetToken{}).Error)
}
