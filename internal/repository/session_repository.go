package repository

import (
	"context"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
)

// GormSessionRepository is a GORM implementation of SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) fail(op string, err error) error {
	return apperr.Repository(apperr.DomainSession, op, err)
}

func (r *GormSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = models.NewID()
	}
	return r.fail("create session", r.db.WithContext(ctx).Create(session).Error)
}

func (r *GormSessionRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	found, err := first(r.db.WithContext(ctx).Where("token = ?", token), &session)
	if err != nil || !found {
		return nil, r.fail("find session", err)
	}
	return &session, nil
}

func (r *GormSessionRepository) FindByUserID(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, r.fail("list sessions", err)
	}
	return sessions, nil
}

func (r *GormSessionRepository) UpdateExpiry(ctx context.Context, token string, expiresAt int64) error {
	result := r.db.WithContext(ctx).Model(&models.Session{}).Where("token = ?", token).Update("expires_at", expiresAt)
	if result.Error != nil {
		return r.fail("update session expiry", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("session", "")
	}
	return nil
}

func (r *GormSessionRepository) Delete(ctx context.Context, token string) error {
	return r.fail("delete session", r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error)
}

func (r *GormSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return r.fail("delete user sessions", r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error)
}

func (r *GormSessionRepository) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, r.fail("delete expired sessions", result.Error)
	}
	return result.RowsAffected, nil
}
