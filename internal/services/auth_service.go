package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/utils"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/validation"
)

const invalidCredentials = "invalid email or password"

// AuthService handles registration, credentials and sessions.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	hasher     PasswordHasher
	mailer     Mailer
	log        logrus.FieldLogger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher PasswordHasher,
	mailer Mailer,
	log logrus.FieldLogger,
	sessionTTL time.Duration,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = constants.DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		mailer:     mailer,
		log:        log,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,max=255,email_format"`
	Name     string `json:"name" validate:"notblank,max=100"`
	Password string `json:"password" validate:"required,min=8,bcrypt_len"`
}

// Register creates a user and sends an email verification link.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("email is already registered")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user)
	return user, nil
}

// sendVerification issues a verification token. Failures are logged only;
// registration has already succeeded.
func (s *AuthService) sendVerification(ctx context.Context, user *models.User) {
	log := s.log.WithField("user_id", user.ID)

	token, err := utils.GenerateToken(constants.VerificationTokenBytes)
	if err != nil {
		log.WithError(err).Error("Failed to generate verification token")
		return
	}

	record := &models.EmailVerificationToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: models.ToMillis(s.now().Add(constants.EmailVerificationTTL)),
	}
	if err := s.users.CreateEmailVerificationToken(ctx, record); err != nil {
		log.WithError(err).Error("Failed to store verification token")
		return
	}

	if err := s.mailer.SendVerification(ctx, user, token); err != nil {
		log.WithError(err).Warn("Failed to send verification email")
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a new session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, *models.Session, error) {
	if err := validation.Struct(input); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !s.hasher.Verify(user.PasswordHash, input.Password) {
		return nil, nil, apperr.Unauthenticated(invalidCredentials)
	}

	token, err := utils.GenerateToken(constants.SessionTokenBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: models.ToMillis(s.now().Add(s.sessionTTL)),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return user, session, nil
}

// Logout revokes the session identified by token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// ValidateSession resolves a session token to its user. Sessions in the
// second half of their lifetime are extended by a full TTL.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, apperr.Unauthenticated("")
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, apperr.Unauthenticated("session not found")
	}

	now := s.now()
	if session.IsExpired(models.ToMillis(now)) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.log.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, nil, apperr.Unauthenticated("session expired")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.log.WithError(err).Warn("Failed to delete orphaned session")
		}
		return nil, nil, apperr.Unauthenticated("session not found")
	}

	remaining := models.FromMillis(session.ExpiresAt).Sub(now)
	if remaining < s.sessionTTL/2 {
		expiresAt := models.ToMillis(now.Add(s.sessionTTL))
		if err := s.sessions.UpdateExpiry(ctx, token, expiresAt); err != nil {
			return nil, nil, err
		}
		session.ExpiresAt = expiresAt
	}

	return user, session, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", id)
	}
	return user, nil
}

// VerifyEmail marks the owner of token as verified. Tokens are single use.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	record, err := s.users.FindEmailVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil || record.ExpiresAt <= models.ToMillis(s.now()) {
		return nil, apperr.InvalidField("token", "is invalid or expired")
	}

	user, err := s.GetUser(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	user.EmailVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.DeleteEmailVerificationToken(ctx, token); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := utils.GenerateToken(constants.VerificationTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	record := &models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: models.ToMillis(s.now().Add(constants.PasswordResetTTL)),
	}
	if err := s.users.CreatePasswordResetToken(ctx, record); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user, token); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("Failed to send password reset email")
	}
	return nil
}

// ResetPasswordInput holds a reset token and the new password.
type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,bcrypt_len"`
}

// ResetPassword sets a new password and revokes every session of the user.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	record, err := s.users.FindPasswordResetToken(ctx, input.Token)
	if err != nil {
		return err
	}
	if record == nil || record.ExpiresAt <= models.ToMillis(s.now()) {
		return apperr.InvalidField("token", "is invalid or expired")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return err
	}
	if err := s.users.ChangePassword(ctx, record.UserID, hash); err != nil {
		return err
	}
	if err := s.users.DeletePasswordResetToken(ctx, input.Token); err != nil {
		return err
	}
	return s.sessions.DeleteByUserID(ctx, record.UserID)
}
