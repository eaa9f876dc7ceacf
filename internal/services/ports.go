package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed          = errors.New("hashing failed")
	ErrAIServiceNotConfigured = apperr.Unavailable("AI service")
	ErrStorageNotConfigured   = apperr.Unavailable("avatar storage")
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptHasher hashes passwords with bcrypt at the given cost.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher creates a hasher, falling back to bcrypt.DefaultCost for an out-of-range cost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.InvalidField("password", fmt.Sprintf("must be at most %d bytes", constants.MaxPasswordBytes))
	}
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Mailer delivers the application's transactional emails.
type Mailer interface {
	SendVerification(ctx context.Context, user *models.User, token string) error
	SendPasswordReset(ctx context.Context, user *models.User, token string) error
	SendTeamInvitation(ctx context.Context, invitation *models.TeamInvitation, team *models.Team, inviter *models.User) error
}

// AvatarStorage stores avatar images and returns their public URL.
type AvatarStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}
