package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/validation"
)

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// UserService manages the signed-in user's account.
type UserService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	teams    repository.TeamRepository
	roles    repository.RoleRepository
	hasher   PasswordHasher
	avatars  AvatarStorage
	log      logrus.FieldLogger
}

// NewUserService creates a new UserService. avatars may be nil when no
// object storage is configured.
func NewUserService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	teams repository.TeamRepository,
	roles repository.RoleRepository,
	hasher PasswordHasher,
	avatars AvatarStorage,
	log logrus.FieldLogger,
) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		teams:    teams,
		roles:    roles,
		hasher:   hasher,
		avatars:  avatars,
		log:      log,
	}
}

func (s *UserService) load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	return user, nil
}

// ChangePasswordInput holds the current and the new password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,bcrypt_len"`
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(user.PasswordHash, input.CurrentPassword) {
		return apperr.InvalidField("currentPassword", "is incorrect")
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	return s.users.ChangePassword(ctx, userID, hash)
}

// UpdateProfileInput holds optional profile changes.
type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=100"`
	Email *string `json:"email" validate:"omitempty,max=255,email_format"`
}

// UpdateProfile applies the provided fields. Changing the email address
// clears its verified flag.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &email
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && *input.Email != user.Email {
		other, err := s.users.FindByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, apperr.Conflict("email is already registered")
		}
		user.Email = *input.Email
		user.EmailVerified = false
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AvatarUpload describes an uploaded image.
type AvatarUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadAvatar stores the image and records its URL on the user.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, upload AvatarUpload) (*models.User, error) {
	if s.avatars == nil {
		return nil, ErrStorageNotConfigured
	}

	ext, ok := avatarExtensions[upload.ContentType]
	if !ok {
		return nil, apperr.InvalidField("avatar", "must be a png, jpeg or webp image")
	}
	if upload.Size <= 0 || upload.Size > constants.MaxAvatarBytes {
		return nil, apperr.InvalidField("avatar", fmt.Sprintf("must be at most %d bytes", constants.MaxAvatarBytes))
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", userID, models.NewID(), ext)
	url, err := s.avatars.Put(ctx, key, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	user.AvatarURL = &url
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "key": key}).Info("Avatar uploaded")
	return user, nil
}

// DeleteAccount removes the user, their sessions and their team memberships.
// Objectives they own are kept. A user who is the only active administrator
// of a team must hand the team over or delete it first.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.load(ctx, userID); err != nil {
		return err
	}
	if err := s.ensureNotSoleAdmin(ctx, userID); err != nil {
		return err
	}

	// Memberships, tokens and database sessions go in one transaction.
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	// External session stores (Redis) are outside that transaction. The user
	// no longer exists, so any session left behind fails validation anyway.
	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Failed to revoke sessions of deleted account")
	}

	s.log.WithField("user_id", userID).Info("Account deleted")
	return nil
}

// ensureNotSoleAdmin rejects the deletion when some team would be left
// without an active member able to delete it.
func (s *UserService) ensureNotSoleAdmin(ctx context.Context, userID string) error {
	teams, err := s.teams.ListForUser(ctx, userID)
	if err != nil {
		return err
	}

	admins := map[string]bool{}
	isAdmin := func(roleID string) (bool, error) {
		if ok, seen := admins[roleID]; seen {
			return ok, nil
		}
		ok, err := s.roles.HasPermission(ctx, roleID, authz.TeamDelete)
		if err != nil {
			return false, err
		}
		admins[roleID] = ok
		return ok, nil
	}

	for _, team := range teams {
		members, err := s.teams.ListMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		self, others := false, false
		for _, m := range members {
			if m.Status != models.MemberStatusActive {
				continue
			}
			ok, err := isAdmin(m.RoleID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if m.UserID == userID {
				self = true
			} else {
				others = true
			}
		}
		if self && !others {
			return apperr.Conflict(fmt.Sprintf("you are the only administrator of team %q; transfer the role or delete the team first", team.Name))
		}
	}
	return nil
}
