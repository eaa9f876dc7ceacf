package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) emailTaken(email, exceptID string) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	if r.emailTaken(user.Email, "") {
		return duplicate(apperr.DomainUser, "create user")
	}
	stamp(&user.ID, &user.CreatedAt, &user.UpdatedAt, r.s.now())
	if _, ok := r.s.users[user.ID]; ok {
		return duplicate(apperr.DomainUser, "create user")
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return apperr.NotFound("user", user.ID)
	}
	user.Email = strings.ToLower(user.Email)
	if r.emailTaken(user.Email, user.ID) {
		return duplicate(apperr.DomainUser, "update user")
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return apperr.NotFound("user", id)
	}
	for token, s := range r.s.sessions {
		if s.UserID == id {
			delete(r.s.sessions, token)
		}
	}
	for token, t := range r.s.verifyTokens {
		if t.UserID == id {
			delete(r.s.verifyTokens, token)
		}
	}
	for token, t := range r.s.resetTokens {
		if t.UserID == id {
			delete(r.s.resetTokens, token)
		}
	}
	for mid, m := range r.s.members {
		if m.UserID == id {
			delete(r.s.members, mid)
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r *userRepository) List(_ context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := models.SearchText(strings.TrimSpace(filter.Search))
	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if search != "" && !strings.Contains(models.SearchText(u.Name, u.Email), search) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})

	return paginate(users, filter.Page, filter.PageSize), int64(len(users)), nil
}

func (r *userRepository) ChangePassword(_ context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *userRepository) CreateEmailVerificationToken(_ context.Context, token *models.EmailVerificationToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.verifyTokens[token.Token]; ok {
		return duplicate(apperr.DomainUser, "create verification token")
	}
	if token.CreatedAt == 0 {
		token.CreatedAt = r.s.now()
	}
	r.s.verifyTokens[token.Token] = *token
	return nil
}

func (r *userRepository) FindEmailVerificationToken(_ context.Context, token string) (*models.EmailVerificationToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.verifyTokens[token]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *userRepository) DeleteEmailVerificationToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.verifyTokens, token)
	return nil
}

func (r *userRepository) CreatePasswordResetToken(_ context.Context, token *models.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resetTokens[token.Token]; ok {
		return duplicate(apperr.DomainUser, "create reset token")
	}
	if token.CreatedAt == 0 {
		token.CreatedAt = r.s.now()
	}
	r.s.resetTokens[token.Token] = *token
	return nil
}

func (r *userRepository) FindPasswordResetToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.resetTokens[token]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *userRepository) DeletePasswordResetToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.resetTokens, token)
	return nil
}
