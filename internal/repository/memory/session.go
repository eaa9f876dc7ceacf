package memory

import (
	"context"
	"sort"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

type sessionRepository struct {
	s *Store
}

func (r *sessionRepository) Create(_ context.Context, session *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[session.Token]; ok {
		return duplicate(apperr.DomainSession, "create session")
	}
	stamp(&session.ID, &session.CreatedAt, &session.UpdatedAt, r.s.now())
	r.s.sessions[session.Token] = *session
	return nil
}

func (r *sessionRepository) FindByToken(_ context.Context, token string) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *sessionRepository) FindByUserID(_ context.Context, userID string) ([]models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var sessions []models.Session
	for _, s := range r.s.sessions {
		if s.UserID == userID {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt > sessions[j].CreatedAt })
	return sessions, nil
}

func (r *sessionRepository) UpdateExpiry(_ context.Context, token string, expiresAt int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.sessions[token]
	if !ok {
		return apperr.NotFound("session", "")
	}
	s.ExpiresAt = expiresAt
	s.UpdatedAt = r.s.now()
	r.s.sessions[token] = s
	return nil
}

func (r *sessionRepository) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, token)
	return nil
}

func (r *sessionRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for token, s := range r.s.sessions {
		if s.UserID == userID {
			delete(r.s.sessions, token)
		}
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(_ context.Context, now int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for token, s := range r.s.sessions {
		if s.IsExpired(now) {
			delete(r.s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
