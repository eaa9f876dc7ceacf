package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository/memory"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	Kind  string
	To    string
	Token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(kind, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Kind: kind, To: to, Token: token})
	return m.err
}

func (m *fakeMailer) SendVerification(_ context.Context, user *models.User, token string) error {
	return m.record("verification", user.Email, token)
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, user *models.User, token string) error {
	return m.record("reset", user.Email, token)
}

func (m *fakeMailer) SendTeamInvitation(_ context.Context, invitation *models.TeamInvitation, _ *models.Team, _ *models.User) error {
	return m.record("invitation", invitation.Email, invitation.Token)
}

func (m *fakeMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

type fakeStorage struct {
	keys []string
	err  error
}

func (s *fakeStorage) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fakeSuggester struct {
	suggestions []SuggestedKeyResult
	err         error
}

func (f *fakeSuggester) SuggestKeyResults(context.Context, *models.Objective) ([]SuggestedKeyResult, error) {
	return f.suggestions, f.err
}

var errBoom = errors.New("boom")

// env wires every service over one in-memory store.
type env struct {
	store  *memory.Store
	mailer *fakeMailer
	auth   *AuthService
	users  *UserService
	teams  *TeamService
	okrs   *OKRService
	roles  *RoleService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	log, _ := test.NewNullLogger()
	require.NoError(t, authz.SeedDefaults(ctx, store.Roles(), log))

	mailer := &fakeMailer{}
	hasher := NewBcryptHasher(bcrypt.MinCost)
	authorizer := authz.NewAuthorizer(store.Teams(), store.Roles())

	return &env{
		store:  store,
		mailer: mailer,
		auth:   NewAuthService(store.Users(), store.Sessions(), hasher, mailer, log, time.Hour),
		users:  NewUserService(store.Users(), store.Sessions(), store.Teams(), store.Roles(), hasher, &fakeStorage{}, log),
		teams:  NewTeamService(store.Teams(), store.Users(), store.Roles(), authorizer, mailer, log),
		okrs:   NewOKRService(store.Okrs(), authorizer, nil, log),
		roles:  NewRoleService(store.Roles()),
	}
}

func (e *env) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterInput{Email: email, Name: email, Password: "password123"})
	require.NoError(t, err)
	return user
}

// teamWith creates a team owned by owner and adds each user with the given role.
func (e *env) teamWith(t *testing.T, owner *models.User, members map[*models.User]string) *models.Team {
	t.Helper()
	ctx := context.Background()
	team, err := e.teams.CreateTeam(ctx, owner.ID, CreateTeamInput{Name: "Growth"})
	require.NoError(t, err)
	for user, role := range members {
		_, err := e.teams.AddMember(ctx, owner.ID, team.ID, AddMemberInput{UserID: user.ID, Role: role})
		require.NoError(t, err)
	}
	return team
}

func dates() (time.Time, time.Time) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0)
}

func ptr[T any](v T) *T {
	return &v
}
