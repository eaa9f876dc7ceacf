package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/email"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/logging"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository/memory"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// outbox captures mail rendered by the email service.
type outbox struct {
	mu   sync.Mutex
	sent []email.Message
}

func (o *outbox) Send(_ context.Context, msg email.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]+)`)

// tokenFor returns the token of the last link mailed to address.
func (o *outbox) tokenFor(t *testing.T, address string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == address {
			m := tokenPattern.FindStringSubmatch(o.sent[i].Text)
			require.Len(t, m, 2)
			return m[1]
		}
	}
	t.Fatalf("no mail sent to %s", address)
	return ""
}

type memoryStorage struct {
	objects map[string][]byte
}

func (s *memoryStorage) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	outbox *outbox
}

func newTestServer(t *testing.T, withStorage bool) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()

	store := memory.NewStore()
	require.NoError(t, authz.SeedDefaults(ctx, store.Roles(), log))

	box := &outbox{}
	mailer := email.NewService(box, "http://app.test")
	hasher := services.NewBcryptHasher(bcrypt.MinCost)
	authorizer := authz.NewAuthorizer(store.Teams(), store.Roles())

	var avatars services.AvatarStorage
	if withStorage {
		avatars = &memoryStorage{objects: map[string][]byte{}}
	}

	svc := Services{
		Auth:  services.NewAuthService(store.Users(), store.Sessions(), hasher, mailer, log, time.Hour),
		Users: services.NewUserService(store.Users(), store.Sessions(), store.Teams(), store.Roles(), hasher, avatars, log),
		Teams: services.NewTeamService(store.Teams(), store.Users(), store.Roles(), authorizer, mailer, log),
		OKRs:  services.NewOKRService(store.Okrs(), authorizer, nil, log),
		Roles: services.NewRoleService(store.Roles()),
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	RegisterRoutes(r, svc, authorizer, log)

	return &testServer{router: r, store: store, outbox: box}
}

// client is a signed-in user with its session cookies.
type client struct {
	id      string
	email   string
	cookies []*http.Cookie
}

func (s *testServer) request(t *testing.T, c *client, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c != nil {
		for _, ck := range c.cookies {
			req.AddCookie(ck)
		}
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in a user.
func (s *testServer) signup(t *testing.T, address string) *client {
	t.Helper()

	w := s.request(t, nil, http.MethodPost, "/api/auth/register", map[string]string{
		"email": address, "name": address, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user struct {
		ID string `json:"id"`
	}
	decode(t, w, &user)

	w = s.request(t, nil, http.MethodPost, "/api/auth/login", map[string]string{
		"email": address, "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	return &client{id: user.ID, email: address, cookies: cookies}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}
