package email

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestService_SendVerification(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "https://okr.example.com")

	err := svc.SendVerification(context.Background(), &models.User{Email: "alice@example.com", Name: "<Alice>"}, "tok/en")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Verify your email address", msg.Subject)
	assert.Contains(t, msg.Text, "https://okr.example.com/verify-email?token=tok%2Fen")
	assert.Contains(t, msg.HTML, "&lt;Alice&gt;")
	assert.NotContains(t, msg.HTML, "<Alice>")
}

func TestService_SendPasswordReset(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "https://okr.example.com")

	require.NoError(t, svc.SendPasswordReset(context.Background(), &models.User{Email: "bob@example.com"}, "abc"))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "https://okr.example.com/reset-password?token=abc")
}

func TestService_SendTeamInvitation(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "https://okr.example.com")

	invitation := &models.TeamInvitation{Email: "carol@example.com", Token: "xyz"}
	team := &models.Team{Name: "Growth"}

	require.NoError(t, svc.SendTeamInvitation(context.Background(), invitation, team, &models.User{Name: "Alice"}))
	require.NoError(t, svc.SendTeamInvitation(context.Background(), invitation, team, nil))
	require.Len(t, sender.sent, 2)

	assert.Equal(t, "carol@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Text, "Alice invited you to join Growth.")
	assert.Contains(t, sender.sent[0].HTML, "https://okr.example.com/invitations/accept?token=xyz")
	assert.Contains(t, sender.sent[1].Text, "A teammate invited you")
}

func TestSMTPSender_Message(t *testing.T) {
	sender := NewSMTPSender("smtp.example.com", 587, "user", "pass", "no-reply@example.com", "OKR Manager")

	var buf bytes.Buffer
	_, err := sender.message(Message{To: "alice@example.com", Subject: "Hello", Text: "plain body", HTML: "<p>html body</p>"}).WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "To: alice@example.com")
	assert.Contains(t, raw, "Subject: Hello")
	assert.Contains(t, raw, "no-reply@example.com")
	assert.Contains(t, raw, "plain body")
	assert.Contains(t, raw, "<p>html body</p>")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	sender := NewSMTPSender("127.0.0.1", 1, "", "", "no-reply@example.com", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sender.Send(ctx, Message{To: "alice@example.com"}), context.Canceled)
}

func TestSendGridSender(t *testing.T) {
	var payload map[string]interface{}
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"errors":[{"message":"bad"}]}`))
		}
	}))
	defer srv.Close()

	sender := NewSendGridSender("sg-key", "no-reply@example.com", "OKR Manager")
	sender.baseURL = srv.URL

	err := sender.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Text: "text", HTML: "<p>html</p>"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", payload["subject"])

	status = http.StatusBadRequest
	err = sender.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Text: "text", HTML: "<p>html</p>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestSendGridSender_RequiresKeyAndRecipient(t *testing.T) {
	assert.Error(t, NewSendGridSender("", "a@example.com", "").Send(context.Background(), Message{To: "b@example.com"}))
	assert.Error(t, NewSendGridSender("key", "a@example.com", "").Send(context.Background(), Message{}))
}

func TestLogSender(t *testing.T) {
	log, hook := test.NewNullLogger()
	sender := NewLogSender(log)

	require.NoError(t, sender.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi"}))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "alice@example.com", entry.Data["to"])
}
