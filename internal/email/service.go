// Package email renders account and team notifications and hands them to a
// delivery backend.
package email

import (
	"context"
	"net/url"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

const appName = "OKR Manager"

// Service renders notification mail and delivers it through a Sender.
type Service struct {
	sender Sender
	appURL string
}

func NewService(sender Sender, appURL string) *Service {
	return &Service{sender: sender, appURL: appURL}
}

func (s *Service) link(path, token string) string {
	return s.appURL + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) send(ctx context.Context, t mailTemplate, to string, data map[string]interface{}) error {
	data["AppName"] = appName
	msg, err := t.render(to, data)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

func (s *Service) SendVerification(ctx context.Context, user *models.User, token string) error {
	return s.send(ctx, verificationTemplate, user.Email, map[string]interface{}{
		"Name": user.Name,
		"Link": s.link("/verify-email", token),
	})
}

func (s *Service) SendPasswordReset(ctx context.Context, user *models.User, token string) error {
	return s.send(ctx, passwordResetTemplate, user.Email, map[string]interface{}{
		"Link": s.link("/reset-password", token),
	})
}

func (s *Service) SendTeamInvitation(ctx context.Context, invitation *models.TeamInvitation, team *models.Team, inviter *models.User) error {
	inviterName := "A teammate"
	if inviter != nil {
		inviterName = inviter.Name
	}
	return s.send(ctx, invitationTemplate, invitation.Email, map[string]interface{}{
		"TeamName":    team.Name,
		"InviterName": inviterName,
		"Link":        s.link("/invitations/accept", invitation.Token),
	})
}
