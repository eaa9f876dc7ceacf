package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type mailTemplate struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    {{template "content" .}}
    <p style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">{{.AppName}}</p>
</body>
</html>`

func mustTemplate(subject, html, text string) mailTemplate {
	h := htmltemplate.Must(htmltemplate.New("layout").Parse(layout))
	htmltemplate.Must(h.New("content").Parse(html))
	return mailTemplate{
		subject: subject,
		html:    h,
		text:    texttemplate.Must(texttemplate.New("text").Parse(text)),
	}
}

var (
	verificationTemplate = mustTemplate(
		"Verify your email address",
		`<h2>Welcome, {{.Name}}</h2>
    <p>Please confirm your email address to finish setting up your account.</p>
    <p><a href="{{.Link}}">Verify email</a></p>
    <p>This link expires in 24 hours.</p>`,
		`Welcome, {{.Name}}

Please confirm your email address by opening the link below:
{{.Link}}

This link expires in 24 hours.
`,
	)

	passwordResetTemplate = mustTemplate(
		"Reset your password",
		`<h2>Password reset</h2>
    <p>We received a request to reset your password.</p>
    <p><a href="{{.Link}}">Choose a new password</a></p>
    <p>If you did not ask for this, you can ignore this email. The link expires in 1 hour.</p>`,
		`We received a request to reset your password.

Choose a new password here:
{{.Link}}

If you did not ask for this, you can ignore this email. The link expires in 1 hour.
`,
	)

	invitationTemplate = mustTemplate(
		"You have been invited to a team",
		`<h2>Join {{.TeamName}}</h2>
    <p>{{.InviterName}} invited you to join <strong>{{.TeamName}}</strong>.</p>
    <p><a href="{{.Link}}">Accept invitation</a></p>
    <p>This invitation expires in 7 days.</p>`,
		`{{.InviterName}} invited you to join {{.TeamName}}.

Accept the invitation here:
{{.Link}}

This invitation expires in 7 days.
`,
	)
)

func (t mailTemplate) render(to string, data map[string]interface{}) (Message, error) {
	data["Subject"] = t.subject

	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("error executing template: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("error executing template: %w", err)
	}
	return Message{To: to, Subject: t.subject, HTML: html.String(), Text: text.String()}, nil
}
