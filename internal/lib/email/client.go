// Package email sends transactional mail through Resend, rendering HTML
// bodies from templates on disk.
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/config"
)

// Template names an email template under templates/emails.
type Template string

const (
	TemplateWelcome      Template = "welcome"
	TemplateWeeklyReport Template = "weekly_report"
)

// Client wraps the Resend client.
type Client struct {
	client *resend.Client
	logger *zerolog.Logger
}

// NewClient creates an email Client with the API key from config.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		client: resend.NewClient(cfg.Integration.ResendAPIKey),
		logger: logger,
	}
}

// SendEmail renders templates/emails/{name}.html with data and sends it.
func (c *Client) SendEmail(to, subject string, name Template, data map[string]string) error {
	tmplPath := fmt.Sprintf("%s/%s.html", "templates/emails", name)

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return errors.Wrapf(err, "parse email template %s", name)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return errors.Wrapf(err, "execute email template %s", name)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", "Calendar Todo", "noreply@resend.dev"),
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return errors.Wrap(err, "send email")
	}

	c.logger.Debug().Str("to", to).Str("template", string(name)).Msg("email sent")
	return nil
}
