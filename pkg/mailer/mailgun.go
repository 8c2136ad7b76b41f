package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	tpl "github.com/oksasatya/fastbb/pkg/mailer/templates"
)

var (
	ErrEmptyJob = errors.New("email job has no recipient or content")
	ErrRender   = errors.New("render email template")
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	msg := client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, msg)
	return err
}

// Deliver renders job (when it names a template) and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if job.To == "" || (job.Template == "" && job.Subject == "") {
		return ErrEmptyJob
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		if _, ok := job.Data["Email"]; !ok {
			job.Data["Email"] = job.To
		}
		var err error
		subject, text, html, err = tpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w %q: %v", ErrRender, job.Template, err)
		}
	}
	return s.Send(ctx, job.To, subject, text, html)
}

var _ Sender = (*Mailgun)(nil)
