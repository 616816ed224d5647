package notification

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig carries mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

var bodyTemplates = map[NoticeType]string{
	NoticeTenantStatusUpdate: "Hello {{.CompanyName}},\n\n" +
		"The status of your registration has been updated to: {{.Status}}.\n",
	NoticeTenantOnboarded: "Hello {{.CompanyName}},\n\n" +
		"Your organization has been onboarded. An administrator account was created for this address.\n" +
		"Temporary password: {{.TempPassword}}\n\n" +
		"Please sign in and change it immediately.\n",
}

// EmailNotifier sends notices over SMTP.
type EmailNotifier struct {
	cfg    SMTPConfig
	client *mail.Client
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		slog.Error("failed to create mail client", "err", err)
		return nil, err
	}
	return &EmailNotifier{cfg: cfg, client: client}, nil
}

// Send renders the template for the notice type and dispatches it.
func (e *EmailNotifier) Send(noticeType NoticeType, notification NotificationData) error {
	if notification.To == "" {
		return fmt.Errorf("email notification requires a recipient address")
	}
	tmplText, ok := bodyTemplates[noticeType]
	if !ok {
		return fmt.Errorf("no template registered for notice type %s", noticeType)
	}

	tmpl, err := template.New(string(noticeType)).Parse(tmplText)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, notification.Data); err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(e.cfg.From); err != nil {
		return err
	}
	if err := msg.To(notification.To); err != nil {
		return err
	}
	msg.Subject(notification.Subject)
	msg.SetBodyString(mail.TypeTextPlain, buf.String())

	if err := e.client.DialAndSend(msg); err != nil {
		slog.Error("failed to send email", "notice_type", noticeType, "err", err)
		return err
	}
	return nil
}
