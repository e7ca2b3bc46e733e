package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"

	"github.com/blackwealthexchange/bwe-auth/internal/config"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	welcomeSubject = "Welcome to Black Wealth Exchange"
	resetSubject   = "Reset your Black Wealth Exchange password"
)

// Message is a rendered email with plain text and HTML bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type welcomeData struct {
	Name        string
	AccountType models.AccountType
	AppURL      string
}

type resetData struct {
	Link     string
	ValidFor string
}

type renderer struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

func newRenderer() (*renderer, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	return &renderer{text: text, html: html}, nil
}

func (r *renderer) render(name string, data any) (string, string, error) {
	var text, html bytes.Buffer
	if err := r.text.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return "", "", err
	}
	if err := r.html.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}

func (r *renderer) welcome(to, name string, accountType models.AccountType, appURL string) (Message, error) {
	text, html, err := r.render("welcome", welcomeData{Name: name, AccountType: accountType, AppURL: appURL})
	if err != nil {
		return Message{}, fmt.Errorf("render welcome: %w", err)
	}
	return Message{To: to, Subject: welcomeSubject, Text: text, HTML: html}, nil
}

func (r *renderer) reset(to, link string) (Message, error) {
	validFor := fmt.Sprintf("%d minutes", int(services.ResetTokenTTL.Minutes()))
	text, html, err := r.render("reset", resetData{Link: link, ValidFor: validFor})
	if err != nil {
		return Message{}, fmt.Errorf("render reset: %w", err)
	}
	return Message{To: to, Subject: resetSubject, Text: text, HTML: html}, nil
}

// Sender delivers composed messages; *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	sender   Sender
	from     string
	fromName string
	appURL   string
	tmpl     *renderer
}

// NewSMTP creates a mailer that sends through the configured SMTP server.
func NewSMTP(cfg config.SMTPConfig, appURL string) (*SMTPMailer, error) {
	return newSMTP(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, appURL)
}

func newSMTP(sender Sender, cfg config.SMTPConfig, appURL string) (*SMTPMailer, error) {
	tmpl, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &SMTPMailer{
		sender:   sender,
		from:     cfg.From,
		fromName: cfg.FromName,
		appURL:   appURL,
		tmpl:     tmpl,
	}, nil
}

// SendWelcome mails the signup greeting.
func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string, accountType models.AccountType) error {
	msg, err := m.tmpl.welcome(to, name, accountType, m.appURL)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

// SendPasswordReset mails the reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg, err := m.tmpl.reset(to, link)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *SMTPMailer) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, m.fromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	gm.AddAlternative("text/html", msg.HTML)

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	return nil
}

// LogMailer stands in for SMTP in development. It logs recipient and subject, never the body.
type LogMailer struct {
	log  *slog.Logger
	tmpl *renderer
}

// NewLog creates a mailer that only logs outgoing mail.
func NewLog(log *slog.Logger) (*LogMailer, error) {
	if log == nil {
		log = slog.Default()
	}
	tmpl, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &LogMailer{log: log, tmpl: tmpl}, nil
}

func (m *LogMailer) SendWelcome(ctx context.Context, to, name string, accountType models.AccountType) error {
	msg, err := m.tmpl.welcome(to, name, accountType, "")
	if err != nil {
		return err
	}
	m.log.InfoContext(ctx, "mail not sent, smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg, err := m.tmpl.reset(to, link)
	if err != nil {
		return err
	}
	m.log.InfoContext(ctx, "mail not sent, smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}
