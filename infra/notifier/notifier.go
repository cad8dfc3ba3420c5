// Package notifier delivers merchant-facing messages.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"github.com/amirasaad/paylink/pkg/config"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends a message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log. Used when SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("notifier", "log")}
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("📧 notification", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends mail through an SMTP relay using STARTTLS when offered.
type SMTPNotifier struct {
	cfg    *config.SMTP
	send   sendFunc
	logger *slog.Logger
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg *config.SMTP, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, logger: logger.With("notifier", "smtp")}
}

// New picks SMTP when configured, else the log notifier.
func New(cfg *config.SMTP, logger *slog.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg, logger)
	}
	return NewLogNotifier(logger)
}

// Send implements Notifier. net/smtp has no context support, so a
// cancelled context is only honoured before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("smtp: header injection in recipient or subject")
	}
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{msg.To}, buildMIME(n.cfg.From, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	n.logger.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func buildMIME(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// TransactionTemplate renders transaction status mails.
var TransactionTemplate = template.Must(template.New("transaction").Parse(
	`Hello {{.Name}},

Your {{.Kind}} of {{.Amount}} {{.Currency}} via {{.Provider}} is now {{.Status}}.
{{- if .Reason}}
Reason: {{.Reason}}{{end}}

Reference: {{.Reference}}
Transaction: {{.TransactionID}}
`))

// TransactionMailData feeds TransactionTemplate.
type TransactionMailData struct {
	Name          string
	Kind          string
	Amount        string
	Currency      string
	Provider      string
	Status        string
	Reason        string
	Reference     string
	TransactionID string
}

// RenderTransaction renders TransactionTemplate.
func RenderTransaction(data TransactionMailData) (string, error) {
	var b bytes.Buffer
	if err := TransactionTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
