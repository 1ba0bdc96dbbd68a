package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
)

// EmailMessage is a single outgoing email.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// EmailProvider delivers email.
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NewEmailProvider returns an SMTP provider when a mail server is configured
// and a log-only provider otherwise.
func NewEmailProvider(cfg config.NotificationConfig, logger *zap.Logger) EmailProvider {
	if cfg.SMTP.Enabled() {
		return NewSMTPProvider(cfg.SMTP, cfg.EmailFrom)
	}
	return NewLogProvider(logger)
}

// SMTPProvider sends mail through an SMTP relay.
type SMTPProvider struct {
	cfg  config.SMTPConfig
	from string
}

// NewSMTPProvider creates an SMTP provider sending as from.
func NewSMTPProvider(cfg config.SMTPConfig, from string) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, from: from}
}

// Send delivers msg. The dial honours ctx; the SMTP exchange after it does not.
func (s *SMTPProvider) Send(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if s.cfg.TLS {
		tlsConfig := &tls.Config{
			ServerName:         s.cfg.Host,
			InsecureSkipVerify: s.cfg.SkipVerify,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if auth := s.auth(); auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(s.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range msg.To {
		if err = client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err = w.Write([]byte(s.render(msg))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}
	if err = client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}

func (s *SMTPProvider) auth() smtp.Auth {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return nil
	}
	switch s.cfg.AuthType {
	case "none":
		return nil
	case "login":
		return &loginAuth{username: s.cfg.User, password: s.cfg.Password}
	default:
		return smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
}

func (s *SMTPProvider) render(msg EmailMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.String()
}

// loginAuth implements SMTP LOGIN authentication.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
	}
}

// LogProvider records outgoing mail in the log without sending it.
// The body is never logged since it may carry secrets.
type LogProvider struct {
	logger *zap.Logger
}

// NewLogProvider creates a log-only provider.
func NewLogProvider(logger *zap.Logger) *LogProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogProvider{logger: logger}
}

// Send logs the envelope of msg.
func (l *LogProvider) Send(_ context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	l.logger.Info("emailNotSent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_length", len(msg.Body)))
	return nil
}
