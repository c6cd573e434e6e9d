package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// ErrInvalidConfig is returned by NewSMTP.
var ErrInvalidConfig = errors.New("invalid smtp configuration")

// SMTPConfig describes the relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is "opportunistic" (default), "mandatory" or "none".
	TLS     string
	Timeout time.Duration
	Templates
}

// SMTP sends mail through a relay. Every send opens its own connection.
type SMTP struct {
	cfg    SMTPConfig
	client *mail.Client
}

var _ Mailer = (*SMTP)(nil)

// NewSMTP validates cfg and prepares a client. No connection is made.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: from address required", ErrInvalidConfig)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.Templates = cfg.Templates.withDefaults()

	policy, err := tlsPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &SMTP{cfg: cfg, client: client}, nil
}

func (s *SMTP) SendVerificationEmail(ctx context.Context, email, name, code string) error {
	return s.send(ctx, email, s.cfg.verification(name, code))
}

func (s *SMTP) SendPasswordResetEmail(ctx context.Context, email, name, rawToken string) error {
	return s.send(ctx, email, s.cfg.passwordReset(name, rawToken))
}

func (s *SMTP) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return s.send(ctx, email, s.cfg.welcome(name))
}

// Ping dials the relay and closes the connection.
func (s *SMTP) Ping(ctx context.Context) error {
	if err := s.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	return s.client.Close()
}

func (s *SMTP) send(ctx context.Context, to string, msg message) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.subject)
	m.SetBodyString(mail.TypeTextPlain, msg.body)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch name {
	case "", "opportunistic":
		return mail.TLSOpportunistic, nil
	case "mandatory":
		return mail.TLSMandatory, nil
	case "none":
		return mail.NoTLS, nil
	default:
		return mail.NoTLS, fmt.Errorf("%w: unknown tls policy %q", ErrInvalidConfig, name)
	}
}
