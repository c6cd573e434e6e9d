package mailer

import (
	"context"

	"github.com/MrEthical07/goAccount/internal/logging"
)

// LogMailer logs outgoing mail instead of sending it. Secrets appear in the
// log line, so it must only be used in development.
type LogMailer struct {
	log       logging.Logger
	templates Templates
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(log logging.Logger, t Templates) *LogMailer {
	if log == nil {
		log = logging.Nop()
	}
	return &LogMailer{log: log.With("component", "mailer"), templates: t.withDefaults()}
}

func (l *LogMailer) SendVerificationEmail(ctx context.Context, email, name, code string) error {
	l.write(ctx, email, l.templates.verification(name, code))
	return nil
}

func (l *LogMailer) SendPasswordResetEmail(ctx context.Context, email, name, rawToken string) error {
	l.write(ctx, email, l.templates.passwordReset(name, rawToken))
	return nil
}

func (l *LogMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	l.write(ctx, email, l.templates.welcome(name))
	return nil
}

// Ping always succeeds.
func (l *LogMailer) Ping(context.Context) error { return nil }

func (l *LogMailer) write(ctx context.Context, to string, msg message) {
	l.log.Info(ctx, "mail", "to", to, "subject", msg.subject, "body", msg.body)
}
