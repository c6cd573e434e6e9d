package mailer

import (
	"context"
	"fmt"
	"time"
)

// Mailer is the email gateway used by the account engine.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, name, code string) error
	SendPasswordResetEmail(ctx context.Context, email, name, rawToken string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
}

// Templates holds the variable parts of outgoing mail.
type Templates struct {
	AppName string
	// ResetURL, when set, is prefixed to the raw token in reset mail, e.g.
	// "https://app.example.com/reset-password?token=".
	ResetURL string
	CodeTTL  time.Duration
	ResetTTL time.Duration
}

func (t Templates) withDefaults() Templates {
	if t.AppName == "" {
		t.AppName = "goAccount"
	}
	if t.CodeTTL <= 0 {
		t.CodeTTL = time.Hour
	}
	if t.ResetTTL <= 0 {
		t.ResetTTL = 10 * time.Minute
	}
	return t
}

type message struct {
	subject string
	body    string
}

func (t Templates) verification(name, code string) message {
	return message{
		subject: fmt.Sprintf("Verify your %s account", t.AppName),
		body: fmt.Sprintf("Hello %s,\n\nYour verification code is %s.\nIt expires in %s.\n\nIf you did not create an account, ignore this email.\n",
			greeting(name), code, humanDuration(t.CodeTTL)),
	}
}

func (t Templates) passwordReset(name, token string) message {
	link := token
	if t.ResetURL != "" {
		link = t.ResetURL + token
	}
	return message{
		subject: fmt.Sprintf("Reset your %s password", t.AppName),
		body: fmt.Sprintf("Hello %s,\n\nUse the following to reset your password:\n\n%s\n\nIt expires in %s. If you did not request a reset, ignore this email.\n",
			greeting(name), link, humanDuration(t.ResetTTL)),
	}
}

func (t Templates) welcome(name string) message {
	return message{
		subject: fmt.Sprintf("Welcome to %s", t.AppName),
		body:    fmt.Sprintf("Hello %s,\n\nYour email is verified and your account is ready.\n", greeting(name)),
	}
}

func greeting(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func humanDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d%time.Minute == 0:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	default:
		return d.String()
	}
}
