package prometheus

import (
	"context"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

type nopMailer struct{}

func (nopMailer) SendVerificationEmail(context.Context, string, string, string) error  { return nil }
func (nopMailer) SendPasswordResetEmail(context.Context, string, string, string) error { return nil }
func (nopMailer) SendWelcomeEmail(context.Context, string, string) error               { return nil }

func testConfig() goAccount.Config {
	cfg := goAccount.DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("k", 32))
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 4
	return cfg
}
