package goAccount

import (
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/flows"
)

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ProfileUpdate holds the mutable profile fields. A nil field is left unchanged.
type ProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// AccountView is the public projection of an account. It never carries the
// password digest, the verification code or the reset digest.
type AccountView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	ProfileImage string     `json:"profileImage,omitempty"`
	IsVerified   bool       `json:"isVerified"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	Account   AccountView `json:"user"`
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// VerificationStatusView reports where an account is in email verification.
type VerificationStatusView struct {
	Email                   string `json:"email"`
	IsVerified              bool   `json:"isVerified"`
	HasVerificationCode     bool   `json:"hasVerificationCode"`
	VerificationCodeExpired bool   `json:"verificationCodeExpired"`
}

// Claims identifies the caller behind a validated bearer token.
type Claims struct {
	AccountID string
	Email     string
	ExpiresAt time.Time
}

const tokenTypeBearer = "Bearer"

func viewOf(a *account.Account) AccountView {
	if a == nil {
		return AccountView{}
	}
	v := AccountView{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		ProfileImage: a.ProfileImage,
		IsVerified:   a.Verified(),
		CreatedAt:    a.CreatedAt,
	}
	if !a.LastLoginAt.IsZero() {
		t := a.LastLoginAt
		v.LastLoginAt = &t
	}
	return v
}

func loginResultOf(s flows.Session) LoginResult {
	return LoginResult{
		Account:   viewOf(s.Account),
		Token:     s.Token,
		TokenType: tokenTypeBearer,
		ExpiresAt: s.ExpiresAt,
	}
}
