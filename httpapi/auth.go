package httpapi

import (
	"errors"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
)

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req goAccount.RegisterRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	view, err := h.engine.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, goAccount.ErrDependency) {
			writeJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Message: "Failed to send verification email. Please try again.",
			})
			return
		}
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusCreated, "Registration successful. Please check your email to verify your account.", view)
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	if err := h.engine.ResendVerification(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "If the email exists and is unverified, a verification email has been sent", nil)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	res, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", res)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	if err := h.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "If the email exists, a password reset link has been sent.", nil)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	if err := h.engine.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "Password reset successful. You can now login with your new password.", nil)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenRefresh)
		return
	}
	res, err := h.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err, tokenRefresh)
		return
	}
	writeSuccess(w, http.StatusOK, "Token refreshed successfully", res)
}

// handleLogout has nothing to revoke; tokens expire on their own.
func (h *Handler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req changePasswordRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenBearer)
		return
	}
	err := h.engine.ChangePassword(r.Context(), claims.AccountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, goAccount.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Current password is incorrect"})
			return
		}
		h.fail(w, r, err, tokenBearer)
		return
	}
	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}
