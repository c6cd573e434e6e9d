package httpapi

import (
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) handleVerifyLink(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.VerifyCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "Email verified successfully", view)
}

func (h *Handler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		h.fail(w, r, &goAccount.ValidationError{Fields: []goAccount.FieldError{{Field: "email", Message: "cannot be blank"}}}, tokenReset)
		return
	}
	view, err := h.engine.VerifyEmailCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "Email verified successfully! Welcome email sent.", view)
}

func (h *Handler) handleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.VerificationStatus(r.Context(), r.PathValue("email"))
	if err != nil {
		h.fail(w, r, err, tokenReset)
		return
	}
	writeSuccess(w, http.StatusOK, "Verification status retrieved", status)
}
