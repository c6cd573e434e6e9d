package httpapi

import (
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
)

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	view, err := h.engine.Profile(r.Context(), claims.AccountID)
	if err != nil {
		h.fail(w, r, err, tokenBearer)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile retrieved successfully", view)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req goAccount.ProfileUpdate
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(w, r, err, tokenBearer)
		return
	}
	view, err := h.engine.UpdateProfile(r.Context(), claims.AccountID, req)
	if err != nil {
		h.fail(w, r, err, tokenBearer)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated successfully", view)
}
