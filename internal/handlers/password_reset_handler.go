package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/models"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// ResetTokenParam is the chi URL parameter carrying the reset secret.
const ResetTokenParam = constants.ParamResetToken

// ForgotPassword handles the request to initiate a password reset.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	result, err := h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	switch {
	case !result.Delivered:
		utils.Message(w, http.StatusOK, constants.MsgResetGeneric)
	case result.Logged:
		utils.Message(w, http.StatusOK, constants.MsgEmailSentCheckLogs)
	default:
		utils.Message(w, http.StatusOK, constants.MsgEmailSent)
	}
}

// ResetPassword handles the actual password reset using the secret from the URL.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	secret := chi.URLParam(r, ResetTokenParam)

	var req models.ResetPasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	result, err := h.authService.ResetPassword(r.Context(), secret, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusOK, result)
}

// DirectResetPassword resets a password for an email address. The body must
// carry the emailed reset secret; an email alone is never enough.
func (h *AuthHandler) DirectResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.DirectResetPasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	// Missing fields get the combined message from the service
	if req.Email != "" && req.Token != "" && req.Password != "" {
		if err := utils.ValidateStruct(&req); err != nil {
			utils.WriteError(w, err)
			return
		}
	}

	user, err := h.authService.DirectResetPassword(r.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, models.DirectResetResponse{
		Success: true,
		Message: constants.MsgPasswordResetSuccess,
		User:    user.Public(),
	})
}

// CheckUser reports whether an account exists for an email.
func (h *AuthHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req models.CheckUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	exists, err := h.authService.CheckUserExists(r.Context(), req.Email)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, models.CheckUserResponse{Success: true, Exists: exists})
}
