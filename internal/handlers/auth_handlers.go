package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/auth"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/models"
	"github.com/yasinhessnawi1/authflow/internal/service"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// CookieSettings controls the session cookie written on register, login and reset.
type CookieSettings struct {
	TTL    time.Duration
	Secure bool
	Domain string
}

// AuthHandler handles authentication-related routes
type AuthHandler struct {
	authService AuthServiceInterface
	cookie      CookieSettings
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthServiceInterface, cookie CookieSettings) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	if cookie.TTL <= 0 {
		cookie.TTL = constants.DefaultJWTExpiry
	}
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusCreated, result)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeOptionalJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusOK, result)
}

// Logout revokes the caller's session if one was presented and clears the
// session cookie. It never fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := auth.GetSessionID(r); ok {
		if err := h.authService.Logout(r.Context(), sessionID); err != nil {
			log.Warn().Err(err).Str(constants.SessionIDContextKey, sessionID).Msg("Failed to revoke session on logout")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    constants.ClearedCookieValue,
		Path:     "/",
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Now().Add(constants.LogoutCookieExpiry),
	})

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": constants.MsgLogoutSuccess,
	})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r)
	if !ok {
		utils.Unauthorized(w, "")
		return
	}

	user, err := h.authService.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			email, _ := auth.GetEmail(r)
			log.Warn().
				Str(constants.UserIDContextKey, userID).
				Str(constants.EmailContextKey, utils.MaskEmail(email)).
				Msg("Session refers to a deleted user")
			utils.Unauthorized(w, constants.MsgUserNotFound)
			return
		}
		utils.WriteError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, user.Profile())
}

func (h *AuthHandler) sendSession(w http.ResponseWriter, statusCode int, result *service.AuthResult) {
	h.setSessionCookie(w, result.Token, result.ExpiresAt)

	utils.SendJSON(w, statusCode, models.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User.Public(),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(h.cookie.TTL.Seconds())
	if !expiresAt.IsZero() {
		maxAge = int(time.Until(expiresAt).Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  expiresAt,
	})
}
