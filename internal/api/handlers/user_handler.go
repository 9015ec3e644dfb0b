package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/padsapp/pads-be/internal/auth"
	"github.com/padsapp/pads-be/internal/models"
	"github.com/padsapp/pads-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	users    services.UserServiceProvider
	importer services.ImportServiceProvider
	authn    *auth.Authenticator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, importer services.ImportServiceProvider, authn *auth.Authenticator) *UserHandler {
	return &UserHandler{users: users, importer: importer, authn: authn}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests. Either
// username+password or a composite Quick List password is supplied.
type LoginPayload struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	QuickListPassword string `json:"quickListPassword"`
}

// Register handles new regular account registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.CreateRegular(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// CreateQuickList mints an anonymous Quick List account. The composite
// password in the response is shown exactly once.
func (h *UserHandler) CreateQuickList(w http.ResponseWriter, r *http.Request) {
	user, composite, err := h.users.CreateQuickList()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create quick list account")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":              user,
		"quickListPassword": composite,
	})
}

// Login authenticates either a regular account or a Quick List
// account and issues a session token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	var err error
	if payload.QuickListPassword != "" {
		user, err = h.users.ResolveQuickList(payload.QuickListPassword)
	} else {
		user, err = h.users.GetUserByUsername(payload.Username)
		if err == nil && !h.users.VerifyPassword(user.ID, payload.Password) {
			err = services.ErrNotFound
		}
	}
	if err != nil {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := h.users.TouchLastLogin(user.ID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to record login time")
	}

	token, err := h.authn.GenerateToken(user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	isProd := os.Getenv("APP_ENV") == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetMe retrieves the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(auth.ActorID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles changing the authenticated user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.users.ChangePassword(auth.ActorID(r.Context()), payload.CurrentPassword, payload.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// SetTimeZone changes the authenticated user's time zone.
func (h *UserHandler) SetTimeZone(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TimeZone string `json:"timeZone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.users.SetTimeZone(auth.ActorID(r.Context()), payload.TimeZone); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDisplayName changes the authenticated user's display name.
func (h *UserHandler) SetDisplayName(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.users.SetDisplayName(auth.ActorID(r.Context()), payload.DisplayName); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMe permanently deletes the authenticated user's account and
// everything it owns.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(auth.ActorID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportQuickList imports a Quick List account's timers and groups
// into the authenticated user's account.
func (h *UserHandler) ImportQuickList(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		QuickListPassword string `json:"quickListPassword"`
		DefaultGroupID    int64  `json:"defaultGroupId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.importer.ImportQuickList(auth.ActorID(r.Context()), payload.QuickListPassword, payload.DefaultGroupID); err != nil {
		// Deliberately uniform: no hint about which part failed.
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quick List imported"})
}
