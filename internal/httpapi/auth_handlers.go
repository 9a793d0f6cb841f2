package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/audit"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
)

type loginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	AccountType string `json:"account_type"`
}

type userPayload struct {
	Username    string             `json:"username"`
	DisplayName string             `json:"display_name"`
	Email       string             `json:"email,omitempty"`
	AccountType string             `json:"account_type"`
	Permissions auth.PermissionSet `json:"permissions"`
}

type loginResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      userPayload `json:"user"`
}

func userToPayload(u auth.User) userPayload {
	return userPayload{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AccountType: string(u.Tier),
		Permissions: auth.CapabilitiesFor(u.Tier),
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tier, ok := auth.ParseTier(req.AccountType)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "account_type must be 'normal' or 'professional'")
		return
	}

	sess, err := a.sessions.Login(r.Context(), req.Username, tier, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "credenciales invalidas")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username":     sess.User.Username,
		"account_type": string(sess.User.Tier),
		"expires_at":   sess.ExpiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Login exitoso",
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      userToPayload(sess.User),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	// Logout never fails: revoking an unknown or already-revoked token is a
	// no-op and still reports success.
	if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
		a.sessions.Logout(r.Context(), token)
		_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sesion cerrada",
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, userToPayload(user))
}

func (a *API) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"normal_accounts":       a.directory.NormalAccounts(),
		"professional_accounts": a.directory.ProfessionalHints(),
	})
}
