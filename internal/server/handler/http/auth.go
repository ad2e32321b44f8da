package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
)

// UserLookup defines the user query required by AuthHandler.
type UserLookup interface {
	// UserExists checks whether a user with the given login exists.
	UserExists(context.Context, string) (bool, error)
}

// AuthHandler reports who the caller is.
type AuthHandler struct {
	Users UserLookup
}

// Me handles GET /api/me.
// The login is the CommonName of the client certificate resolved by CertAuth.
// If the user is known, it returns a JSON status "ok" and the login.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetUserIDFromContext(r.Context())

	exists, err := h.Users.UserExists(r.Context(), login)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "user not found", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"user":   login,
	})
}
