// Package middleware provides HTTP middlewares for identity resolution and logging.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type ctxKey string

const (
	userKey      ctxKey = "user"
	requestIDKey ctxKey = "request_id"
)

// CertAuth resolves the caller from the verified TLS client certificate.
//
// The certificate's Common Name is the user id; it is stored in the request
// context for GetUserIDFromContext. Requests without a client certificate are
// rejected with 401.
func CertAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
			http.Error(w, "no client certificate provided", http.StatusUnauthorized)
			return
		}
		cn := r.TLS.PeerCertificates[0].Subject.CommonName
		if cn == "" {
			http.Error(w, "client certificate has no common name", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, cn)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserRegistrar records a user id in storage.
type UserRegistrar interface {
	EnsureUser(ctx context.Context, login string) error
}

// EnsureUser makes sure the authenticated user has a users row before any
// contact or category is written for it. Must run after CertAuth.
func EnsureUser(users UserRegistrar, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserIDFromContext(r.Context())
			if err := users.EnsureUser(r.Context(), userID); err != nil {
				logger.Error("failed to register user",
					zap.String("user", userID),
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the user ID (Common Name from client certificate)
// from the request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a copy of ctx carrying userID, as CertAuth would.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}
