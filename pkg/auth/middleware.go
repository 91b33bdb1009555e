package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the verified token claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(jwt.MapClaims)
	return claims, ok
}

// Middleware rejects requests without a valid bearer token. When no provider
// is configured it passes everything through so local development works
// without an identity provider.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !v.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			v.unauthorized(w, "Missing bearer token")
			return
		}

		claims, err := v.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrProviderUnavailable) {
				v.logger.Error("Cannot verify token, OIDC provider unreachable", "error", err)
				v.writeError(w, http.StatusServiceUnavailable, "OIDC provider unavailable")
				return
			}
			v.logger.Warn("Rejected bearer token", "error", err)
			v.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	token = strings.TrimSpace(token)
	if !found || token == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

func (v *Verifier) unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	v.writeError(w, http.StatusUnauthorized, detail)
}

func (v *Verifier) writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": detail}); err != nil {
		v.logger.Debug("Failed to write error response", "error", err)
	}
}
