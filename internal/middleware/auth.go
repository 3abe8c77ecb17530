package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/greenstash/greenstash/internal/ctxkeys"
)

// TokenVerifier resolves a bearer token to the device it was issued to.
type TokenVerifier interface {
	VerifyJWT(token string) (string, error)
}

// RequireToken rejects requests without a valid bearer token and adds the
// device name to the context.
func RequireToken(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="greenstash"`)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			device, err := tokens.VerifyJWT(strings.TrimSpace(token))
			if err != nil {
				slog.Debug("rejected bearer token", "error", err, "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="greenstash", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			setDevice(w, device)
			ctx := ctxkeys.WithDevice(r.Context(), device)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
