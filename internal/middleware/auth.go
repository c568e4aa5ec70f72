package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const apiKeyIDKey contextKey = "api_key_id"

// APIKeyHeader is checked before the Authorization header.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey accepts a key from X-API-Key or "Authorization: Bearer".
// With no keys configured every request passes, which is how local
// development runs.
func RequireAPIKey(keys []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			if key == "" {
				writeAuthError(w, "missing API key", "auth_required")
				return
			}

			if !matchesAny(allowed, []byte(key)) {
				writeAuthError(w, "invalid API key", "auth_invalid")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyIDKey, keyID(key))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKeyID returns a stable, non-reversible id for the caller's key.
func GetAPIKeyID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(apiKeyIDKey).(string)
	return id, ok
}

func presentedKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return key
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// matchesAny compares against every key so the time taken does not depend
// on which key matched.
func matchesAny(allowed [][]byte, key []byte) bool {
	found := 0
	for _, a := range allowed {
		found |= subtle.ConstantTimeCompare(a, key)
	}
	return found == 1
}

func keyID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func writeAuthError(w http.ResponseWriter, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  code,
	})
}
