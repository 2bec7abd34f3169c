package access

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const claimsKey contextKey = "accessClaims"

// TokenFromRequest reads a Bearer header, falling back to the token query
// parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Middleware requires a token for the layout named by the layoutId route
// variable.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}

		claims, err := s.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		if id, ok := mux.Vars(r)["layoutId"]; ok && id != claims.LayoutID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "token is for another layout"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, *claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireEdit rejects view-only tokens. It must run inside Middleware.
func RequireEdit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.CanEdit() {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "edit access required"})
			return
		}
		next(w, r)
	}
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}
