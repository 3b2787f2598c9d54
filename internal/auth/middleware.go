package auth

import (
	"context"
	"net/http"
	"strings"
)

type claimsKey struct{}

// Middleware extracts a token from the "token" cookie or an Authorization
// Bearer header and, when valid, stores its claims in the request context.
// Missing or invalid tokens are ignored here; RequireAuth enforces.
func Middleware(s *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				tokenStr = c.Value
			}
			if tokenStr == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					tokenStr = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := s.Validate(tokenStr)
			if err != nil {
				ClearTokenCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// GetClaims retrieves the claims from the context, or nil if absent.
func GetClaims(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// UserID returns the authenticated user's id.
func UserID(ctx context.Context) (int64, bool) {
	if c := GetClaims(ctx); c != nil {
		return c.UserID, true
	}
	return 0, false
}

// RequireAuth rejects anonymous requests: browsers are redirected to /login,
// API clients get 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
