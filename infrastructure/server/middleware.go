package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chat-backend/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// requireToken validates the bearer token and injects the claims into
// the request context. Websocket clients that cannot set headers may
// pass the token as a query parameter instead.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			http.Error(w, "token is missing", http.StatusUnauthorized)
			return
		}

		claims, err := s.tokens.Validate(tokenString)
		if err != nil {
			http.Error(w, "token is invalid or expired", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// claimsFrom returns the claims the middleware stored, or nil when the
// request never passed through it.
func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request handled",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
