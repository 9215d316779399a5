package server

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/smartcard-app/smartcard/internal/ratelimit"
)

// contextKey avoids collisions with other packages' context values.
type contextKey string

// emailContextKey carries the authenticated user's email.
const emailContextKey contextKey = "email"

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "smartcard_session"

// emailFromContext returns the authenticated email, if any.
func emailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey).(string)
	return email, ok
}

// requireAuth resolves the session cookie to a user email and stores it in
// the request context, or rejects with 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		email, err := s.sessions.FindSession(r.Context(), cookie.Value)
		if err != nil {
			s.clearSessionCookie(w)
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), emailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit admits requests against the identifier's sliding window. Denied
// requests get a 429 carrying the retry metadata; admitted ones carry it in
// X-RateLimit headers.
func (s *Server) rateLimit(limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := s.limiter.Check(s.identify(r), limit, ratelimit.DefaultWindow)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(result.ResetIn))

			if !result.Allowed {
				respondJSON(w, http.StatusTooManyRequests, map[string]any{
					"success":    false,
					"error":      "Rate limit exceeded",
					"rate_limit": result,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// identify keys rate limiting by the authenticated user when present, else
// by network address.
func (s *Server) identify(r *http.Request) string {
	if email, ok := emailFromContext(r.Context()); ok {
		return email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
