package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// CookieName holds the session token.
const CookieName = "bilancio_session"

type contextKey string

const userKey contextKey = "auth_user"

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey).(core.User)
	return u, ok
}

// TokenFromRequest reads a bearer token first, then the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware rejects requests without a valid session. onDenied writes the
// 401 response.
func (s *Service) Middleware(onDenied func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				onDenied(w, r)
				return
			}
			user, err := s.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					applog.FromContext(r.Context()).ErrorContext(r.Context(), "Session lookup failed",
						applog.FieldComponent, applog.ComponentAuth,
						applog.FieldError, err)
				}
				onDenied(w, r)
				return
			}
			ctx := WithUser(r.Context(), user)
			ctx = applog.WithContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie writes token as an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
