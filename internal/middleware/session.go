package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	themeKey   contextKey = "dark_mode"
)

// SessionResolver - часть AuthService, которая нужна middleware.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Session, error)
}

// SessionCookie - непрозрачный идентификатор сессии в браузере.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c SessionCookie) Set(w http.ResponseWriter, sess *session.Session) {
	maxAge := int(c.TTL.Seconds())
	if !sess.ExpiresAt.IsZero() {
		maxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Sessions подгружает сессию по cookie. Отсутствие сессии не ошибка: страница сама решает, пускать ли гостя.
func Sessions(resolver SessionResolver, cookie SessionCookie) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := cookie.Read(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := resolver.Resolve(r.Context(), id)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to load session")
				}
				cookie.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = zerolog.Ctx(ctx).With().Str("session_id", sess.ID).Logger().WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
