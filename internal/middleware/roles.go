package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/access"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

type UserResolver interface {
	CurrentUser(ctx context.Context, sess *session.Session) (*models.User, error)
}

// RequireRoles проверяет доступ на каждом запросе, ничего не кэшируя между запросами.
// Без ролей пускает любого вошедшего пользователя.
func RequireRoles(users UserResolver, cookie SessionCookie, roles ...models.Role) func(next http.Handler) http.Handler {
	rule := access.Allow(roles...)

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			var user *models.User

			if sess := SessionFromContext(r.Context()); sess != nil {
				u, err := users.CurrentUser(r.Context(), sess)
				switch {
				case err == nil:
					user = u
				case errors.Is(err, integration.ErrSessionExpired):
					cookie.Clear(w)
				default:
					zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to resolve current user")
				}
			}

			decision := access.Decide(user, rule)
			if !decision.Authorized() {
				zerolog.Ctx(r.Context()).Debug().
					Str("path", r.URL.Path).
					Str("redirect", decision.Redirect).
					Msg("Access denied")
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
