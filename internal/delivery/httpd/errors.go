package httpd

import (
	"errors"
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/middleware"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

// expired сбрасывает сессию браузера и отправляет на логин.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		h.workspaces.Drop(sess.ID)
	}
	h.opts.Cookie.Clear(w)
	redirect(w, r, "/login")
}

// handleReadError - страница не загрузилась: уводим на fallback.
func (h *Handler) handleReadError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, integration.ErrSessionExpired):
		h.expired(w, r)
		return
	case errors.Is(err, service.ErrForbidden):
		h.flash(r, workspace.FlashError, "You do not have access to that page.")
		redirect(w, r, "/")
		return
	case errors.Is(err, service.ErrPlayerUnavailable):
		h.flash(r, workspace.FlashError, "This course is not available. Make sure you are enrolled.")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Failed to load page")
		h.flash(r, workspace.FlashError, errorMessage(err, "We could not load that page. Please try again."))
	}
	redirect(w, r, fallback)
}

// handleActionError - мутация не удалась: сообщение и redirect назад, состояние не тронуто.
func (h *Handler) handleActionError(w http.ResponseWriter, r *http.Request, err error, back string) {
	var verr *models.ValidationError

	switch {
	case errors.Is(err, integration.ErrSessionExpired):
		h.expired(w, r)
		return
	case errors.As(err, &verr):
		h.flash(r, workspace.FlashError, verr.Error())
	case errors.Is(err, service.ErrForbidden):
		h.flash(r, workspace.FlashError, "You are not allowed to do that.")
	case errors.Is(err, service.ErrNotFound):
		h.flash(r, workspace.FlashError, "That item no longer exists.")
	case errors.Is(err, service.ErrNoAttemptsRemaining):
		h.flash(r, workspace.FlashError, "No attempts remaining for this quiz.")
	case errors.Is(err, service.ErrAlreadySubmitted):
		h.flash(r, workspace.FlashInfo, "You have already submitted this assignment.")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Action failed")
		h.flash(r, workspace.FlashError, errorMessage(err, "Something went wrong. Please try again."))
	}
	redirect(w, r, back)
}

// errorMessage достает текст ошибки API для пользователя.
func errorMessage(err error, fallback string) string {
	var apiErr *integration.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		for field, msgs := range apiErr.Fields {
			if len(msgs) > 0 {
				return field + ": " + msgs[0]
			}
		}
	}
	return fallback
}

// fieldErrors переводит ошибку в сообщения для повторного показа формы.
func fieldErrors(err error) (map[string]string, string, bool) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.FieldMap(), verr.Message, true
	}

	var apiErr *integration.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		fields := make(map[string]string, len(apiErr.Fields))
		for field, msgs := range apiErr.Fields {
			if len(msgs) > 0 {
				fields[field] = msgs[0]
			}
		}
		return fields, apiErr.Detail, true
	}
	return nil, "", false
}

func currentSession(r *http.Request) *session.Session {
	return middleware.SessionFromContext(r.Context())
}
