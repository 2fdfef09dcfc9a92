package httpd

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/Aidensmirk/online-learning-platform/internal/inflight"
	"github.com/Aidensmirk/online-learning-platform/internal/middleware"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

// dashboardFor - стартовая страница после входа.
func dashboardFor(u *models.User) string {
	if u.CanTeach() {
		return "/instructor-dashboard"
	}
	return "/student-dashboard"
}

// once не пускает повторный клик той же кнопки, пока первый запрос не закончился.
func (h *Handler) once(r *http.Request, action string, target int64, fn func() (interface{}, error)) (interface{}, error) {
	key := inflight.Key(currentSession(r).ID, action, strconv.FormatInt(target, 10))
	v, err, shared := h.guard.Do(key, fn)
	if shared {
		zerolog.Ctx(r.Context()).Debug().Str("action", action).Msg("Duplicate request joined")
	}
	return v, err
}

// startSession выдает cookie новой сессии; прежняя сессия браузера удаляется вместе с рабочей областью.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, sess *session.Session, message string) {
	if prev := currentSession(r); prev != nil && prev.ID != sess.ID {
		if err := h.services.Auth.Logout(r.Context(), prev); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("previous_session", prev.ID).Msg("Failed to drop previous session")
		}
	}

	h.opts.Cookie.Set(w, sess)
	h.workspaces.Get(sess.ID).AddFlash(workspace.FlashSuccess, message)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := currentSession(r); sess != nil && sess.User != nil {
		redirect(w, r, dashboardFor(sess.User))
		return
	}
	h.page(w, r, "login", "Log in", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	sess, err := h.services.Auth.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		form := url.Values{"email": {r.PostFormValue("email")}}
		fields, message, ok := fieldErrors(err)
		if !ok {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Login failed")
			message = errorMessage(err, "Invalid email or password.")
		}
		if message == "" {
			message = "Invalid email or password."
		}
		h.render(w, r, http.StatusUnprocessableEntity, "login", &view{
			Title:  "Log in",
			Form:   form,
			Errors: fields,
			Error:  message,
		})
		return
	}

	h.startSession(w, r, sess, "Welcome back!")
	redirect(w, r, dashboardFor(sess.User))
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if sess := currentSession(r); sess != nil && sess.User != nil {
		redirect(w, r, dashboardFor(sess.User))
		return
	}
	h.page(w, r, "register", "Create account", nil)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	req := models.RegisterRequest{
		Username:    r.PostFormValue("username"),
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		Password2:   r.PostFormValue("password2"),
		Role:        models.Role(r.PostFormValue("role")),
		DisplayName: r.PostFormValue("display_name"),
	}

	sess, err := h.services.Auth.Register(r.Context(), req)
	if err != nil {
		form := url.Values{
			"username":     {req.Username},
			"email":        {req.Email},
			"role":         {string(req.Role)},
			"display_name": {req.DisplayName},
		}
		fields, message, ok := fieldErrors(err)
		if !ok {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Registration failed")
			message = errorMessage(err, "Registration failed. Please try again.")
		}
		h.render(w, r, http.StatusUnprocessableEntity, "register", &view{
			Title:  "Create account",
			Form:   form,
			Errors: fields,
			Error:  message,
		})
		return
	}

	h.startSession(w, r, sess, "Your account is ready.")
	redirect(w, r, dashboardFor(sess.User))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Auth.Logout(r.Context(), currentSession(r)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Logout failed")
	}
	h.opts.Cookie.Clear(w)
	redirect(w, r, "/login")
}

func (h *Handler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	form := url.Values{
		"display_name": {sess.User.DisplayName},
		"bio":          {sess.User.Bio},
	}
	h.render(w, r, http.StatusOK, "profile", &view{Title: "Profile", Form: form})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	picture, closeFile, err := formFile(r, "profile_picture")
	if err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFile()

	sess := currentSession(r)
	update := models.ProfileUpdate{
		DisplayName:    r.PostFormValue("display_name"),
		Bio:            r.PostFormValue("bio"),
		ProfilePicture: picture,
	}

	_, err = h.once(r, "profile", userIDOf(sess), func() (interface{}, error) {
		return h.services.Auth.UpdateProfile(r.Context(), sess, update)
	})
	if err != nil {
		if fields, message, ok := fieldErrors(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, "profile", &view{
				Title:  "Profile",
				Form:   r.PostForm,
				Errors: fields,
				Error:  message,
			})
			return
		}
		h.handleActionError(w, r, err, "/profile")
		return
	}

	h.flash(r, workspace.FlashSuccess, "Profile updated.")
	redirect(w, r, "/profile")
}

// ToggleTheme переключает тему и возвращает на страницу, с которой пришли.
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	middleware.SetTheme(w, !middleware.DarkMode(r.Context()))
	redirect(w, r, safeBack(r, "/"))
}

// safeBack берет адрес возврата из формы, только если он внутренний.
func safeBack(r *http.Request, fallback string) string {
	next := r.FormValue("next")
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}

func userIDOf(sess *session.Session) int64 {
	if sess == nil || sess.User == nil {
		return 0
	}
	return sess.User.ID
}
