package httpd

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/middleware"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Сырой HTML в Markdown экранируется: WithUnsafe не включен.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

type pages struct {
	byName map[string]*template.Template
}

func parsePages(funcs template.FuncMap) (*pages, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	p := &pages{byName: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" || name == "partials" {
			continue
		}

		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			file,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		p.byName[name] = tpl
	}
	return p, nil
}

func newFuncMap(mediaOrigin string) template.FuncMap {
	return template.FuncMap{
		"markdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := markdown.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"media": func(raw interface{}) string {
			switch v := raw.(type) {
			case string:
				return player.MediaURL(mediaOrigin, v)
			case *string:
				if v == nil {
					return ""
				}
				return player.MediaURL(mediaOrigin, *v)
			}
			return ""
		},
		"embedVideo": func(raw string) string {
			if embed, ok := player.EmbedVideoURL(raw); ok {
				return embed
			}
			return ""
		},
		"date": func(t interface{}) string {
			switch v := t.(type) {
			case time.Time:
				if v.IsZero() {
					return ""
				}
				return v.Format("Jan 2, 2006")
			case *time.Time:
				if v == nil || v.IsZero() {
					return ""
				}
				return v.Format("Jan 2, 2006")
			}
			return ""
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 15:04")
		},
		"dateInput": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02T15:04")
		},
		"grade": func(d *models.Decimal) string {
			if d == nil {
				return "-"
			}
			return d.String()
		},
		"add": func(a, b int) int { return a + b },
		"isRole": func(u *models.User, role string) bool {
			return u != nil && string(u.Role) == role
		},
		"canTeach": func(u *models.User) bool { return u.CanTeach() },
		"statuses": models.SubmissionStatuses,
		"courseStatuses": func() []models.CourseStatus {
			return []models.CourseStatus{models.CourseDraft, models.CoursePublished, models.CourseArchived}
		},
		"questionTypes": func() []models.QuestionType {
			return []models.QuestionType{models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionShortAnswer}
		},
	}
}

// view - общие данные layout и данные конкретной страницы.
type view struct {
	Title   string
	User    *models.User
	Dark    bool
	Flashes []workspace.Flash
	CSRF    template.HTML
	Path    string
	Query   url.Values
	Form    url.Values
	Errors  map[string]string
	Error   string
	Data    interface{}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, v *view) {
	tpl, ok := h.pages.byName[page]
	if !ok {
		zerolog.Ctx(r.Context()).Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	v.Dark = middleware.DarkMode(r.Context())
	v.Path = r.URL.Path
	v.Query = r.URL.Query()
	if v.Form == nil {
		v.Form = url.Values{}
	}
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		v.User = sess.User
		v.Flashes = h.workspaces.Get(sess.ID).PopFlashes()
	}
	if h.opts.CSRF.Enabled {
		v.CSRF = csrf.TemplateField(r)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, page, title string, data interface{}) {
	h.render(w, r, http.StatusOK, page, &view{Title: title, Data: data})
}

// flash кладет сообщение в workspace сессии; гостю сообщения не показываются.
func (h *Handler) flash(r *http.Request, level workspace.FlashLevel, message string) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		h.workspaces.Get(sess.ID).AddFlash(level, message)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
