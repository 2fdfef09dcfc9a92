package httpd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/inflight"
	"github.com/Aidensmirk/online-learning-platform/internal/middleware"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Services struct {
	Auth      service.AuthService
	Catalog   service.CatalogService
	Player    service.PlayerService
	Editor    service.EditorService
	Review    service.ReviewService
	Analytics service.AnalyticsService
	Messaging service.MessagingService
}

// Pinger - зависимость, которую проверяет /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CSRFOptions struct {
	Enabled bool
	AuthKey []byte
	Secure  bool
}

type Options struct {
	Cookie         middleware.SessionCookie
	MediaOrigin    string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	SocketTimeout  time.Duration
	CSRF           CSRFOptions
}

type Handler struct {
	services   Services
	workspaces *workspace.Store
	readiness  map[string]Pinger
	guard      *inflight.Guard
	pages      *pages
	media      http.Handler
	upgrader   websocket.Upgrader
	opts       Options
	logger     zerolog.Logger
}

func NewHandler(
	services Services,
	workspaces *workspace.Store,
	readiness map[string]Pinger,
	opts Options,
	logger zerolog.Logger,
) (*Handler, error) {
	h := &Handler{
		services:   services,
		workspaces: workspaces,
		readiness:  readiness,
		guard:      inflight.New(),
		opts:       opts,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	p, err := parsePages(newFuncMap(opts.MediaOrigin))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	h.pages = p

	media, err := h.newMediaProxy(opts.MediaOrigin)
	if err != nil {
		return nil, fmt.Errorf("failed to create media proxy: %w", err)
	}
	h.media = media

	return h, nil
}

// RegisterRoutes вешает маршруты на router. Вебсокет и медиа остаются вне таймаута.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Use(middleware.Theme)
	router.Use(middleware.Sessions(h.services.Auth, h.opts.Cookie))
	if h.opts.CSRF.Enabled {
		router.Use(h.csrfProtect())
	}

	router.Get("/health", h.HealthCheck)
	router.Get("/ready", h.ReadyCheck)
	router.Get("/live", h.LiveCheck)
	router.Handle("/media/*", h.media)

	router.With(h.authenticated()).Get("/messages/live", h.LiveMessages)

	router.Group(func(r chi.Router) {
		if h.opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.opts.RequestTimeout))
		}

		r.Get("/", h.Home)
		r.Get("/all-courses", h.AllCourses)
		r.Get("/about", h.About)
		r.Get("/course-details/{courseID}", h.CourseDetails)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Post("/theme", h.ToggleTheme)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticated())

			r.Get("/student-dashboard", h.StudentDashboard)
			r.Get("/my-courses", h.MyCourses)
			r.Get("/wishlist", h.Wishlist)
			r.Get("/profile", h.ProfilePage)
			r.Post("/profile", h.UpdateProfile)

			r.Route("/courses/{courseID}", func(r chi.Router) {
				r.Post("/enroll", h.Enroll)
				r.Post("/wishlist", h.AddToWishlist)
				r.Post("/wishlist/remove", h.RemoveFromWishlist)
			})

			r.Route("/course-player/{courseID}", func(r chi.Router) {
				r.Get("/", h.CoursePlayer)
				r.Post("/lessons/{lessonID}/complete", h.CompleteLesson)
				r.Post("/lessons/{lessonID}/uncomplete", h.UncompleteLesson)
				r.Post("/quizzes/{quizID}/answers", h.SaveAnswers)
				r.Post("/quizzes/{quizID}/submit", h.SubmitQuiz)
				r.Post("/assignments/{assignmentID}/submit", h.SubmitAssignment)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", h.Messages)
				r.Post("/conversations", h.CreateConversation)
				r.Get("/{conversationID}", h.Conversation)
				r.Post("/{conversationID}/send", h.SendMessage)
				r.Post("/{conversationID}/participants", h.AddParticipant)
				r.Post("/{conversationID}/participants/{userID}/remove", h.RemoveParticipant)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authenticated(models.RoleInstructor))

			r.Get("/instructor-dashboard", h.InstructorDashboard)
			r.Get("/create-course", h.CreateCoursePage)
			r.Post("/create-course", h.CreateCourse)
			r.Get("/edit-course/{courseID}", h.EditCoursePage)
			r.Post("/edit-course/{courseID}", h.UpdateCourse)

			r.Get("/manage-courses", h.ManageCourses)
			r.Route("/manage-courses/{courseID}", func(r chi.Router) {
				r.Post("/status", h.SetCourseStatus)
				r.Post("/delete", h.DeleteCourse)
				r.Post("/modules", h.CreateModule)
				r.Post("/modules/{moduleID}/delete", h.DeleteModule)
				r.Post("/modules/{moduleID}/lessons", h.CreateLesson)
				r.Post("/lessons/{lessonID}/delete", h.DeleteLesson)
				r.Post("/modules/{moduleID}/assignments", h.CreateAssignment)
				r.Post("/assignments/{assignmentID}/delete", h.DeleteAssignment)
				r.Post("/modules/{moduleID}/quiz-draft", h.EditQuizDraft)
				r.Post("/modules/{moduleID}/quizzes", h.CreateQuiz)
				r.Post("/quizzes/{quizID}/delete", h.DeleteQuiz)
				r.Post("/bank/{entryID}/delete", h.DeleteBankQuestion)
			})

			r.Get("/assignments/{assignmentID}/review", h.ReviewSubmissions)
			r.Post("/assignments/{assignmentID}/review/{submissionID}/grade", h.GradeSubmission)
			r.Post("/assignments/{assignmentID}/review/{submissionID}/status", h.SetSubmissionStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authenticated(models.RoleAdmin))

			r.Get("/admin-analytics", h.AdminAnalytics)
		})
	})
}

func (h *Handler) authenticated(roles ...models.Role) func(http.Handler) http.Handler {
	return middleware.RequireRoles(h.services.Auth, h.opts.Cookie, roles...)
}

func (h *Handler) csrfProtect() func(http.Handler) http.Handler {
	protect := csrf.Protect(
		h.opts.CSRF.AuthKey,
		csrf.Secure(h.opts.CSRF.Secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			zerolog.Ctx(r.Context()).Warn().Err(csrf.FailureReason(r)).Msg("CSRF check failed")
			http.Error(w, "Your form expired. Go back, reload the page and try again.", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if h.opts.CSRF.Secure {
			return protected
		}
		// без TLS gorilla/csrf должна знать, что запрос пришел по http
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
