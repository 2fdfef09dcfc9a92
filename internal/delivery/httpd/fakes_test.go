package httpd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/middleware"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testCookie = middleware.SessionCookie{Name: "lms_session", TTL: time.Hour}

var (
	student    = &models.User{ID: 1, Username: "alice", Role: models.RoleStudent}
	instructor = &models.User{ID: 2, Username: "bob", Role: models.RoleInstructor}
)

type fakeAuth struct {
	service.AuthService
	sessions  map[string]*session.Session
	loginSess *session.Session
	loginErr  error
	logouts   int
	loggedOut []string
}

func newFakeAuth() *fakeAuth {
	expires := time.Now().Add(time.Hour)
	return &fakeAuth{sessions: map[string]*session.Session{
		"s-student":    {ID: "s-student", User: student, AccessToken: "a", ExpiresAt: expires},
		"s-instructor": {ID: "s-instructor", User: instructor, AccessToken: "a", ExpiresAt: expires},
		"s-expired":    {ID: "s-expired", User: student, ExpiresAt: expires},
	}}
}

func (f *fakeAuth) Resolve(_ context.Context, id string) (*session.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess.Clone(), nil
}

func (f *fakeAuth) CurrentUser(_ context.Context, sess *session.Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, integration.ErrSessionExpired
	}
	return sess.User, nil
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*session.Session, error) {
	return f.loginSess, f.loginErr
}

func (f *fakeAuth) Logout(_ context.Context, sess *session.Session) error {
	f.logouts++
	if sess != nil {
		f.loggedOut = append(f.loggedOut, sess.ID)
	}
	return nil
}

type fakeCatalog struct {
	service.CatalogService
	courses   []models.Course
	enrollErr error
	enrolled  []int64
}

func (f *fakeCatalog) Browse(_ context.Context, _ *session.Session, _ models.CourseFilter) ([]models.Course, error) {
	return f.courses, nil
}

func (f *fakeCatalog) Enroll(_ context.Context, _ *session.Session, courseID int64) (*models.Enrollment, error) {
	f.enrolled = append(f.enrolled, courseID)
	if f.enrollErr != nil {
		return nil, f.enrollErr
	}
	return &models.Enrollment{ID: 900}, nil
}

type fakePlayer struct {
	service.PlayerService
	state       *player.State
	loadErr     error
	completeErr error
	submitErr   error
	patches     map[int64]player.AnswerPatch
	confirmed   bool
}

func (f *fakePlayer) Load(_ context.Context, _ *session.Session, _ int64) (*player.State, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.state, nil
}

func (f *fakePlayer) State(ctx context.Context, sess *session.Session, courseID int64) (*player.State, error) {
	return f.Load(ctx, sess, courseID)
}

func (f *fakePlayer) Answers(_ *session.Session, _ int64) player.AnswerSheet {
	return player.AnswerSheet{}
}

func (f *fakePlayer) CompleteLesson(_ context.Context, _ *session.Session, _, _ int64) (*player.State, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.state, nil
}

func (f *fakePlayer) SaveAnswers(_ context.Context, _ *session.Session, _, _ int64, patches map[int64]player.AnswerPatch) (player.AnswerSheet, error) {
	f.patches = patches
	return player.AnswerSheet{}, nil
}

func (f *fakePlayer) SubmitQuiz(_ context.Context, _ *session.Session, _, _ int64, confirmed bool) (*models.QuizSubmission, error) {
	f.confirmed = confirmed
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.QuizSubmission{ID: 1, AttemptNumber: 1, Score: 100, Passed: true}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func playerFixture() *player.State {
	course := models.Course{
		ID:    5,
		Title: "Go in practice",
		Modules: []models.CourseModule{{
			ID:    1,
			Title: "Basics",
			Lessons: []models.Lesson{
				{ID: 10, Module: 1, Title: "Hello", Content: "**Welcome**"},
			},
			Quizzes: []models.Quiz{{
				ID:              20,
				Module:          1,
				Title:           "Check yourself",
				AttemptsAllowed: 2,
				Questions: []models.QuizQuestion{
					{ID: 201, Prompt: "Pick one", QuestionType: models.QuestionMultipleChoice, Points: 1,
						Choices: []models.QuizChoice{{ID: 1, Text: "A"}, {ID: 2, Text: "B"}}},
					{ID: 202, Prompt: "Explain", QuestionType: models.QuestionShortAnswer, Points: 1},
				},
			}},
		}},
	}
	return player.NewState(course, models.Enrollment{ID: 1, Course: &course}, nil, nil)
}

type testServer struct {
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T, services Services, readiness map[string]Pinger) *testServer {
	t.Helper()

	if services.Auth == nil {
		services.Auth = newFakeAuth()
	}
	logger := zerolog.Nop()
	h, err := NewHandler(services, workspace.NewStore(time.Hour, logger), readiness, Options{Cookie: testCookie}, logger)
	require.NoError(t, err)

	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return &testServer{handler: h, router: router}
}

func (s *testServer) do(method, target, sessionID string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: sessionID})
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) flashes(sessionID string) []workspace.Flash {
	return s.handler.workspaces.Get(sessionID).PopFlashes()
}
