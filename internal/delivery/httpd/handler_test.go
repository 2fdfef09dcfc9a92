package httpd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleGuardRedirects(t *testing.T) {
	srv := newTestServer(t, Services{}, nil)

	tests := []struct {
		name      string
		path      string
		sessionID string
		location  string
	}{
		{name: "guest to dashboard", path: "/student-dashboard", location: "/login"},
		{name: "guest to player", path: "/course-player/5", location: "/login"},
		{name: "unknown cookie", path: "/my-courses", sessionID: "gone", location: "/login"},
		{name: "student to instructor page", path: "/instructor-dashboard", sessionID: "s-student", location: "/"},
		{name: "student to admin page", path: "/admin-analytics", sessionID: "s-student", location: "/"},
		{name: "instructor to admin page", path: "/admin-analytics", sessionID: "s-instructor", location: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodGet, tt.path, tt.sessionID, nil)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestExpiredSessionClearsCookie(t *testing.T) {
	srv := newTestServer(t, Services{}, nil)

	rec := srv.do(http.MethodGet, "/my-courses", "s-expired", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, testCookie.Name, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestLogin(t *testing.T) {
	t.Run("success redirects by role", func(t *testing.T) {
		auth := newFakeAuth()
		auth.loginSess = &session.Session{ID: "fresh", User: instructor, AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
		srv := newTestServer(t, Services{Auth: auth}, nil)

		rec := srv.do(http.MethodPost, "/login", "", url.Values{"email": {"bob@example.com"}, "password": {"secret"}})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/instructor-dashboard", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "fresh", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.NotEmpty(t, srv.flashes("fresh"))
	})

	t.Run("previous session is dropped", func(t *testing.T) {
		auth := newFakeAuth()
		auth.loginSess = &session.Session{ID: "fresh", User: instructor, AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
		srv := newTestServer(t, Services{Auth: auth}, nil)

		rec := srv.do(http.MethodPost, "/login", "s-student", url.Values{"email": {"bob@example.com"}, "password": {"secret"}})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, []string{"s-student"}, auth.loggedOut)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "fresh", cookies[0].Value)
	})

	t.Run("no previous session, nothing to drop", func(t *testing.T) {
		auth := newFakeAuth()
		auth.loginSess = &session.Session{ID: "fresh", User: student, AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
		srv := newTestServer(t, Services{Auth: auth}, nil)

		srv.do(http.MethodPost, "/login", "", url.Values{"email": {"alice@example.com"}, "password": {"secret"}})

		assert.Empty(t, auth.loggedOut)
	})

	t.Run("rejected credentials re-render the form", func(t *testing.T) {
		auth := newFakeAuth()
		auth.loginErr = &integration.APIError{StatusCode: http.StatusUnauthorized, Detail: "No active account found"}
		srv := newTestServer(t, Services{Auth: auth}, nil)

		rec := srv.do(http.MethodPost, "/login", "", url.Values{"email": {"bob@example.com"}, "password": {"nope"}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "No active account found")
		assert.Contains(t, rec.Body.String(), "bob@example.com")
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	auth := newFakeAuth()
	srv := newTestServer(t, Services{Auth: auth}, nil)

	rec := srv.do(http.MethodPost, "/logout", "s-student", url.Values{})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 1, auth.logouts)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestHomeRendersCourses(t *testing.T) {
	catalog := &fakeCatalog{courses: []models.Course{{ID: 3, Title: "Rust for Gophers"}}}
	srv := newTestServer(t, Services{Catalog: catalog}, nil)

	rec := srv.do(http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rust for Gophers")
	assert.Contains(t, rec.Body.String(), `href="/login"`)
}

func TestEnroll(t *testing.T) {
	t.Run("new enrollment opens the player", func(t *testing.T) {
		catalog := &fakeCatalog{}
		srv := newTestServer(t, Services{Catalog: catalog}, nil)

		rec := srv.do(http.MethodPost, "/courses/7/enroll", "s-student", url.Values{})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/course-player/7", rec.Header().Get("Location"))
		assert.Equal(t, []int64{7}, catalog.enrolled)
	})

	t.Run("already enrolled is not an error", func(t *testing.T) {
		catalog := &fakeCatalog{enrollErr: service.ErrAlreadyEnrolled}
		srv := newTestServer(t, Services{Catalog: catalog}, nil)

		rec := srv.do(http.MethodPost, "/courses/7/enroll", "s-student", url.Values{})

		assert.Equal(t, "/course-player/7", rec.Header().Get("Location"))
		flashes := srv.flashes("s-student")
		require.Len(t, flashes, 1)
		assert.Equal(t, workspace.FlashInfo, flashes[0].Level)
	})

	t.Run("failure goes back to the course", func(t *testing.T) {
		catalog := &fakeCatalog{enrollErr: &integration.APIError{StatusCode: http.StatusBadRequest, Detail: "Course is not published"}}
		srv := newTestServer(t, Services{Catalog: catalog}, nil)

		rec := srv.do(http.MethodPost, "/courses/7/enroll", "s-student", url.Values{})

		assert.Equal(t, "/course-details/7", rec.Header().Get("Location"))
		flashes := srv.flashes("s-student")
		require.Len(t, flashes, 1)
		assert.Equal(t, "Course is not published", flashes[0].Message)
	})
}

func TestCoursePlayerLoadFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		location string
	}{
		{name: "not enrolled", err: fmt.Errorf("%w: not enrolled", service.ErrPlayerUnavailable), location: "/my-courses"},
		{name: "api down", err: &integration.APIError{StatusCode: http.StatusBadGateway}, location: "/my-courses"},
		{name: "session expired", err: integration.ErrSessionExpired, location: "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Services{Player: &fakePlayer{loadErr: tt.err}}, nil)

			rec := srv.do(http.MethodGet, "/course-player/5", "s-student", nil)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestCoursePlayerRendersSelection(t *testing.T) {
	srv := newTestServer(t, Services{Player: &fakePlayer{state: playerFixture()}}, nil)

	t.Run("first lesson by default", func(t *testing.T) {
		rec := srv.do(http.MethodGet, "/course-player/5", "s-student", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<strong>Welcome</strong>")
		assert.Contains(t, rec.Body.String(), "/course-player/5/lessons/10/complete")
	})

	t.Run("quiz", func(t *testing.T) {
		rec := srv.do(http.MethodGet, "/course-player/5?quiz=20", "s-student", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Pick one")
		assert.Contains(t, rec.Body.String(), `name="q_201"`)
		assert.Contains(t, rec.Body.String(), "Attempts remaining: 2 of 2")
	})
}

func TestCoursePlayerLocksExhaustedQuiz(t *testing.T) {
	st := playerFixture()
	st.RecordQuizSubmission(20, models.QuizSubmission{ID: 900, AttemptNumber: 2, Score: 40})
	srv := newTestServer(t, Services{Player: &fakePlayer{state: st}}, nil)

	rec := srv.do(http.MethodGet, "/course-player/5?quiz=20", "s-student", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Attempts remaining: 0 of 2")
	assert.Contains(t, body, "<fieldset disabled>")
	assert.Contains(t, body, "No attempts remaining for this quiz.")
	assert.Contains(t, body, "Last attempt #2")
}

func TestCoursePlayerCompletedLessonOffersUndo(t *testing.T) {
	st := playerFixture()
	st.Completed[10] = struct{}{}
	srv := newTestServer(t, Services{Player: &fakePlayer{state: st}}, nil)

	rec := srv.do(http.MethodGet, "/course-player/5?lesson=10", "s-student", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/course-player/5/lessons/10/uncomplete")
	assert.Contains(t, body, "Mark as not completed")
	assert.NotContains(t, body, "/course-player/5/lessons/10/complete\"")
	assert.NotContains(t, body, "Mark as complete<")
}

func TestCompleteLessonFailureKeepsUserOnLesson(t *testing.T) {
	fake := &fakePlayer{
		state:       playerFixture(),
		completeErr: &integration.APIError{StatusCode: http.StatusInternalServerError, Detail: "try later"},
	}
	srv := newTestServer(t, Services{Player: fake}, nil)

	rec := srv.do(http.MethodPost, "/course-player/5/lessons/10/complete", "s-student", url.Values{})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/course-player/5?lesson=10", rec.Header().Get("Location"))
	flashes := srv.flashes("s-student")
	require.Len(t, flashes, 1)
	assert.Equal(t, workspace.FlashError, flashes[0].Level)
	assert.Equal(t, "try later", flashes[0].Message)
}

func TestSubmitQuiz(t *testing.T) {
	t.Run("unanswered asks for confirmation", func(t *testing.T) {
		st := playerFixture()
		qs, _ := st.Quiz(20)
		fake := &fakePlayer{
			state:     st,
			submitErr: &service.UnansweredError{Questions: qs.Quiz.Questions[1:]},
		}
		srv := newTestServer(t, Services{Player: fake}, nil)

		rec := srv.do(http.MethodPost, "/course-player/5/quizzes/20/submit", "s-student", url.Values{"q_201": {"2"}})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/course-player/5?quiz=20&confirm=1", rec.Header().Get("Location"))
		assert.False(t, fake.confirmed)
		require.Contains(t, fake.patches, int64(201))
		assert.Equal(t, int64(2), *fake.patches[201].Choice)
	})

	t.Run("confirmed submission", func(t *testing.T) {
		fake := &fakePlayer{state: playerFixture()}
		srv := newTestServer(t, Services{Player: fake}, nil)

		rec := srv.do(http.MethodPost, "/course-player/5/quizzes/20/submit", "s-student",
			url.Values{"q_201": {"1"}, "q_202": {"because"}, "confirm": {"1"}})

		assert.Equal(t, "/course-player/5?quiz=20", rec.Header().Get("Location"))
		assert.True(t, fake.confirmed)
		assert.Equal(t, "because", *fake.patches[202].Text)
		flashes := srv.flashes("s-student")
		require.Len(t, flashes, 1)
		assert.Equal(t, workspace.FlashSuccess, flashes[0].Level)
	})
}

func TestReadyCheck(t *testing.T) {
	srv := newTestServer(t, Services{}, map[string]Pinger{
		"sessions": stubPinger{},
		"redis":    stubPinger{err: fmt.Errorf("connection refused")},
	})

	rec := srv.do(http.MethodGet, "/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "ok", body.Checks["sessions"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestSafeBack(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "/wishlist", want: "/wishlist"},
		{next: "", want: "/"},
		{next: "https://evil.example", want: "/"},
		{next: "//evil.example", want: "/"},
		{next: `/\evil.example`, want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/theme?"+url.Values{"next": {tt.next}}.Encode(), nil)
			assert.Equal(t, tt.want, safeBack(r, "/"))
		})
	}
}
