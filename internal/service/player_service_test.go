package service

import (
	"context"
	"testing"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	playerCourseID = int64(5)
	playerQuizID   = int64(20)
)

func playerCourse() models.Course {
	return models.Course{
		ID:         playerCourseID,
		Title:      "Go basics",
		Instructor: &models.User{ID: 2, Role: models.RoleInstructor},
		Modules: []models.CourseModule{{
			ID:      50,
			Course:  playerCourseID,
			Lessons: []models.Lesson{{ID: 10, Title: "Intro"}, {ID: 11, Title: "Types"}},
			Quizzes: []models.Quiz{{
				ID:              playerQuizID,
				AttemptsAllowed: 2,
				Questions: []models.QuizQuestion{
					{ID: 201, QuestionType: models.QuestionMultipleChoice, Choices: []models.QuizChoice{{ID: 1}, {ID: 2}}},
					{ID: 202, QuestionType: models.QuestionShortAnswer},
				},
			}},
			Assignments: []models.Assignment{{ID: 30, MaxPoints: 10}},
		}},
	}
}

type playerFixture struct {
	svc         PlayerService
	courses     *fakeCourses
	submissions *fakeSubmissions
	workspaces  *workspace.Store
	activity    *activityLog
}

func newPlayerFixture(enrolled bool) *playerFixture {
	course := playerCourse()
	courses := &fakeCourses{courses: []models.Course{course}}
	if enrolled {
		courses.enrollments = []models.Enrollment{{
			ID:     40,
			Course: &course,
			LessonProgress: []models.LessonProgress{
				{ID: 1, Lesson: &models.Lesson{ID: 10}},
			},
			Progress: 50,
		}}
	}
	submissions := &fakeSubmissions{quizSubs: map[int64][]models.QuizSubmission{}}
	workspaces := workspace.NewStore(time.Hour, zerolog.Nop())
	activity := &activityLog{}

	return &playerFixture{
		svc:         NewPlayerService(courses, submissions, workspaces, activity, zerolog.Nop()),
		courses:     courses,
		submissions: submissions,
		workspaces:  workspaces,
		activity:    activity,
	}
}

func TestPlayerService_LoadRequiresEnrollment(t *testing.T) {
	f := newPlayerFixture(false)

	_, err := f.svc.Load(context.Background(), studentSession(), playerCourseID)
	assert.ErrorIs(t, err, ErrPlayerUnavailable)

	st, err := f.svc.Load(context.Background(), instructorSession(), playerCourseID)
	require.NoError(t, err)
	assert.Empty(t, st.Completed)
}

func TestPlayerService_LoadFailureIsUnavailable(t *testing.T) {
	f := newPlayerFixture(true)
	f.courses.courses = nil

	_, err := f.svc.Load(context.Background(), studentSession(), playerCourseID)
	assert.ErrorIs(t, err, ErrPlayerUnavailable)
	assert.NotErrorIs(t, err, integration.ErrSessionExpired)
}

func TestPlayerService_LoadPrefillsLatestAttempt(t *testing.T) {
	f := newPlayerFixture(true)
	choice := int64(2)
	f.submissions.quizSubs[playerQuizID] = []models.QuizSubmission{
		{ID: 1, AttemptNumber: 1, Answers: []models.QuizSubmissionAnswer{{Question: 201, SelectedChoice: &choice}}},
	}
	sess := studentSession()

	st, err := f.svc.Load(context.Background(), sess, playerCourseID)
	require.NoError(t, err)

	qs, ok := st.Quiz(playerQuizID)
	require.True(t, ok)
	assert.Equal(t, 1, qs.Remaining())
	assert.True(t, f.svc.Answers(sess, playerQuizID).Selected(201, 2))
}

func TestPlayerService_CompleteLesson(t *testing.T) {
	t.Run("already completed makes no call", func(t *testing.T) {
		f := newPlayerFixture(true)

		st, err := f.svc.CompleteLesson(context.Background(), studentSession(), playerCourseID, 10)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
		require.NotNil(t, st)
		assert.Zero(t, f.courses.completeCalls)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		f := newPlayerFixture(true)

		_, err := f.svc.CompleteLesson(context.Background(), studentSession(), playerCourseID, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, f.courses.completeCalls)
	})

	t.Run("applies server progress", func(t *testing.T) {
		f := newPlayerFixture(true)
		sess := studentSession()
		f.courses.completion = &models.LessonCompletion{
			Lesson:    models.Lesson{ID: 11},
			Completed: true,
			Enrollment: models.Enrollment{
				ID:       40,
				Progress: 100,
				LessonProgress: []models.LessonProgress{
					{ID: 1, Lesson: &models.Lesson{ID: 10}},
				},
			},
		}

		st, err := f.svc.CompleteLesson(context.Background(), sess, playerCourseID, 11)
		require.NoError(t, err)
		assert.Equal(t, 100, st.Progress())
		assert.True(t, st.Completed.Has(10))
		assert.True(t, st.Completed.Has(11))

		cached, ok := f.workspaces.Get(sess.ID).Player(playerCourseID)
		require.True(t, ok)
		assert.True(t, cached.Completed.Has(11))
		assert.Equal(t, []recordedActivity{{Type: models.ActivityLessonCompleted, CourseID: playerCourseID, ObjectID: 11}}, f.activity.events)
	})

	t.Run("failure leaves state untouched", func(t *testing.T) {
		f := newPlayerFixture(true)
		sess := studentSession()
		f.courses.completeErr = &integration.APIError{StatusCode: 500, Detail: "boom"}

		_, err := f.svc.CompleteLesson(context.Background(), sess, playerCourseID, 11)
		require.Error(t, err)

		cached, ok := f.workspaces.Get(sess.ID).Player(playerCourseID)
		require.True(t, ok)
		assert.False(t, cached.Completed.Has(11))
		assert.Equal(t, 50, cached.Progress())
		assert.Empty(t, f.activity.events)
	})
}

func TestPlayerService_SubmitQuiz(t *testing.T) {
	text := "goroutine"
	choice := int64(1)

	t.Run("unanswered needs confirmation", func(t *testing.T) {
		f := newPlayerFixture(true)
		sess := studentSession()
		_, err := f.svc.SaveAnswers(context.Background(), sess, playerCourseID, playerQuizID,
			map[int64]player.AnswerPatch{201: {Choice: &choice}})
		require.NoError(t, err)

		_, err = f.svc.SubmitQuiz(context.Background(), sess, playerCourseID, playerQuizID, false)
		var unanswered *UnansweredError
		require.ErrorAs(t, err, &unanswered)
		require.Len(t, unanswered.Questions, 1)
		assert.Equal(t, int64(202), unanswered.Questions[0].ID)
		assert.Empty(t, f.submissions.submitted)

		_, err = f.svc.SubmitQuiz(context.Background(), sess, playerCourseID, playerQuizID, true)
		require.NoError(t, err)
		assert.Len(t, f.submissions.submitted, 1)
	})

	t.Run("submits merged answers and resets draft", func(t *testing.T) {
		f := newPlayerFixture(true)
		sess := studentSession()
		_, err := f.svc.SaveAnswers(context.Background(), sess, playerCourseID, playerQuizID,
			map[int64]player.AnswerPatch{201: {Choice: &choice}})
		require.NoError(t, err)
		_, err = f.svc.SaveAnswers(context.Background(), sess, playerCourseID, playerQuizID,
			map[int64]player.AnswerPatch{202: {Text: &text}, 999: {Text: &text}})
		require.NoError(t, err)

		sub, err := f.svc.SubmitQuiz(context.Background(), sess, playerCourseID, playerQuizID, false)
		require.NoError(t, err)
		assert.Equal(t, 1, sub.AttemptNumber)

		require.Len(t, f.submissions.submitted, 1)
		req := f.submissions.submitted[0]
		assert.Equal(t, playerQuizID, req.Quiz)
		require.Len(t, req.Answers, 2)
		assert.Equal(t, int64(1), *req.Answers["201"].Choice)
		assert.Equal(t, "goroutine", req.Answers["202"].Text)

		assert.Empty(t, f.svc.Answers(sess, playerQuizID))
		st, err := f.svc.State(context.Background(), sess, playerCourseID)
		require.NoError(t, err)
		qs, _ := st.Quiz(playerQuizID)
		assert.Equal(t, 1, qs.Remaining())
	})

	t.Run("locked after all attempts", func(t *testing.T) {
		f := newPlayerFixture(true)
		f.submissions.quizSubs[playerQuizID] = []models.QuizSubmission{
			{ID: 1, AttemptNumber: 1},
			{ID: 2, AttemptNumber: 2},
		}
		sess := studentSession()

		_, err := f.svc.SubmitQuiz(context.Background(), sess, playerCourseID, playerQuizID, true)
		assert.ErrorIs(t, err, ErrNoAttemptsRemaining)

		_, err = f.svc.SaveAnswers(context.Background(), sess, playerCourseID, playerQuizID,
			map[int64]player.AnswerPatch{202: {Text: &text}})
		assert.ErrorIs(t, err, ErrNoAttemptsRemaining)
		assert.Empty(t, f.submissions.submitted)
	})

	t.Run("failed submit keeps answers", func(t *testing.T) {
		f := newPlayerFixture(true)
		f.submissions.submitErr = &integration.APIError{StatusCode: 400, Detail: "closed"}
		sess := studentSession()
		_, err := f.svc.SaveAnswers(context.Background(), sess, playerCourseID, playerQuizID,
			map[int64]player.AnswerPatch{201: {Choice: &choice}, 202: {Text: &text}})
		require.NoError(t, err)

		_, err = f.svc.SubmitQuiz(context.Background(), sess, playerCourseID, playerQuizID, false)
		require.Error(t, err)
		assert.Len(t, f.svc.Answers(sess, playerQuizID), 2)
		assert.Empty(t, f.activity.events)
	})
}

func TestPlayerService_SubmitAssignmentNeedsContent(t *testing.T) {
	f := newPlayerFixture(true)

	_, err := f.svc.SubmitAssignment(context.Background(), studentSession(), playerCourseID, 30, "   ", nil)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldMap(), "text_response")

	_, err = f.svc.SubmitAssignment(context.Background(), studentSession(), playerCourseID, 31, "text", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
