package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const playerFetchConcurrency = 8

type PlayerService interface {
	Load(ctx context.Context, sess *session.Session, courseID int64) (*player.State, error)
	State(ctx context.Context, sess *session.Session, courseID int64) (*player.State, error)
	Answers(sess *session.Session, quizID int64) player.AnswerSheet
	CompleteLesson(ctx context.Context, sess *session.Session, courseID, lessonID int64) (*player.State, error)
	UncompleteLesson(ctx context.Context, sess *session.Session, courseID, lessonID int64) (*player.State, error)
	SaveAnswers(ctx context.Context, sess *session.Session, courseID, quizID int64, patches map[int64]player.AnswerPatch) (player.AnswerSheet, error)
	SubmitQuiz(ctx context.Context, sess *session.Session, courseID, quizID int64, confirmed bool) (*models.QuizSubmission, error)
	SubmitAssignment(ctx context.Context, sess *session.Session, courseID, assignmentID int64, text string, attachment *models.FileUpload) (*models.AssignmentSubmission, error)
}

type playerService struct {
	courses     integration.CourseClient
	submissions integration.SubmissionClient
	workspaces  *workspace.Store
	activity    ActivityRecorder
	logger      zerolog.Logger
}

func NewPlayerService(
	courses integration.CourseClient,
	submissions integration.SubmissionClient,
	workspaces *workspace.Store,
	activity ActivityRecorder,
	logger zerolog.Logger,
) PlayerService {
	return &playerService{
		courses:     courses,
		submissions: submissions,
		workspaces:  workspaces,
		activity:    activity,
		logger:      logger,
	}
}

// unavailable оставляет ErrSessionExpired как есть: такой отказ ведет на логин, а не в "Мои курсы".
func unavailable(err error) error {
	if isSessionExpired(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPlayerUnavailable, err)
}

func (s *playerService) Load(ctx context.Context, sess *session.Session, courseID int64) (*player.State, error) {
	course, err := s.courses.Get(ctx, sess, courseID)
	if err != nil {
		s.logger.Error().Err(err).Int64("course_id", courseID).Msg("Failed to load course for player")
		return nil, unavailable(err)
	}

	enrollments, err := s.courses.Enrollments(ctx, sess)
	if err != nil {
		s.logger.Error().Err(err).Int64("course_id", courseID).Msg("Failed to load enrollments for player")
		return nil, unavailable(err)
	}

	var enrollment *models.Enrollment
	for i := range enrollments {
		if enrollments[i].CourseID() == course.ID {
			enrollment = &enrollments[i]
			break
		}
	}
	if enrollment == nil {
		// автор курса может просматривать плеер без записи
		if !course.OwnedBy(sess.User) {
			return nil, fmt.Errorf("%w: not enrolled in course %d", ErrPlayerUnavailable, courseID)
		}
		enrollment = &models.Enrollment{Course: course}
	}

	quizSubs, assignmentSubs, err := s.fetchAttempts(ctx, sess, course)
	if err != nil {
		return nil, unavailable(err)
	}

	st := player.NewState(*course, *enrollment, quizSubs, assignmentSubs)

	ws := s.workspaces.Get(sess.ID)
	ws.SetPlayer(courseID, st)
	for quizID, qs := range st.Quizzes {
		if qs.Latest == nil {
			continue
		}
		prefill := player.PrefillFrom(qs.Latest)
		ws.UpdateAnswers(quizID, func(sheet player.AnswerSheet) {
			for id, a := range sheet.Overlay(prefill) {
				sheet[id] = a
			}
		})
	}

	return st, nil
}

// fetchAttempts параллельно читает попытки по квизам и свои работы по заданиям.
// Отдельная ошибка означает "попыток нет", кроме истекшей сессии.
func (s *playerService) fetchAttempts(ctx context.Context, sess *session.Session, course *models.Course) (
	map[int64][]models.QuizSubmission,
	map[int64][]models.AssignmentSubmission,
	error,
) {
	var mu sync.Mutex
	quizSubs := make(map[int64][]models.QuizSubmission)
	assignmentSubs := make(map[int64][]models.AssignmentSubmission)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(playerFetchConcurrency)

	for _, quiz := range course.Quizzes() {
		quizID := quiz.ID
		g.Go(func() error {
			subs, err := s.submissions.QuizSubmissions(gctx, sess, quizID)
			if err != nil {
				if isSessionExpired(err) {
					return err
				}
				s.logger.Warn().Err(err).Int64("quiz_id", quizID).Msg("Failed to load quiz submissions")
				return nil
			}
			mu.Lock()
			quizSubs[quizID] = subs
			mu.Unlock()
			return nil
		})
	}

	for _, assignment := range course.Assignments() {
		assignmentID := assignment.ID
		g.Go(func() error {
			subs, err := s.submissions.AssignmentSubmissions(gctx, sess, assignmentID)
			if err != nil {
				if isSessionExpired(err) {
					return err
				}
				s.logger.Warn().Err(err).Int64("assignment_id", assignmentID).Msg("Failed to load assignment submissions")
				return nil
			}
			var own []models.AssignmentSubmission
			for _, sub := range subs {
				if sub.Student == nil || sess.User == nil || sub.Student.ID == sess.User.ID {
					own = append(own, sub)
				}
			}
			mu.Lock()
			assignmentSubs[assignmentID] = own
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return quizSubs, assignmentSubs, nil
}

func (s *playerService) State(ctx context.Context, sess *session.Session, courseID int64) (*player.State, error) {
	if st, ok := s.workspaces.Get(sess.ID).Player(courseID); ok {
		return st, nil
	}
	return s.Load(ctx, sess, courseID)
}

func (s *playerService) Answers(sess *session.Session, quizID int64) player.AnswerSheet {
	return s.workspaces.Get(sess.ID).Answers(quizID)
}

func (s *playerService) CompleteLesson(ctx context.Context, sess *session.Session, courseID, lessonID int64) (*player.State, error) {
	st, err := s.State(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}
	if !st.Course.HasLesson(lessonID) {
		return nil, ErrNotFound
	}
	if st.Completed.Has(lessonID) {
		return st, ErrAlreadyCompleted
	}

	result, err := s.courses.CompleteLesson(ctx, sess, lessonID)
	if err != nil {
		return nil, err
	}

	st.ApplyCompletion(*result)
	s.workspaces.Get(sess.ID).SetPlayer(courseID, st)
	s.activity.Record(models.ActivityLessonCompleted, userID(sess.User), courseID, lessonID)

	return st, nil
}

func (s *playerService) UncompleteLesson(ctx context.Context, sess *session.Session, courseID, lessonID int64) (*player.State, error) {
	st, err := s.State(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}
	if !st.Course.HasLesson(lessonID) {
		return nil, ErrNotFound
	}
	if !st.Completed.Has(lessonID) {
		return st, ErrNotCompleted
	}

	result, err := s.courses.UncompleteLesson(ctx, sess, lessonID)
	if err != nil {
		return nil, err
	}

	st.ApplyCompletion(*result)
	s.workspaces.Get(sess.ID).SetPlayer(courseID, st)
	return st, nil
}

func (s *playerService) quiz(ctx context.Context, sess *session.Session, courseID, quizID int64) (*player.State, player.QuizState, error) {
	st, err := s.State(ctx, sess, courseID)
	if err != nil {
		return nil, player.QuizState{}, err
	}
	qs, ok := st.Quiz(quizID)
	if !ok {
		return nil, player.QuizState{}, ErrNotFound
	}
	return st, qs, nil
}

// SaveAnswers сливает ответы по вопросам в черновик, не трогая остальные.
func (s *playerService) SaveAnswers(ctx context.Context, sess *session.Session, courseID, quizID int64, patches map[int64]player.AnswerPatch) (player.AnswerSheet, error) {
	_, qs, err := s.quiz(ctx, sess, courseID, quizID)
	if err != nil {
		return nil, err
	}
	if qs.Locked() {
		return nil, ErrNoAttemptsRemaining
	}

	known := make(map[int64]bool, len(qs.Quiz.Questions))
	for _, q := range qs.Quiz.Questions {
		known[q.ID] = true
	}

	return s.workspaces.Get(sess.ID).UpdateAnswers(quizID, func(sheet player.AnswerSheet) {
		for qid, patch := range patches {
			if known[qid] {
				sheet.Set(qid, patch)
			}
		}
	}), nil
}

func (s *playerService) SubmitQuiz(ctx context.Context, sess *session.Session, courseID, quizID int64, confirmed bool) (*models.QuizSubmission, error) {
	st, qs, err := s.quiz(ctx, sess, courseID, quizID)
	if err != nil {
		return nil, err
	}
	if qs.Locked() {
		return nil, ErrNoAttemptsRemaining
	}

	ws := s.workspaces.Get(sess.ID)
	sheet := ws.Answers(quizID)
	if unanswered := sheet.Unanswered(qs.Quiz.Questions); len(unanswered) > 0 && !confirmed {
		return nil, &UnansweredError{Questions: unanswered}
	}

	submission, err := s.submissions.SubmitQuiz(ctx, sess, models.QuizSubmissionRequest{
		Quiz:    quizID,
		Answers: sheet.Payload(),
	})
	if err != nil {
		return nil, err
	}

	st.RecordQuizSubmission(quizID, *submission)
	ws.SetPlayer(courseID, st)
	ws.ResetAnswers(quizID)
	s.activity.Record(models.ActivityQuizSubmitted, userID(sess.User), courseID, quizID)

	s.logger.Info().
		Int64("quiz_id", quizID).
		Int("attempt", submission.AttemptNumber).
		Float64("score", submission.Score.Float()).
		Msg("Quiz submitted")
	return submission, nil
}

func (s *playerService) SubmitAssignment(
	ctx context.Context,
	sess *session.Session,
	courseID, assignmentID int64,
	text string,
	attachment *models.FileUpload,
) (*models.AssignmentSubmission, error) {
	st, err := s.State(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}
	if _, ok := st.Course.FindAssignment(assignmentID); !ok {
		return nil, ErrNotFound
	}
	if !st.CanSubmit(assignmentID) {
		return nil, ErrAlreadySubmitted
	}

	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return nil, models.NewValidationError("", models.FieldError{
			Field:   "text_response",
			Message: "Add a text response or attach a file.",
		})
	}

	submission, err := s.submissions.SubmitAssignment(ctx, sess, models.AssignmentSubmissionInput{
		AssignmentID: assignmentID,
		TextResponse: text,
		Attachment:   attachment,
	})
	if err != nil {
		return nil, err
	}

	st.RecordAssignmentSubmission(assignmentID, *submission)
	s.workspaces.Get(sess.ID).SetPlayer(courseID, st)
	s.activity.Record(models.ActivityAssignmentSubmitted, userID(sess.User), courseID, assignmentID)

	return submission, nil
}
