package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
)

// ContentClient - редактор курса: модули, уроки, задания, тесты и банк вопросов.
type ContentClient interface {
	Modules(ctx context.Context, sess *session.Session, courseID int64) ([]models.CourseModule, error)
	CreateModule(ctx context.Context, sess *session.Session, in models.ModuleInput) (*models.CourseModule, error)
	DeleteModule(ctx context.Context, sess *session.Session, id int64) error
	CreateLesson(ctx context.Context, sess *session.Session, in models.LessonInput) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, sess *session.Session, id int64) error
	CreateAssignment(ctx context.Context, sess *session.Session, in models.AssignmentInput) (*models.Assignment, error)
	GetAssignment(ctx context.Context, sess *session.Session, id int64) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, sess *session.Session, id int64) error
	CreateQuiz(ctx context.Context, sess *session.Session, in models.QuizInput) (*models.Quiz, error)
	DeleteQuiz(ctx context.Context, sess *session.Session, id int64) error

	QuestionBank(ctx context.Context, sess *session.Session, courseID int64, search string) ([]models.QuestionBankEntry, error)
	SaveToBank(ctx context.Context, sess *session.Session, in models.QuestionBankInput) (*models.QuestionBankEntry, error)
	DeleteFromBank(ctx context.Context, sess *session.Session, id int64) error
}

type contentClient struct {
	t *transport
}

func (c *contentClient) Modules(ctx context.Context, sess *session.Session, courseID int64) ([]models.CourseModule, error) {
	q := url.Values{}
	q.Set("course", strconv.FormatInt(courseID, 10))
	return listOf[models.CourseModule](ctx, c.t, sess, "/modules/", q)
}

func (c *contentClient) CreateModule(ctx context.Context, sess *session.Session, in models.ModuleInput) (*models.CourseModule, error) {
	r, err := newRequest(http.MethodPost, "/modules/").withJSON(in)
	if err != nil {
		return nil, err
	}

	var module models.CourseModule
	if err := c.t.do(ctx, sess, r, &module); err != nil {
		return nil, err
	}

	c.t.logger.Info().Int64("module_id", module.ID).Int64("course_id", in.Course).Msg("Module created")
	return &module, nil
}

func (c *contentClient) DeleteModule(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/modules/%d/", id)), nil)
}

func (c *contentClient) CreateLesson(ctx context.Context, sess *session.Session, in models.LessonInput) (*models.Lesson, error) {
	r, err := newRequest(http.MethodPost, "/lessons/").withJSON(in)
	if err != nil {
		return nil, err
	}

	var lesson models.Lesson
	if err := c.t.do(ctx, sess, r, &lesson); err != nil {
		return nil, err
	}

	c.t.logger.Info().Int64("lesson_id", lesson.ID).Int64("module_id", in.Module).Msg("Lesson created")
	return &lesson, nil
}

func (c *contentClient) DeleteLesson(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/lessons/%d/", id)), nil)
}

func (c *contentClient) CreateAssignment(ctx context.Context, sess *session.Session, in models.AssignmentInput) (*models.Assignment, error) {
	fields := []formField{
		{Name: "module", Value: strconv.FormatInt(in.Module, 10)},
		{Name: "title", Value: in.Title},
		{Name: "instructions", Value: in.Instructions},
		{Name: "max_points", Value: strconv.Itoa(in.MaxPoints)},
		{Name: "allow_resubmission", Value: strconv.FormatBool(in.AllowResubmission)},
	}
	if in.DueDate != nil {
		fields = append(fields, formField{Name: "due_date", Value: in.DueDate.Format(time.RFC3339)})
	}
	if in.Attachment != nil {
		fields = append(fields, formField{Name: "attachment", File: in.Attachment})
	}

	r, err := newRequest(http.MethodPost, "/assignments/").withMultipart(fields)
	if err != nil {
		return nil, err
	}

	var assignment models.Assignment
	if err := c.t.do(ctx, sess, r, &assignment); err != nil {
		return nil, err
	}

	c.t.logger.Info().Int64("assignment_id", assignment.ID).Int64("module_id", in.Module).Msg("Assignment created")
	return &assignment, nil
}

func (c *contentClient) GetAssignment(ctx context.Context, sess *session.Session, id int64) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := c.t.do(ctx, sess, newRequest(http.MethodGet, fmt.Sprintf("/assignments/%d/", id)), &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (c *contentClient) DeleteAssignment(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/assignments/%d/", id)), nil)
}

func (c *contentClient) CreateQuiz(ctx context.Context, sess *session.Session, in models.QuizInput) (*models.Quiz, error) {
	r, err := newRequest(http.MethodPost, "/quizzes/").withJSON(in)
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := c.t.do(ctx, sess, r, &quiz); err != nil {
		return nil, err
	}

	c.t.logger.Info().
		Int64("quiz_id", quiz.ID).
		Int64("module_id", in.Module).
		Int("questions", len(in.Questions)).
		Msg("Quiz created")
	return &quiz, nil
}

func (c *contentClient) DeleteQuiz(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/quizzes/%d/", id)), nil)
}

func (c *contentClient) QuestionBank(ctx context.Context, sess *session.Session, courseID int64, search string) ([]models.QuestionBankEntry, error) {
	q := url.Values{}
	if courseID > 0 {
		q.Set("course", strconv.FormatInt(courseID, 10))
	}
	if search != "" {
		q.Set("search", search)
	}
	return listOf[models.QuestionBankEntry](ctx, c.t, sess, "/question-bank/", q)
}

func (c *contentClient) SaveToBank(ctx context.Context, sess *session.Session, in models.QuestionBankInput) (*models.QuestionBankEntry, error) {
	r, err := newRequest(http.MethodPost, "/question-bank/").withJSON(in)
	if err != nil {
		return nil, err
	}

	var entry models.QuestionBankEntry
	if err := c.t.do(ctx, sess, r, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *contentClient) DeleteFromBank(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/question-bank/%d/", id)), nil)
}
