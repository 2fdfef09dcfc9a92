package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
)

// SubmissionClient - сдача заданий и тестов, проверка работ.
type SubmissionClient interface {
	AssignmentSubmissions(ctx context.Context, sess *session.Session, assignmentID int64) ([]models.AssignmentSubmission, error)
	SubmitAssignment(ctx context.Context, sess *session.Session, in models.AssignmentSubmissionInput) (*models.AssignmentSubmission, error)
	Grade(ctx context.Context, sess *session.Session, submissionID int64, in models.GradeInput) (*models.AssignmentSubmission, error)
	SetStatus(ctx context.Context, sess *session.Session, submissionID int64, status models.SubmissionStatus) (*models.AssignmentSubmission, error)

	QuizSubmissions(ctx context.Context, sess *session.Session, quizID int64) ([]models.QuizSubmission, error)
	SubmitQuiz(ctx context.Context, sess *session.Session, req models.QuizSubmissionRequest) (*models.QuizSubmission, error)
}

type submissionClient struct {
	t *transport
}

func (c *submissionClient) AssignmentSubmissions(ctx context.Context, sess *session.Session, assignmentID int64) ([]models.AssignmentSubmission, error) {
	q := url.Values{}
	q.Set("assignment", strconv.FormatInt(assignmentID, 10))
	return listOf[models.AssignmentSubmission](ctx, c.t, sess, "/assignment-submissions/", q)
}

func (c *submissionClient) SubmitAssignment(ctx context.Context, sess *session.Session, in models.AssignmentSubmissionInput) (*models.AssignmentSubmission, error) {
	fields := []formField{
		{Name: "assignment_id", Value: strconv.FormatInt(in.AssignmentID, 10)},
		{Name: "text_response", Value: in.TextResponse},
	}
	if in.Attachment != nil {
		fields = append(fields, formField{Name: "attachment", File: in.Attachment})
	}

	r, err := newRequest(http.MethodPost, "/assignment-submissions/").withMultipart(fields)
	if err != nil {
		return nil, err
	}

	var submission models.AssignmentSubmission
	if err := c.t.do(ctx, sess, r, &submission); err != nil {
		return nil, err
	}

	c.t.logger.Info().
		Int64("submission_id", submission.ID).
		Int64("assignment_id", in.AssignmentID).
		Msg("Assignment submitted")
	return &submission, nil
}

func (c *submissionClient) Grade(ctx context.Context, sess *session.Session, submissionID int64, in models.GradeInput) (*models.AssignmentSubmission, error) {
	r, err := newRequest(http.MethodPost, fmt.Sprintf("/assignment-submissions/%d/grade/", submissionID)).withJSON(in)
	if err != nil {
		return nil, err
	}

	var submission models.AssignmentSubmission
	if err := c.t.do(ctx, sess, r, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (c *submissionClient) SetStatus(ctx context.Context, sess *session.Session, submissionID int64, status models.SubmissionStatus) (*models.AssignmentSubmission, error) {
	r, err := newRequest(http.MethodPost, fmt.Sprintf("/assignment-submissions/%d/set_status/", submissionID)).
		withJSON(map[string]string{"status": string(status)})
	if err != nil {
		return nil, err
	}

	var submission models.AssignmentSubmission
	if err := c.t.do(ctx, sess, r, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (c *submissionClient) QuizSubmissions(ctx context.Context, sess *session.Session, quizID int64) ([]models.QuizSubmission, error) {
	q := url.Values{}
	q.Set("quiz", strconv.FormatInt(quizID, 10))
	return listOf[models.QuizSubmission](ctx, c.t, sess, "/quiz-submissions/", q)
}

func (c *submissionClient) SubmitQuiz(ctx context.Context, sess *session.Session, req models.QuizSubmissionRequest) (*models.QuizSubmission, error) {
	r, err := newRequest(http.MethodPost, "/quiz-submissions/").withJSON(req)
	if err != nil {
		return nil, err
	}

	var submission models.QuizSubmission
	if err := c.t.do(ctx, sess, r, &submission); err != nil {
		return nil, err
	}

	c.t.logger.Info().
		Int64("quiz_id", req.Quiz).
		Int("attempt", submission.AttemptNumber).
		Float64("score", submission.Score.Float()).
		Msg("Quiz submitted")
	return &submission, nil
}
