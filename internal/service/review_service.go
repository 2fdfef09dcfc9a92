package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

type ReviewPage struct {
	Assignment  *models.Assignment
	Submissions []models.AssignmentSubmission
}

type ReviewService interface {
	Submissions(ctx context.Context, sess *session.Session, assignmentID int64) (*ReviewPage, error)
	Grade(ctx context.Context, sess *session.Session, assignmentID, submissionID int64, in models.GradeInput) (*models.AssignmentSubmission, error)
	SetStatus(ctx context.Context, sess *session.Session, submissionID int64, status string) (*models.AssignmentSubmission, error)
}

type reviewService struct {
	content     integration.ContentClient
	submissions integration.SubmissionClient
	logger      zerolog.Logger
}

func NewReviewService(content integration.ContentClient, submissions integration.SubmissionClient, logger zerolog.Logger) ReviewService {
	return &reviewService{
		content:     content,
		submissions: submissions,
		logger:      logger,
	}
}

func (s *reviewService) Submissions(ctx context.Context, sess *session.Session, assignmentID int64) (*ReviewPage, error) {
	assignment, err := s.content.GetAssignment(ctx, sess, assignmentID)
	if err != nil {
		return nil, err
	}

	subs, err := s.submissions.AssignmentSubmissions(ctx, sess, assignmentID)
	if err != nil {
		return nil, err
	}

	return &ReviewPage{Assignment: assignment, Submissions: subs}, nil
}

// Grade проверяет оценку до запроса: она обязательна, конечна и лежит в 0..max_points.
func (s *reviewService) Grade(ctx context.Context, sess *session.Session, assignmentID, submissionID int64, in models.GradeInput) (*models.AssignmentSubmission, error) {
	assignment, err := s.content.GetAssignment(ctx, sess, assignmentID)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = models.SubmissionGraded
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if assignment.MaxPoints > 0 {
		if err := models.ValidateField("grade", *in.Grade, fmt.Sprintf("lte=%d", assignment.MaxPoints)); err != nil {
			return nil, err
		}
	}
	in.Feedback = strings.TrimSpace(in.Feedback)

	graded, err := s.submissions.Grade(ctx, sess, submissionID, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("submission_id", submissionID).
		Float64("grade", *in.Grade).
		Str("status", string(in.Status)).
		Msg("Submission graded")
	return graded, nil
}

func (s *reviewService) SetStatus(ctx context.Context, sess *session.Session, submissionID int64, status string) (*models.AssignmentSubmission, error) {
	parsed, err := models.ParseSubmissionStatus(status)
	if err != nil {
		return nil, models.NewValidationError("", models.FieldError{Field: "status", Message: "Unknown submission status."})
	}
	return s.submissions.SetStatus(ctx, sess, submissionID, parsed)
}
