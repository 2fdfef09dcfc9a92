package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
)

var (
	ErrPlayerUnavailable   = errors.New("course player is unavailable")
	ErrAlreadyCompleted    = errors.New("lesson is already completed")
	ErrNotCompleted        = errors.New("lesson is not completed")
	ErrNoAttemptsRemaining = errors.New("no quiz attempts remaining")
	ErrAlreadySubmitted    = errors.New("assignment already submitted")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("not allowed")
)

// UnansweredError - в квизе остались пустые вопросы, а отправку не подтвердили.
type UnansweredError struct {
	Questions []models.QuizQuestion
}

func (e *UnansweredError) Error() string {
	ids := make([]string, 0, len(e.Questions))
	for _, q := range e.Questions {
		ids = append(ids, fmt.Sprint(q.ID))
	}
	return fmt.Sprintf("%d question(s) unanswered: %s", len(e.Questions), strings.Join(ids, ", "))
}

func isSessionExpired(err error) bool {
	return errors.Is(err, integration.ErrSessionExpired)
}
