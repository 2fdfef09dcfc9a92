package player

import "github.com/Aidensmirk/online-learning-platform/internal/models"

// AttemptsRemaining = max(allowed - latest, 0). Без попыток latest = 0.
func AttemptsRemaining(allowed, latestAttempt int) int {
	if remaining := allowed - latestAttempt; remaining > 0 {
		return remaining
	}
	return 0
}

// LatestSubmission выбирает попытку с наибольшим attempt_number.
func LatestSubmission(submissions []models.QuizSubmission) *models.QuizSubmission {
	var latest *models.QuizSubmission
	for i := range submissions {
		if latest == nil || submissions[i].AttemptNumber > latest.AttemptNumber {
			latest = &submissions[i]
		}
	}
	if latest == nil {
		return nil
	}
	out := *latest
	return &out
}

type QuizState struct {
	Quiz   models.Quiz
	Latest *models.QuizSubmission
}

func NewQuizState(quiz models.Quiz, submissions []models.QuizSubmission) QuizState {
	return QuizState{Quiz: quiz, Latest: LatestSubmission(submissions)}
}

func (s QuizState) latestAttempt() int {
	if s.Latest == nil {
		return 0
	}
	return s.Latest.AttemptNumber
}

func (s QuizState) Remaining() int {
	return AttemptsRemaining(s.Quiz.AttemptsAllowed, s.latestAttempt())
}

// Locked - попытки закончились: ответы и отправка недоступны.
func (s QuizState) Locked() bool {
	return s.Remaining() == 0
}

func (s QuizState) Attempted() bool {
	return s.Latest != nil
}
