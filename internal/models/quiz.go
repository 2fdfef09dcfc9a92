package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(s) {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer:
		return QuestionType(s), nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// HasChoices - вопрос с выбором варианта ответа.
func (t QuestionType) HasChoices() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

type Quiz struct {
	ID               int64          `json:"id"`
	Module           int64          `json:"module"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	TimeLimitMinutes *int           `json:"time_limit_minutes"`
	AttemptsAllowed  int            `json:"attempts_allowed"`
	PassingScore     int            `json:"passing_score"`
	CreatedAt        time.Time      `json:"created_at"`
	Questions        []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID           int64        `json:"id"`
	Prompt       string       `json:"prompt"`
	QuestionType QuestionType `json:"question_type"`
	Order        int          `json:"order"`
	Points       int          `json:"points"`
	Choices      []QuizChoice `json:"choices"`
}

type QuizChoice struct {
	ID        int64  `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuizSubmission struct {
	ID            int64                  `json:"id"`
	Quiz          *Quiz                  `json:"quiz"`
	Student       *User                  `json:"student"`
	SubmittedAt   time.Time              `json:"submitted_at"`
	AttemptNumber int                    `json:"attempt_number"`
	Score         Decimal                `json:"score"`
	Passed        bool                   `json:"passed"`
	Answers       []QuizSubmissionAnswer `json:"answers"`
}

type QuizSubmissionAnswer struct {
	ID             int64   `json:"id"`
	Question       int64   `json:"question"`
	SelectedChoice *int64  `json:"selected_choice"`
	TextResponse   string  `json:"text_response"`
	IsCorrect      bool    `json:"is_correct"`
	PointsAwarded  Decimal `json:"points_awarded"`
}

type QuestionBankEntry struct {
	ID           int64        `json:"id"`
	Owner        *User        `json:"owner,omitempty"`
	Course       *int64       `json:"course"`
	Title        string       `json:"title"`
	Prompt       string       `json:"prompt"`
	QuestionType QuestionType `json:"question_type"`
	Points       int          `json:"points"`
	Choices      []QuizChoice `json:"choices"`
	Tags         string       `json:"tags"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// UnmarshalJSON терпит choices = null и строки вместо объектов (старые записи банка).
func (e *QuestionBankEntry) UnmarshalJSON(data []byte) error {
	type alias QuestionBankEntry
	aux := struct {
		*alias
		Choices json.RawMessage `json:"choices"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Choices = nil
	if len(aux.Choices) == 0 || string(aux.Choices) == "null" {
		return nil
	}

	if err := json.Unmarshal(aux.Choices, &e.Choices); err == nil {
		return nil
	}

	var texts []string
	if err := json.Unmarshal(aux.Choices, &texts); err != nil {
		return fmt.Errorf("invalid question bank choices: %w", err)
	}
	for _, t := range texts {
		e.Choices = append(e.Choices, QuizChoice{Text: t})
	}
	return nil
}
