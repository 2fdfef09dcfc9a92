package player

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
)

type Answer struct {
	Choice *int64
	Text   string
}

// AnswerPatch меняет только заданные поля ответа.
type AnswerPatch struct {
	Choice *int64
	Text   *string
}

// AnswerSheet - черновик ответов попытки, ключ - id вопроса.
type AnswerSheet map[int64]Answer

// Set сливает patch с ответом на один вопрос, остальные ответы не трогает.
func (s AnswerSheet) Set(questionID int64, patch AnswerPatch) {
	current := s[questionID]
	if patch.Choice != nil {
		choice := *patch.Choice
		current.Choice = &choice
	}
	if patch.Text != nil {
		current.Text = *patch.Text
	}
	s[questionID] = current
}

func (s AnswerSheet) Clone() AnswerSheet {
	out := make(AnswerSheet, len(s))
	for id, a := range s {
		if a.Choice != nil {
			choice := *a.Choice
			a.Choice = &choice
		}
		out[id] = a
	}
	return out
}

// PrefillFrom переносит ответы последней попытки в черновик.
func PrefillFrom(submission *models.QuizSubmission) AnswerSheet {
	sheet := AnswerSheet{}
	if submission == nil {
		return sheet
	}

	for _, a := range submission.Answers {
		var entry Answer
		if a.SelectedChoice != nil && *a.SelectedChoice != 0 {
			choice := *a.SelectedChoice
			entry.Choice = &choice
		}
		if a.TextResponse != "" {
			entry.Text = a.TextResponse
		}
		sheet[a.Question] = entry
	}
	return sheet
}

// Overlay кладет s поверх prefill: из prefill берутся только отсутствующие вопросы.
func (s AnswerSheet) Overlay(prefill AnswerSheet) AnswerSheet {
	out := prefill.Clone()
	for id, a := range s.Clone() {
		out[id] = a
	}
	return out
}

func (s AnswerSheet) answered(q models.QuizQuestion) bool {
	a, ok := s[q.ID]
	if !ok {
		return false
	}
	if q.QuestionType == models.QuestionShortAnswer {
		return strings.TrimSpace(a.Text) != ""
	}
	return a.Choice != nil && *a.Choice != 0
}

func (s AnswerSheet) Unanswered(questions []models.QuizQuestion) []models.QuizQuestion {
	var out []models.QuizQuestion
	for _, q := range questions {
		if !s.answered(q) {
			out = append(out, q)
		}
	}
	return out
}

// Payload - тело answers для quiz-submissions.
func (s AnswerSheet) Payload() map[string]models.AnswerPayload {
	out := make(map[string]models.AnswerPayload, len(s))
	for id, a := range s {
		p := models.AnswerPayload{Text: a.Text}
		if a.Choice != nil {
			choice := *a.Choice
			p.Choice = &choice
		}
		out[strconv.FormatInt(id, 10)] = p
	}
	return out
}

func (s AnswerSheet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Selected - отмечен ли вариант choiceID у вопроса; нужно шаблону.
func (s AnswerSheet) Selected(questionID, choiceID int64) bool {
	a, ok := s[questionID]
	return ok && a.Choice != nil && *a.Choice == choiceID
}

func (s AnswerSheet) TextFor(questionID int64) string {
	return s[questionID].Text
}
