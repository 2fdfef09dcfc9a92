// Package editor - конструктор квиза, который живет в памяти до одного вызова создания.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
)

var (
	ErrQuestionIndex = errors.New("question index out of range")
	ErrChoiceIndex   = errors.New("choice index out of range")
	ErrNoChoices     = errors.New("question type has no choices")
)

const (
	defaultAttempts     = 1
	defaultPassingScore = 70
	bankTitleLimit      = 120
)

type ChoiceDraft struct {
	Text      string
	IsCorrect bool
}

type QuestionDraft struct {
	Prompt  string
	Type    models.QuestionType
	Points  int
	Order   int
	Choices []ChoiceDraft
}

func (q QuestionDraft) clone() QuestionDraft {
	if q.Choices != nil {
		choices := make([]ChoiceDraft, len(q.Choices))
		copy(choices, q.Choices)
		q.Choices = choices
	}
	return q
}

type QuizDraft struct {
	Title            string          `form:"title" validate:"notblank"`
	Description      string          `form:"description"`
	TimeLimitMinutes *int            `form:"time_limit_minutes" validate:"omitempty,gte=1"`
	AttemptsAllowed  int             `form:"attempts_allowed" validate:"gte=1"`
	PassingScore     int             `form:"passing_score" validate:"gte=0,lte=100"`
	Questions        []QuestionDraft `form:"questions"`
}

func NewQuizDraft() *QuizDraft {
	return &QuizDraft{
		AttemptsAllowed: defaultAttempts,
		PassingScore:    defaultPassingScore,
	}
}

func (d *QuizDraft) Clone() *QuizDraft {
	out := *d
	if d.TimeLimitMinutes != nil {
		limit := *d.TimeLimitMinutes
		out.TimeLimitMinutes = &limit
	}
	out.Questions = make([]QuestionDraft, len(d.Questions))
	for i, q := range d.Questions {
		out.Questions[i] = q.clone()
	}
	return &out
}

func defaultChoices(t models.QuestionType) []ChoiceDraft {
	switch t {
	case models.QuestionTrueFalse:
		return []ChoiceDraft{{Text: "True", IsCorrect: true}, {Text: "False"}}
	case models.QuestionShortAnswer:
		return nil
	default:
		return []ChoiceDraft{{}, {}}
	}
}

func (d *QuizDraft) renumber() {
	for i := range d.Questions {
		d.Questions[i].Order = i + 1
	}
}

func (d *QuizDraft) question(i int) (*QuestionDraft, error) {
	if i < 0 || i >= len(d.Questions) {
		return nil, fmt.Errorf("%w: %d", ErrQuestionIndex, i)
	}
	return &d.Questions[i], nil
}

func (d *QuizDraft) AddQuestion(t models.QuestionType) {
	if _, err := models.ParseQuestionType(string(t)); err != nil {
		t = models.QuestionMultipleChoice
	}
	d.Questions = append(d.Questions, QuestionDraft{
		Type:    t,
		Points:  1,
		Choices: defaultChoices(t),
	})
	d.renumber()
}

// UpdateQuestion заменяет вопрос; при смене типа варианты сбрасываются под новый тип.
func (d *QuizDraft) UpdateQuestion(i int, q QuestionDraft) error {
	current, err := d.question(i)
	if err != nil {
		return err
	}

	updated := q.clone()
	if updated.Type != current.Type {
		switch {
		case updated.Type == models.QuestionMultipleChoice && len(current.Choices) >= 2:
			updated.Choices = current.clone().Choices
		default:
			updated.Choices = defaultChoices(updated.Type)
		}
	}
	if updated.Type == models.QuestionShortAnswer {
		updated.Choices = nil
	}

	*current = updated
	d.renumber()
	return nil
}

// MoveQuestion меняет вопрос местами с соседом; выход за границы ничего не делает.
func (d *QuizDraft) MoveQuestion(i, direction int) bool {
	j := i + direction
	if direction == 0 || i < 0 || i >= len(d.Questions) || j < 0 || j >= len(d.Questions) {
		return false
	}
	d.Questions[i], d.Questions[j] = d.Questions[j], d.Questions[i]
	d.renumber()
	return true
}

func (d *QuizDraft) DuplicateQuestion(i int) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}

	copied := q.clone()
	d.Questions = append(d.Questions, QuestionDraft{})
	copy(d.Questions[i+2:], d.Questions[i+1:])
	d.Questions[i+1] = copied
	d.renumber()
	return nil
}

func (d *QuizDraft) RemoveQuestion(i int) error {
	if _, err := d.question(i); err != nil {
		return err
	}
	d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
	d.renumber()
	return nil
}

func (d *QuizDraft) InsertFromBank(entry models.QuestionBankEntry) {
	q := QuestionDraft{
		Prompt: entry.Prompt,
		Type:   entry.QuestionType,
		Points: entry.Points,
	}
	if q.Points <= 0 {
		q.Points = 1
	}
	if q.Type.HasChoices() {
		for _, c := range entry.Choices {
			q.Choices = append(q.Choices, ChoiceDraft{Text: c.Text, IsCorrect: c.IsCorrect})
		}
	}

	d.Questions = append(d.Questions, q)
	d.renumber()
}

func (d *QuizDraft) choiceQuestion(qi int) (*QuestionDraft, error) {
	q, err := d.question(qi)
	if err != nil {
		return nil, err
	}
	if !q.Type.HasChoices() {
		return nil, ErrNoChoices
	}
	return q, nil
}

func (d *QuizDraft) AddChoice(qi int) error {
	q, err := d.choiceQuestion(qi)
	if err != nil {
		return err
	}
	q.Choices = append(q.Choices, ChoiceDraft{})
	return nil
}

func (d *QuizDraft) RemoveChoice(qi, ci int) error {
	q, err := d.choiceQuestion(qi)
	if err != nil {
		return err
	}
	if ci < 0 || ci >= len(q.Choices) {
		return ErrChoiceIndex
	}
	q.Choices = append(q.Choices[:ci], q.Choices[ci+1:]...)
	return nil
}

func (d *QuizDraft) SetChoiceText(qi, ci int, text string) error {
	q, err := d.choiceQuestion(qi)
	if err != nil {
		return err
	}
	if ci < 0 || ci >= len(q.Choices) {
		return ErrChoiceIndex
	}
	q.Choices[ci].Text = text
	return nil
}

// MarkCorrect оставляет правильным ровно один вариант.
func (d *QuizDraft) MarkCorrect(qi, ci int) error {
	q, err := d.choiceQuestion(qi)
	if err != nil {
		return err
	}
	if ci < 0 || ci >= len(q.Choices) {
		return ErrChoiceIndex
	}
	for i := range q.Choices {
		q.Choices[i].IsCorrect = i == ci
	}
	return nil
}

// Validate приводит true_false к вариантам True/False и собирает ошибки полей.
func (d *QuizDraft) Validate() error {
	verr := models.NewValidationError("")

	// поля заголовка проверяются тегами, вопросы - вручную: правила зависят от типа
	if err := models.Validate(d); err != nil {
		var header *models.ValidationError
		if !errors.As(err, &header) {
			return err
		}
		verr.Fields = append(verr.Fields, header.Fields...)
	}

	for i := range d.Questions {
		q := &d.Questions[i]
		field := fmt.Sprintf("questions.%d", i+1)

		if strings.TrimSpace(q.Prompt) == "" {
			verr.Add(field+".prompt", "Question prompt is required.")
		}

		switch q.Type {
		case models.QuestionTrueFalse:
			normalizeTrueFalse(q)
		case models.QuestionMultipleChoice:
			if len(q.Choices) < 2 {
				verr.Add(field+".choices", "Provide at least two choices.")
			}
			for _, c := range q.Choices {
				if strings.TrimSpace(c.Text) == "" {
					verr.Add(field+".choices", "Choice text cannot be empty.")
					break
				}
			}
		case models.QuestionShortAnswer:
			q.Choices = nil
			continue
		default:
			verr.Add(field+".question_type", "Unknown question type.")
			continue
		}

		if correctCount(q.Choices) != 1 {
			verr.Add(field+".choices", "Mark exactly one correct choice.")
		}
	}

	return verr.Err()
}

func normalizeTrueFalse(q *QuestionDraft) {
	trueCorrect := true
	for _, c := range q.Choices {
		if c.IsCorrect {
			trueCorrect = strings.EqualFold(strings.TrimSpace(c.Text), "true")
			break
		}
	}
	q.Choices = []ChoiceDraft{
		{Text: "True", IsCorrect: trueCorrect},
		{Text: "False", IsCorrect: !trueCorrect},
	}
}

func correctCount(choices []ChoiceDraft) int {
	n := 0
	for _, c := range choices {
		if c.IsCorrect {
			n++
		}
	}
	return n
}

func choicesFor(q QuestionDraft) []models.QuizChoice {
	if !q.Type.HasChoices() {
		return []models.QuizChoice{}
	}
	out := make([]models.QuizChoice, 0, len(q.Choices))
	for _, c := range q.Choices {
		out = append(out, models.QuizChoice{Text: strings.TrimSpace(c.Text), IsCorrect: c.IsCorrect})
	}
	return out
}

// Input собирает тело POST /quizzes/ для модуля.
func (d *QuizDraft) Input(moduleID int64) models.QuizInput {
	in := models.QuizInput{
		Module:           moduleID,
		Title:            strings.TrimSpace(d.Title),
		Description:      d.Description,
		TimeLimitMinutes: d.TimeLimitMinutes,
		AttemptsAllowed:  d.AttemptsAllowed,
		PassingScore:     d.PassingScore,
		Questions:        make([]models.QuestionInput, 0, len(d.Questions)),
	}
	if in.AttemptsAllowed < 1 {
		in.AttemptsAllowed = defaultAttempts
	}

	for i, q := range d.Questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		in.Questions = append(in.Questions, models.QuestionInput{
			Prompt:       strings.TrimSpace(q.Prompt),
			QuestionType: q.Type,
			Order:        i + 1,
			Points:       points,
			Choices:      choicesFor(q),
		})
	}
	return in
}

func BankInputFromQuestion(courseID int64, q QuestionDraft) models.QuestionBankInput {
	prompt := strings.TrimSpace(q.Prompt)
	title := prompt
	if runes := []rune(title); len(runes) > bankTitleLimit {
		title = string(runes[:bankTitleLimit])
	}

	points := q.Points
	if points <= 0 {
		points = 1
	}

	in := models.QuestionBankInput{
		Title:        title,
		Prompt:       prompt,
		QuestionType: q.Type,
		Points:       points,
		Choices:      choicesFor(q),
	}
	if courseID > 0 {
		in.Course = &courseID
	}
	return in
}
