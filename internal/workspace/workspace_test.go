package workspace

import (
	"testing"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetCreatesOncePerSession(t *testing.T) {
	s := NewStore(time.Hour, zerolog.Nop())

	a := s.Get("one")
	assert.Same(t, a, s.Get("one"))
	assert.NotSame(t, a, s.Get("two"))
	assert.Equal(t, 2, s.Len())

	s.Drop("one")
	assert.Equal(t, 1, s.Len())
	assert.NotSame(t, a, s.Get("one"))
}

func TestStore_SweepEvictsIdle(t *testing.T) {
	s := NewStore(10*time.Minute, zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Get("old")
	now = now.Add(8 * time.Minute)
	s.Get("fresh")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	ws := s.Get("fresh")
	assert.NotNil(t, ws)
}

func TestWorkspace_PlayerIsCopied(t *testing.T) {
	ws := NewStore(time.Hour, zerolog.Nop()).Get("s")

	_, ok := ws.Player(1)
	assert.False(t, ok)

	st := player.NewState(models.Course{ID: 1}, models.Enrollment{Progress: 10}, nil, nil)
	ws.SetPlayer(1, st)

	st.Enrollment.Progress = 99
	got, ok := ws.Player(1)
	require.True(t, ok)
	assert.Equal(t, 10, got.Progress())

	got.Completed[5] = struct{}{}
	again, _ := ws.Player(1)
	assert.False(t, again.Completed.Has(5))
}

func TestWorkspace_AnswersMergePerQuestion(t *testing.T) {
	ws := NewStore(time.Hour, zerolog.Nop()).Get("s")

	choice := int64(3)
	text := "answer"
	ws.UpdateAnswers(7, func(s player.AnswerSheet) { s.Set(1, player.AnswerPatch{Choice: &choice}) })
	ws.UpdateAnswers(7, func(s player.AnswerSheet) { s.Set(2, player.AnswerPatch{Text: &text}) })

	sheet := ws.Answers(7)
	assert.Equal(t, int64(3), *sheet[1].Choice)
	assert.Equal(t, "answer", sheet[2].Text)

	ws.ResetAnswers(7)
	assert.Empty(t, ws.Answers(7))
}

func TestWorkspace_QuizDraftLifecycle(t *testing.T) {
	ws := NewStore(time.Hour, zerolog.Nop()).Get("s")

	d := ws.QuizDraft(4)
	d.Title = "Week 1"
	d.AddQuestion(models.QuestionShortAnswer)
	assert.Empty(t, ws.QuizDraft(4).Questions)

	ws.SetQuizDraft(4, d)
	assert.Len(t, ws.QuizDraft(4).Questions, 1)

	ws.ClearQuizDraft(4)
	assert.Equal(t, "", ws.QuizDraft(4).Title)
}

func TestWorkspace_Flashes(t *testing.T) {
	ws := NewStore(time.Hour, zerolog.Nop()).Get("s")
	ws.AddFlash(FlashSuccess, "Saved")
	ws.AddFlash(FlashError, "Failed")

	assert.Equal(t, []Flash{{FlashSuccess, "Saved"}, {FlashError, "Failed"}}, ws.PopFlashes())
	assert.Empty(t, ws.PopFlashes())
}
