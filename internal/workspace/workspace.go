package workspace

import (
	"sync"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/editor"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
)

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
	FlashInfo    FlashLevel = "info"
)

type Flash struct {
	Level   FlashLevel
	Message string
}

// Workspace - состояние интерфейса одной сессии: плееры, черновики, уведомления.
// Наружу отдаются копии, поэтому изменения вступают в силу только через Set*.
type Workspace struct {
	mu         sync.Mutex
	players    map[int64]*player.State
	answers    map[int64]player.AnswerSheet
	quizDrafts map[int64]*editor.QuizDraft
	flashes    []Flash
	touched    time.Time
}

func newWorkspace(now time.Time) *Workspace {
	return &Workspace{
		players:    make(map[int64]*player.State),
		answers:    make(map[int64]player.AnswerSheet),
		quizDrafts: make(map[int64]*editor.QuizDraft),
		touched:    now,
	}
}

func (w *Workspace) Player(courseID int64) (*player.State, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.players[courseID]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

func (w *Workspace) SetPlayer(courseID int64, st *player.State) {
	w.mu.Lock()
	w.players[courseID] = st.Clone()
	w.mu.Unlock()
}

// Answers - черновик ответов квиза; пустой лист, если ответов нет.
func (w *Workspace) Answers(quizID int64) player.AnswerSheet {
	w.mu.Lock()
	defer w.mu.Unlock()

	if sheet, ok := w.answers[quizID]; ok {
		return sheet.Clone()
	}
	return player.AnswerSheet{}
}

func (w *Workspace) SetAnswers(quizID int64, sheet player.AnswerSheet) {
	w.mu.Lock()
	w.answers[quizID] = sheet.Clone()
	w.mu.Unlock()
}

// UpdateAnswers применяет fn к черновику под блокировкой, чтобы параллельные правки не терялись.
func (w *Workspace) UpdateAnswers(quizID int64, fn func(player.AnswerSheet)) player.AnswerSheet {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, ok := w.answers[quizID]
	if !ok {
		sheet = player.AnswerSheet{}
		w.answers[quizID] = sheet
	}
	fn(sheet)
	return sheet.Clone()
}

func (w *Workspace) ResetAnswers(quizID int64) {
	w.mu.Lock()
	w.answers[quizID] = player.AnswerSheet{}
	w.mu.Unlock()
}

// QuizDraft возвращает копию черновика квиза для модуля, создавая новый при первом обращении.
func (w *Workspace) QuizDraft(moduleID int64) *editor.QuizDraft {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.quizDrafts[moduleID]
	if !ok {
		d = editor.NewQuizDraft()
		w.quizDrafts[moduleID] = d
	}
	return d.Clone()
}

func (w *Workspace) SetQuizDraft(moduleID int64, d *editor.QuizDraft) {
	w.mu.Lock()
	w.quizDrafts[moduleID] = d.Clone()
	w.mu.Unlock()
}

func (w *Workspace) ClearQuizDraft(moduleID int64) {
	w.mu.Lock()
	delete(w.quizDrafts, moduleID)
	w.mu.Unlock()
}

func (w *Workspace) AddFlash(level FlashLevel, message string) {
	w.mu.Lock()
	w.flashes = append(w.flashes, Flash{Level: level, Message: message})
	w.mu.Unlock()
}

// PopFlashes отдает накопленные уведомления и очищает очередь.
func (w *Workspace) PopFlashes() []Flash {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.flashes
	w.flashes = nil
	return out
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.touched = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}
