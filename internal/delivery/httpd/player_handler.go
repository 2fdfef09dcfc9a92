package httpd

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/player"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
)

type playerPage struct {
	State      *player.State
	Base       string
	Lesson     *models.Lesson
	Quiz       *player.QuizState
	Answers    player.AnswerSheet
	Confirm    bool
	Assignment *models.Assignment
	Submission *models.AssignmentSubmission
	CanSubmit  bool
}

func playerBase(courseID int64) string {
	return fmt.Sprintf("/course-player/%d", courseID)
}

// CoursePlayer перечитывает курс при каждом открытии; выбранный элемент задается ?lesson=, ?quiz= или ?assignment=.
func (h *Handler) CoursePlayer(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := currentSession(r)

	st, err := h.services.Player.Load(r.Context(), sess, courseID)
	if err != nil {
		h.handleReadError(w, r, err, "/my-courses")
		return
	}

	data := playerPage{State: st, Base: playerBase(courseID)}
	switch {
	case queryID(r, "quiz") > 0:
		quizID := queryID(r, "quiz")
		if qs, ok := st.Quiz(quizID); ok {
			data.Quiz = &qs
			data.Answers = h.services.Player.Answers(sess, quizID)
			data.Confirm = r.URL.Query().Get("confirm") == "1"
		}
	case queryID(r, "assignment") > 0:
		assignmentID := queryID(r, "assignment")
		if a, ok := st.Course.FindAssignment(assignmentID); ok {
			data.Assignment = a
			data.Submission = st.Submissions[assignmentID]
			data.CanSubmit = st.CanSubmit(assignmentID)
		}
	}

	if data.Quiz == nil && data.Assignment == nil {
		lessons := st.Course.Lessons()
		lessonID := queryID(r, "lesson")
		for i := range lessons {
			if lessonID == 0 || lessons[i].ID == lessonID {
				data.Lesson = &lessons[i]
				break
			}
		}
	}

	h.page(w, r, "player", st.Course.Title, data)
}

func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	h.lessonProgress(w, r, true)
}

func (h *Handler) UncompleteLesson(w http.ResponseWriter, r *http.Request) {
	h.lessonProgress(w, r, false)
}

func (h *Handler) lessonProgress(w http.ResponseWriter, r *http.Request, complete bool) {
	courseID, ok1 := urlID(r, "courseID")
	lessonID, ok2 := urlID(r, "lessonID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("%s?lesson=%d", playerBase(courseID), lessonID)
	sess := currentSession(r)

	action := "lesson.uncomplete"
	if complete {
		action = "lesson.complete"
	}
	v, err := h.once(r, action, lessonID, func() (interface{}, error) {
		if complete {
			return h.services.Player.CompleteLesson(r.Context(), sess, courseID, lessonID)
		}
		return h.services.Player.UncompleteLesson(r.Context(), sess, courseID, lessonID)
	})

	switch {
	case errors.Is(err, service.ErrAlreadyCompleted):
		h.flash(r, workspace.FlashInfo, "This lesson is already completed.")
	case errors.Is(err, service.ErrNotCompleted):
		h.flash(r, workspace.FlashInfo, "This lesson is not completed yet.")
	case err != nil:
		h.handleActionError(w, r, err, back)
		return
	case complete:
		st := v.(*player.State)
		h.flash(r, workspace.FlashSuccess, fmt.Sprintf("Lesson completed. Course progress: %d%%.", st.Progress()))
	default:
		h.flash(r, workspace.FlashInfo, "Lesson marked as not completed.")
	}
	redirect(w, r, back)
}

// answerPatches читает поля q_<id>: id варианта для вопросов с выбором, текст для short_answer.
func answerPatches(r *http.Request, quiz models.Quiz) map[int64]player.AnswerPatch {
	patches := make(map[int64]player.AnswerPatch)
	for _, q := range quiz.Questions {
		key := "q_" + strconv.FormatInt(q.ID, 10)
		values, present := r.PostForm[key]
		if !present || len(values) == 0 {
			continue
		}
		raw := values[0]

		if q.QuestionType == models.QuestionShortAnswer {
			text := raw
			patches[q.ID] = player.AnswerPatch{Text: &text}
			continue
		}
		choice, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			continue
		}
		patches[q.ID] = player.AnswerPatch{Choice: &choice}
	}
	return patches
}

func (h *Handler) saveAnswers(r *http.Request, courseID, quizID int64) error {
	if err := parseForm(r); err != nil {
		return models.NewValidationError("The form could not be read.")
	}
	sess := currentSession(r)

	st, err := h.services.Player.State(r.Context(), sess, courseID)
	if err != nil {
		return err
	}
	qs, ok := st.Quiz(quizID)
	if !ok {
		return service.ErrNotFound
	}

	_, err = h.services.Player.SaveAnswers(r.Context(), sess, courseID, quizID, answerPatches(r, qs.Quiz))
	return err
}

func (h *Handler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	courseID, ok1 := urlID(r, "courseID")
	quizID, ok2 := urlID(r, "quizID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("%s?quiz=%d", playerBase(courseID), quizID)

	if err := h.saveAnswers(r, courseID, quizID); err != nil {
		h.handleActionError(w, r, err, back)
		return
	}
	h.flash(r, workspace.FlashSuccess, "Answers saved.")
	redirect(w, r, back)
}

// SubmitQuiz сначала сохраняет ответы из формы, затем отправляет попытку.
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	courseID, ok1 := urlID(r, "courseID")
	quizID, ok2 := urlID(r, "quizID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("%s?quiz=%d", playerBase(courseID), quizID)

	if err := h.saveAnswers(r, courseID, quizID); err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	confirmed := formBool(r, "confirm")
	v, err := h.once(r, "quiz.submit", quizID, func() (interface{}, error) {
		return h.services.Player.SubmitQuiz(r.Context(), currentSession(r), courseID, quizID, confirmed)
	})

	var unanswered *service.UnansweredError
	if errors.As(err, &unanswered) {
		h.flash(r, workspace.FlashInfo, fmt.Sprintf(
			"%d question(s) are unanswered. Submit anyway?", len(unanswered.Questions)))
		redirect(w, r, back+"&confirm=1")
		return
	}
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	submission := v.(*models.QuizSubmission)
	result := "Keep practicing."
	if submission.Passed {
		result = "You passed!"
	}
	h.flash(r, workspace.FlashSuccess, fmt.Sprintf("Attempt %d submitted. Score: %s%%. %s",
		submission.AttemptNumber, submission.Score.String(), result))
	redirect(w, r, back)
}

func (h *Handler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	courseID, ok1 := urlID(r, "courseID")
	assignmentID, ok2 := urlID(r, "assignmentID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("%s?assignment=%d", playerBase(courseID), assignmentID)

	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	attachment, closeFile, err := formFile(r, "attachment")
	if err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFile()

	_, err = h.once(r, "assignment.submit", assignmentID, func() (interface{}, error) {
		return h.services.Player.SubmitAssignment(r.Context(), currentSession(r),
			courseID, assignmentID, r.PostFormValue("text_response"), attachment)
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	h.flash(r, workspace.FlashSuccess, "Assignment submitted.")
	redirect(w, r, back)
}
