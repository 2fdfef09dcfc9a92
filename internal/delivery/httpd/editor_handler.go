package httpd

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/editor"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

type managePage struct {
	Courses   []models.Course
	Search    string
	Sort      string
	Workspace *service.EditorWorkspace
	Drafts    map[int64]*editor.QuizDraft
	Bank      []models.QuestionBankEntry
	BankQuery string
}

type courseFormPage struct {
	Course *models.Course
	Action string
}

type instructorPage struct {
	Courses        []models.Course
	Analytics      *models.InstructorAnalytics
	Bars           []service.Bar
	AnalyticsError string
}

func manageURL(courseID int64) string {
	return fmt.Sprintf("/manage-courses?course=%d", courseID)
}

func (h *Handler) InstructorDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	courses, err := h.services.Editor.MyCourses(r.Context(), sess, service.CourseListOptions{})
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}

	data := instructorPage{Courses: courses}
	analytics, err := h.services.Analytics.Instructor(r.Context(), sess, queryID(r, "instructor"))
	switch {
	case errors.Is(err, integration.ErrSessionExpired):
		h.expired(w, r)
		return
	case err != nil:
		// страница работает и без аналитики
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load instructor analytics")
		data.AnalyticsError = errorMessage(err, "Analytics are temporarily unavailable.")
	default:
		data.Analytics = analytics
		data.Bars = service.CourseBars(analytics.Courses)
	}

	h.page(w, r, "instructor_dashboard", "Instructor dashboard", data)
}

func courseForm(c *models.Course) url.Values {
	if c == nil {
		return url.Values{"status": {string(models.CourseDraft)}, "price": {"0"}}
	}
	return url.Values{
		"title":           {c.Title},
		"description":     {c.Description},
		"price":           {c.Price.String()},
		"category":        {c.Category},
		"status":          {string(c.Status)},
		"estimated_hours": {c.EstimatedHours.String()},
		"prerequisites":   {c.Prerequisites},
	}
}

func courseInput(r *http.Request) models.CourseInput {
	return models.CourseInput{
		Title:          r.PostFormValue("title"),
		Description:    r.PostFormValue("description"),
		Price:          r.PostFormValue("price"),
		Category:       r.PostFormValue("category"),
		Status:         models.CourseStatus(r.PostFormValue("status")),
		EstimatedHours: r.PostFormValue("estimated_hours"),
		Prerequisites:  r.PostFormValue("prerequisites"),
	}
}

func (h *Handler) CreateCoursePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "course_form", &view{
		Title: "Create course",
		Form:  courseForm(nil),
		Data:  courseFormPage{Action: "/create-course"},
	})
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	h.saveCourse(w, r, 0)
}

func (h *Handler) EditCoursePage(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	course, err := h.services.Editor.Course(r.Context(), currentSession(r), courseID)
	if err != nil {
		h.handleReadError(w, r, err, "/manage-courses")
		return
	}
	h.render(w, r, http.StatusOK, "course_form", &view{
		Title: "Edit " + course.Title,
		Form:  courseForm(course),
		Data:  courseFormPage{Course: course, Action: fmt.Sprintf("/edit-course/%d", courseID)},
	})
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.saveCourse(w, r, courseID)
}

// saveCourse создает курс (courseID == 0) или обновляет существующий.
func (h *Handler) saveCourse(w http.ResponseWriter, r *http.Request, courseID int64) {
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	thumbnail, closeFile, err := formFile(r, "thumbnail")
	if err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFile()

	sess := currentSession(r)
	in := courseInput(r)
	in.Thumbnail = thumbnail

	title, action := "Create course", "/create-course"
	if courseID > 0 {
		title, action = "Edit course", fmt.Sprintf("/edit-course/%d", courseID)
	}

	v, err := h.once(r, "course.save", courseID, func() (interface{}, error) {
		if courseID > 0 {
			return h.services.Editor.UpdateCourse(r.Context(), sess, courseID, in)
		}
		return h.services.Editor.CreateCourse(r.Context(), sess, in)
	})
	if err != nil {
		if fields, message, ok := fieldErrors(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, "course_form", &view{
				Title:  title,
				Form:   r.PostForm,
				Errors: fields,
				Error:  message,
				Data:   courseFormPage{Action: action},
			})
			return
		}
		h.handleActionError(w, r, err, action)
		return
	}

	course := v.(*models.Course)
	if courseID > 0 {
		h.flash(r, workspace.FlashSuccess, "Course updated.")
	} else {
		h.flash(r, workspace.FlashSuccess, "Course created. Add modules to get started.")
	}
	redirect(w, r, manageURL(course.ID))
}

// ManageCourses - список своих курсов и редактор содержимого выбранного (?course=).
func (h *Handler) ManageCourses(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	query := r.URL.Query()

	data := managePage{
		Search:    query.Get("q"),
		Sort:      query.Get("sort"),
		BankQuery: query.Get("bank_q"),
	}
	courses, err := h.services.Editor.MyCourses(r.Context(), sess, service.CourseListOptions{
		Search: data.Search,
		Sort:   service.CourseSort(data.Sort),
	})
	if err != nil {
		h.handleReadError(w, r, err, "/instructor-dashboard")
		return
	}
	data.Courses = courses

	courseID := queryID(r, "course")
	if courseID == 0 && len(courses) > 0 {
		courseID = courses[0].ID
	}
	if courseID > 0 {
		ws, err := h.services.Editor.Workspace(r.Context(), sess, courseID)
		if err != nil {
			h.handleReadError(w, r, err, "/instructor-dashboard")
			return
		}
		data.Workspace = ws
		data.Bank = ws.Bank

		if data.BankQuery != "" {
			bank, err := h.services.Editor.ListQuestionBank(r.Context(), sess, courseID, data.BankQuery)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Question bank search failed")
			} else {
				data.Bank = bank
			}
		}

		data.Drafts = make(map[int64]*editor.QuizDraft, len(ws.Modules))
		for _, m := range ws.Modules {
			data.Drafts[m.ID] = h.services.Editor.QuizDraft(sess, m.ID)
		}
	}

	h.page(w, r, "manage_courses", "Manage courses", data)
}

func (h *Handler) SetCourseStatus(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := safeBack(r, manageURL(courseID))

	_, err := h.once(r, "course.status", courseID, func() (interface{}, error) {
		return h.services.Editor.SetCourseStatus(r.Context(), currentSession(r), courseID, r.FormValue("status"))
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}
	h.flash(r, workspace.FlashSuccess, "Course status updated.")
	redirect(w, r, back)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	_, err := h.once(r, "course.delete", courseID, func() (interface{}, error) {
		return nil, h.services.Editor.DeleteCourse(r.Context(), currentSession(r), courseID)
	})
	if err != nil {
		h.handleActionError(w, r, err, manageURL(courseID))
		return
	}
	h.flash(r, workspace.FlashSuccess, "Course deleted.")
	redirect(w, r, "/manage-courses")
}

// contentAction - общий путь для мутаций дерева модулей: разбор формы, guard, сообщение, redirect.
func (h *Handler) contentAction(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	target int64,
	success string,
	fn func(courseID int64) error,
) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	back := manageURL(courseID)

	_, err := h.once(r, action, target, func() (interface{}, error) {
		return nil, fn(courseID)
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}
	h.flash(r, workspace.FlashSuccess, success)
	redirect(w, r, back)
}

func routeID(r *http.Request, key string) int64 {
	id, _ := urlID(r, key)
	return id
}

func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	h.contentAction(w, r, "module.create", routeID(r, "courseID"), "Module created.", func(courseID int64) error {
		in := models.ModuleInput{
			Title:       r.PostFormValue("title"),
			Description: r.PostFormValue("description"),
			Order:       formInt(r, "order", 0),
		}
		if release := strings.TrimSpace(r.PostFormValue("release_date")); release != "" {
			in.ReleaseDate = &release
		}
		_, err := h.services.Editor.CreateModule(r.Context(), currentSession(r), courseID, in)
		return err
	})
}

func (h *Handler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	moduleID := routeID(r, "moduleID")
	h.contentAction(w, r, "module.delete", moduleID, "Module deleted.", func(courseID int64) error {
		_, err := h.services.Editor.DeleteModule(r.Context(), currentSession(r), courseID, moduleID)
		return err
	})
}

func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	moduleID := routeID(r, "moduleID")
	h.contentAction(w, r, "lesson.create", moduleID, "Lesson created.", func(courseID int64) error {
		in := models.LessonInput{
			Module:          moduleID,
			Title:           r.PostFormValue("title"),
			Overview:        r.PostFormValue("overview"),
			Content:         r.PostFormValue("content"),
			VideoURL:        strings.TrimSpace(r.PostFormValue("video_url")),
			ResourceLink:    strings.TrimSpace(r.PostFormValue("resource_link")),
			Order:           formInt(r, "order", 0),
			DurationMinutes: formInt(r, "duration_minutes", 0),
			IsPublished:     formBool(r, "is_published"),
		}
		_, err := h.services.Editor.CreateLesson(r.Context(), currentSession(r), courseID, in)
		return err
	})
}

func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := routeID(r, "lessonID")
	h.contentAction(w, r, "lesson.delete", lessonID, "Lesson deleted.", func(courseID int64) error {
		_, err := h.services.Editor.DeleteLesson(r.Context(), currentSession(r), courseID, lessonID)
		return err
	})
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	moduleID := routeID(r, "moduleID")
	h.contentAction(w, r, "assignment.create", moduleID, "Assignment created.", func(courseID int64) error {
		due, err := formTime(r, "due_date")
		if err != nil {
			return models.NewValidationError("", models.FieldError{Field: "due_date", Message: "Enter a valid due date."})
		}
		attachment, closeFile, err := formFile(r, "attachment")
		if err != nil {
			return models.NewValidationError("", models.FieldError{Field: "attachment", Message: "The attachment could not be read."})
		}
		defer closeFile()

		in := models.AssignmentInput{
			Module:            moduleID,
			Title:             r.PostFormValue("title"),
			Instructions:      r.PostFormValue("instructions"),
			DueDate:           due,
			MaxPoints:         formInt(r, "max_points", 0),
			AllowResubmission: formBool(r, "allow_resubmission"),
			Attachment:        attachment,
		}
		_, err = h.services.Editor.CreateAssignment(r.Context(), currentSession(r), courseID, in)
		return err
	})
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := routeID(r, "assignmentID")
	h.contentAction(w, r, "assignment.delete", assignmentID, "Assignment deleted.", func(courseID int64) error {
		_, err := h.services.Editor.DeleteAssignment(r.Context(), currentSession(r), courseID, assignmentID)
		return err
	})
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := routeID(r, "quizID")
	h.contentAction(w, r, "quiz.delete", quizID, "Quiz deleted.", func(courseID int64) error {
		_, err := h.services.Editor.DeleteQuiz(r.Context(), currentSession(r), courseID, quizID)
		return err
	})
}

func (h *Handler) DeleteBankQuestion(w http.ResponseWriter, r *http.Request) {
	entryID := routeID(r, "entryID")
	h.contentAction(w, r, "bank.delete", entryID, "Question removed from the bank.", func(int64) error {
		return h.services.Editor.DeleteBankQuestion(r.Context(), currentSession(r), entryID)
	})
}

// CreateQuiz сохраняет поля формы в черновик и отправляет его одним запросом.
func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	moduleID := routeID(r, "moduleID")
	h.contentAction(w, r, "quiz.create", moduleID, "Quiz created.", func(courseID int64) error {
		sess := currentSession(r)
		if _, err := h.services.Editor.EditQuizDraft(sess, moduleID, func(d *editor.QuizDraft) error {
			return applyDraftForm(r, d)
		}); err != nil {
			return err
		}
		_, err := h.services.Editor.CreateQuiz(r.Context(), sess, courseID, moduleID)
		return err
	})
}

// EditQuizDraft применяет форму конструктора, затем операцию из кнопки op.
// Значение op: "update", "add_question:<type>", "move_up:<i>", "move_down:<i>", "duplicate:<i>",
// "remove:<i>", "add_choice:<i>", "remove_choice:<i>:<j>", "save_to_bank:<i>", "insert_bank:<id>", "discard".
func (h *Handler) EditQuizDraft(w http.ResponseWriter, r *http.Request) {
	courseID, ok1 := urlID(r, "courseID")
	moduleID, ok2 := urlID(r, "moduleID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("%s#module-%d", manageURL(courseID), moduleID)
	sess := currentSession(r)

	op, args := parseOp(r.PostFormValue("op"))
	if op == "discard" {
		h.services.Editor.DiscardQuizDraft(sess, moduleID)
		h.flash(r, workspace.FlashInfo, "Quiz draft discarded.")
		redirect(w, r, back)
		return
	}

	_, err := h.services.Editor.EditQuizDraft(sess, moduleID, func(d *editor.QuizDraft) error {
		if err := applyDraftForm(r, d); err != nil {
			return err
		}
		return applyDraftOp(d, op, args)
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	switch op {
	case "save_to_bank":
		_, err = h.once(r, "bank.save", moduleID, func() (interface{}, error) {
			return h.services.Editor.SaveQuestionToBank(r.Context(), sess, courseID, moduleID, argAt(args, 0))
		})
		if err == nil {
			h.flash(r, workspace.FlashSuccess, "Question saved to the bank.")
		}
	case "insert_bank":
		entryID := int64(argAt(args, 0))
		if entryID <= 0 {
			entryID = formInt64(r, "bank_entry")
		}
		_, err = h.services.Editor.InsertBankQuestion(r.Context(), sess, courseID, moduleID, entryID)
		if err == nil {
			h.flash(r, workspace.FlashSuccess, "Question added from the bank.")
		}
	}
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	redirect(w, r, back)
}

func parseOp(raw string) (string, []string) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if parts[0] == "" {
		return "update", nil
	}
	return parts[0], parts[1:]
}

// argAt - числовой аргумент операции; -1, если его нет.
func argAt(args []string, i int) int {
	if i >= len(args) {
		return -1
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return -1
	}
	return n
}

func applyDraftOp(d *editor.QuizDraft, op string, args []string) error {
	switch op {
	case "update", "save_to_bank", "insert_bank":
		return nil
	case "add_question":
		t := models.QuestionMultipleChoice
		if len(args) > 0 {
			t = models.QuestionType(args[0])
		}
		d.AddQuestion(t)
	case "move_up":
		d.MoveQuestion(argAt(args, 0), -1)
	case "move_down":
		d.MoveQuestion(argAt(args, 0), 1)
	case "duplicate":
		return d.DuplicateQuestion(argAt(args, 0))
	case "remove":
		return d.RemoveQuestion(argAt(args, 0))
	case "add_choice":
		return d.AddChoice(argAt(args, 0))
	case "remove_choice":
		return d.RemoveChoice(argAt(args, 0), argAt(args, 1))
	default:
		return models.NewValidationError("Unknown quiz builder action.")
	}
	return nil
}

// applyDraftForm переносит поля формы конструктора в черновик.
// Варианты старого типа не применяются, если тип вопроса поменяли.
func applyDraftForm(r *http.Request, d *editor.QuizDraft) error {
	if _, ok := r.PostForm["title"]; !ok {
		return nil
	}

	d.Title = r.PostFormValue("title")
	d.Description = r.PostFormValue("description")
	d.AttemptsAllowed = formInt(r, "attempts_allowed", d.AttemptsAllowed)
	d.PassingScore = formInt(r, "passing_score", d.PassingScore)
	d.TimeLimitMinutes = nil
	if limit := formInt(r, "time_limit_minutes", 0); limit != 0 {
		d.TimeLimitMinutes = &limit
	}

	for i := range d.Questions {
		prefix := fmt.Sprintf("q%d_", i)
		if _, ok := r.PostForm[prefix+"prompt"]; !ok {
			continue
		}
		current := d.Questions[i]

		q := current
		q.Prompt = r.PostFormValue(prefix + "prompt")
		q.Points = formInt(r, prefix+"points", current.Points)
		if t, err := models.ParseQuestionType(r.PostFormValue(prefix + "type")); err == nil {
			q.Type = t
		}
		if err := d.UpdateQuestion(i, q); err != nil {
			return err
		}
		if q.Type != current.Type || !q.Type.HasChoices() {
			continue
		}

		for j := range current.Choices {
			key := fmt.Sprintf("%sc%d_text", prefix, j)
			if _, ok := r.PostForm[key]; !ok {
				continue
			}
			if err := d.SetChoiceText(i, j, r.PostFormValue(key)); err != nil {
				return err
			}
		}
		if correct := formInt(r, prefix+"correct", -1); correct >= 0 && correct < len(current.Choices) {
			if err := d.MarkCorrect(i, correct); err != nil {
				return err
			}
		}
	}
	return nil
}
