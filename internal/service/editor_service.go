package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/editor"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

type CourseSort string

const (
	SortNewest CourseSort = "newest"
	SortOldest CourseSort = "oldest"
	SortTitle  CourseSort = "title"
)

type CourseListOptions struct {
	Search string
	Sort   CourseSort
}

// EditorWorkspace - все, что нужно странице управления курсом.
type EditorWorkspace struct {
	Course  *models.Course
	Modules []models.CourseModule
	Bank    []models.QuestionBankEntry
}

type EditorService interface {
	MyCourses(ctx context.Context, sess *session.Session, opts CourseListOptions) ([]models.Course, error)
	Course(ctx context.Context, sess *session.Session, courseID int64) (*models.Course, error)
	Workspace(ctx context.Context, sess *session.Session, courseID int64) (*EditorWorkspace, error)

	CreateCourse(ctx context.Context, sess *session.Session, in models.CourseInput) (*models.Course, error)
	UpdateCourse(ctx context.Context, sess *session.Session, courseID int64, in models.CourseInput) (*models.Course, error)
	DeleteCourse(ctx context.Context, sess *session.Session, courseID int64) error
	SetCourseStatus(ctx context.Context, sess *session.Session, courseID int64, status string) (*models.Course, error)

	CreateModule(ctx context.Context, sess *session.Session, courseID int64, in models.ModuleInput) ([]models.CourseModule, error)
	DeleteModule(ctx context.Context, sess *session.Session, courseID, moduleID int64) ([]models.CourseModule, error)
	CreateLesson(ctx context.Context, sess *session.Session, courseID int64, in models.LessonInput) ([]models.CourseModule, error)
	DeleteLesson(ctx context.Context, sess *session.Session, courseID, lessonID int64) ([]models.CourseModule, error)
	CreateAssignment(ctx context.Context, sess *session.Session, courseID int64, in models.AssignmentInput) ([]models.CourseModule, error)
	DeleteAssignment(ctx context.Context, sess *session.Session, courseID, assignmentID int64) ([]models.CourseModule, error)

	QuizDraft(sess *session.Session, moduleID int64) *editor.QuizDraft
	EditQuizDraft(sess *session.Session, moduleID int64, edit func(*editor.QuizDraft) error) (*editor.QuizDraft, error)
	DiscardQuizDraft(sess *session.Session, moduleID int64)
	CreateQuiz(ctx context.Context, sess *session.Session, courseID, moduleID int64) ([]models.CourseModule, error)
	DeleteQuiz(ctx context.Context, sess *session.Session, courseID, quizID int64) ([]models.CourseModule, error)

	ListQuestionBank(ctx context.Context, sess *session.Session, courseID int64, search string) ([]models.QuestionBankEntry, error)
	SaveQuestionToBank(ctx context.Context, sess *session.Session, courseID, moduleID int64, index int) (*models.QuestionBankEntry, error)
	InsertBankQuestion(ctx context.Context, sess *session.Session, courseID, moduleID, entryID int64) (*editor.QuizDraft, error)
	DeleteBankQuestion(ctx context.Context, sess *session.Session, entryID int64) error
}

type editorService struct {
	courses    integration.CourseClient
	content    integration.ContentClient
	workspaces *workspace.Store
	logger     zerolog.Logger
}

func NewEditorService(
	courses integration.CourseClient,
	content integration.ContentClient,
	workspaces *workspace.Store,
	logger zerolog.Logger,
) EditorService {
	return &editorService{
		courses:    courses,
		content:    content,
		workspaces: workspaces,
		logger:     logger,
	}
}

func (s *editorService) MyCourses(ctx context.Context, sess *session.Session, opts CourseListOptions) ([]models.Course, error) {
	all, err := s.courses.List(ctx, sess, models.CourseFilter{})
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]models.Course, 0, len(all))
	for _, c := range all {
		if !c.OwnedBy(sess.User) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) &&
			!strings.Contains(strings.ToLower(c.Category), search) {
			continue
		}
		out = append(out, c)
	}

	sortCourses(out, opts.Sort)
	return out, nil
}

func sortCourses(courses []models.Course, order CourseSort) {
	switch order {
	case SortOldest:
		sort.SliceStable(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	case SortTitle:
		sort.SliceStable(courses, func(i, j int) bool {
			return strings.ToLower(courses[i].Title) < strings.ToLower(courses[j].Title)
		})
	default:
		sort.SliceStable(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	}
}

// Course возвращает курс, только если пользователь может его редактировать.
func (s *editorService) Course(ctx context.Context, sess *session.Session, courseID int64) (*models.Course, error) {
	course, err := s.courses.Get(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}
	if !course.OwnedBy(sess.User) {
		return nil, ErrForbidden
	}
	return course, nil
}

func (s *editorService) Workspace(ctx context.Context, sess *session.Session, courseID int64) (*EditorWorkspace, error) {
	course, err := s.Course(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}

	modules, err := s.content.Modules(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}

	// банк вопросов вспомогательный: без него страница все равно работает
	bank, err := s.content.QuestionBank(ctx, sess, courseID, "")
	if err != nil {
		if isSessionExpired(err) {
			return nil, err
		}
		s.logger.Warn().Err(err).Int64("course_id", courseID).Msg("Failed to load question bank")
		bank = []models.QuestionBankEntry{}
	}

	return &EditorWorkspace{Course: course, Modules: modules, Bank: bank}, nil
}

func validateCourse(in *models.CourseInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Price = strings.TrimSpace(in.Price)
	in.EstimatedHours = strings.TrimSpace(in.EstimatedHours)

	if in.Price == "" {
		in.Price = "0"
	}
	if in.Status == "" {
		in.Status = models.CourseDraft
	}
	return models.Validate(in)
}

func (s *editorService) CreateCourse(ctx context.Context, sess *session.Session, in models.CourseInput) (*models.Course, error) {
	if err := validateCourse(&in); err != nil {
		return nil, err
	}

	course, err := s.courses.Create(ctx, sess, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("course_id", course.ID).Str("title", course.Title).Msg("Course created")
	return course, nil
}

func (s *editorService) UpdateCourse(ctx context.Context, sess *session.Session, courseID int64, in models.CourseInput) (*models.Course, error) {
	if err := validateCourse(&in); err != nil {
		return nil, err
	}
	if _, err := s.Course(ctx, sess, courseID); err != nil {
		return nil, err
	}
	return s.courses.Update(ctx, sess, courseID, in)
}

func (s *editorService) DeleteCourse(ctx context.Context, sess *session.Session, courseID int64) error {
	if _, err := s.Course(ctx, sess, courseID); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, sess, courseID); err != nil {
		return err
	}

	s.logger.Info().Int64("course_id", courseID).Msg("Course deleted")
	return nil
}

func (s *editorService) SetCourseStatus(ctx context.Context, sess *session.Session, courseID int64, status string) (*models.Course, error) {
	parsed, err := models.ParseCourseStatus(status)
	if err != nil {
		return nil, models.NewValidationError("", models.FieldError{Field: "status", Message: "Unknown course status."})
	}
	if _, err := s.Course(ctx, sess, courseID); err != nil {
		return nil, err
	}

	course, err := s.courses.SetStatus(ctx, sess, courseID, parsed)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("course_id", courseID).Str("status", string(parsed)).Msg("Course status changed")
	return course, nil
}

// ownedTree проверяет права на курс и отдает его текущее дерево модулей.
func (s *editorService) ownedTree(ctx context.Context, sess *session.Session, courseID int64) ([]models.CourseModule, error) {
	if _, err := s.Course(ctx, sess, courseID); err != nil {
		return nil, err
	}
	return s.content.Modules(ctx, sess, courseID)
}

// inTree: элемент принадлежит курсу, если match сработал хотя бы на одном его модуле.
func inTree(modules []models.CourseModule, match func(m models.CourseModule) bool) bool {
	for _, m := range modules {
		if match(m) {
			return true
		}
	}
	return false
}

func hasModule(id int64) func(models.CourseModule) bool {
	return func(m models.CourseModule) bool { return m.ID == id }
}

func hasLesson(id int64) func(models.CourseModule) bool {
	return func(m models.CourseModule) bool {
		for _, l := range m.Lessons {
			if l.ID == id {
				return true
			}
		}
		return false
	}
}

func hasAssignment(id int64) func(models.CourseModule) bool {
	return func(m models.CourseModule) bool {
		for _, a := range m.Assignments {
			if a.ID == id {
				return true
			}
		}
		return false
	}
}

func hasQuiz(id int64) func(models.CourseModule) bool {
	return func(m models.CourseModule) bool {
		for _, q := range m.Quizzes {
			if q.ID == id {
				return true
			}
		}
		return false
	}
}

// checkItem проверяет, что элемент лежит в дереве курса, который пользователь может менять.
func (s *editorService) checkItem(ctx context.Context, sess *session.Session, courseID int64, match func(models.CourseModule) bool) error {
	modules, err := s.ownedTree(ctx, sess, courseID)
	if err != nil {
		return err
	}
	if !inTree(modules, match) {
		return ErrNotFound
	}
	return nil
}

// refetch перечитывает дерево модулей целиком после каждой мутации.
func (s *editorService) refetch(ctx context.Context, sess *session.Session, courseID int64) ([]models.CourseModule, error) {
	modules, err := s.content.Modules(ctx, sess, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload modules: %w", err)
	}
	return modules, nil
}

func (s *editorService) CreateModule(ctx context.Context, sess *session.Session, courseID int64, in models.ModuleInput) ([]models.CourseModule, error) {
	in.Course = courseID
	in.Title = strings.TrimSpace(in.Title)
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if in.ReleaseDate != nil && strings.TrimSpace(*in.ReleaseDate) == "" {
		in.ReleaseDate = nil
	}
	if in.Order <= 0 {
		in.Order = 1
	}

	if _, err := s.Course(ctx, sess, courseID); err != nil {
		return nil, err
	}
	if _, err := s.content.CreateModule(ctx, sess, in); err != nil {
		return nil, err
	}
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) DeleteModule(ctx context.Context, sess *session.Session, courseID, moduleID int64) ([]models.CourseModule, error) {
	if err := s.checkItem(ctx, sess, courseID, hasModule(moduleID)); err != nil {
		return nil, err
	}
	if err := s.content.DeleteModule(ctx, sess, moduleID); err != nil {
		return nil, err
	}
	s.workspaces.Get(sess.ID).ClearQuizDraft(moduleID)
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) CreateLesson(ctx context.Context, sess *session.Session, courseID int64, in models.LessonInput) ([]models.CourseModule, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if in.Order <= 0 {
		in.Order = 1
	}

	if err := s.checkItem(ctx, sess, courseID, hasModule(in.Module)); err != nil {
		return nil, err
	}
	if _, err := s.content.CreateLesson(ctx, sess, in); err != nil {
		return nil, err
	}
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) DeleteLesson(ctx context.Context, sess *session.Session, courseID, lessonID int64) ([]models.CourseModule, error) {
	if err := s.checkItem(ctx, sess, courseID, hasLesson(lessonID)); err != nil {
		return nil, err
	}
	if err := s.content.DeleteLesson(ctx, sess, lessonID); err != nil {
		return nil, err
	}
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) CreateAssignment(ctx context.Context, sess *session.Session, courseID int64, in models.AssignmentInput) ([]models.CourseModule, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if in.MaxPoints == 0 {
		in.MaxPoints = 100
	}

	if err := s.checkItem(ctx, sess, courseID, hasModule(in.Module)); err != nil {
		return nil, err
	}
	if _, err := s.content.CreateAssignment(ctx, sess, in); err != nil {
		return nil, err
	}
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) DeleteAssignment(ctx context.Context, sess *session.Session, courseID, assignmentID int64) ([]models.CourseModule, error) {
	if err := s.checkItem(ctx, sess, courseID, hasAssignment(assignmentID)); err != nil {
		return nil, err
	}
	if err := s.content.DeleteAssignment(ctx, sess, assignmentID); err != nil {
		return nil, err
	}
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) QuizDraft(sess *session.Session, moduleID int64) *editor.QuizDraft {
	return s.workspaces.Get(sess.ID).QuizDraft(moduleID)
}

// EditQuizDraft применяет правку к копии черновика и сохраняет ее только без ошибки.
func (s *editorService) EditQuizDraft(sess *session.Session, moduleID int64, edit func(*editor.QuizDraft) error) (*editor.QuizDraft, error) {
	ws := s.workspaces.Get(sess.ID)
	draft := ws.QuizDraft(moduleID)
	if err := edit(draft); err != nil {
		return nil, err
	}
	ws.SetQuizDraft(moduleID, draft)
	return draft, nil
}

func (s *editorService) DiscardQuizDraft(sess *session.Session, moduleID int64) {
	s.workspaces.Get(sess.ID).ClearQuizDraft(moduleID)
}

func (s *editorService) CreateQuiz(ctx context.Context, sess *session.Session, courseID, moduleID int64) ([]models.CourseModule, error) {
	ws := s.workspaces.Get(sess.ID)
	draft := ws.QuizDraft(moduleID)
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkItem(ctx, sess, courseID, hasModule(moduleID)); err != nil {
		return nil, err
	}

	quiz, err := s.content.CreateQuiz(ctx, sess, draft.Input(moduleID))
	if err != nil {
		return nil, err
	}
	ws.ClearQuizDraft(moduleID)

	s.logger.Info().
		Int64("quiz_id", quiz.ID).
		Int64("module_id", moduleID).
		Int("questions", len(draft.Questions)).
		Msg("Quiz created")
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) DeleteQuiz(ctx context.Context, sess *session.Session, courseID, quizID int64) ([]models.CourseModule, error) {
	if err := s.checkItem(ctx, sess, courseID, hasQuiz(quizID)); err != nil {
		return nil, err
	}
	if err := s.content.DeleteQuiz(ctx, sess, quizID); err != nil {
		return nil, err
	}
	return s.refetch(ctx, sess, courseID)
}

func (s *editorService) ListQuestionBank(ctx context.Context, sess *session.Session, courseID int64, search string) ([]models.QuestionBankEntry, error) {
	return s.content.QuestionBank(ctx, sess, courseID, strings.TrimSpace(search))
}

func (s *editorService) SaveQuestionToBank(ctx context.Context, sess *session.Session, courseID, moduleID int64, index int) (*models.QuestionBankEntry, error) {
	draft := s.workspaces.Get(sess.ID).QuizDraft(moduleID)
	if index < 0 || index >= len(draft.Questions) {
		return nil, ErrNotFound
	}

	q := draft.Questions[index]
	if strings.TrimSpace(q.Prompt) == "" {
		return nil, models.NewValidationError("", models.FieldError{
			Field:   fmt.Sprintf("questions.%d.prompt", index+1),
			Message: "Write the prompt before saving the question.",
		})
	}

	return s.content.SaveToBank(ctx, sess, editor.BankInputFromQuestion(courseID, q))
}

func (s *editorService) InsertBankQuestion(ctx context.Context, sess *session.Session, courseID, moduleID, entryID int64) (*editor.QuizDraft, error) {
	bank, err := s.content.QuestionBank(ctx, sess, courseID, "")
	if err != nil {
		return nil, err
	}

	for _, entry := range bank {
		if entry.ID == entryID {
			return s.EditQuizDraft(sess, moduleID, func(d *editor.QuizDraft) error {
				d.InsertFromBank(entry)
				return nil
			})
		}
	}
	return nil, ErrNotFound
}

func (s *editorService) DeleteBankQuestion(ctx context.Context, sess *session.Session, entryID int64) error {
	return s.content.DeleteFromBank(ctx, sess, entryID)
}
