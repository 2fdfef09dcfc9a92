package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/editor"
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditorFixture() (EditorService, *fakeCourses, *fakeContent) {
	bob := &models.User{ID: 2, Role: models.RoleInstructor}
	other := &models.User{ID: 3, Role: models.RoleInstructor}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	courses := &fakeCourses{courses: []models.Course{
		{ID: 1, Title: "Rust", Category: "Systems", Instructor: bob, CreatedAt: day},
		{ID: 2, Title: "Go", Description: "Concurrency in practice", Category: "Backend", Instructor: bob, CreatedAt: day.Add(24 * time.Hour)},
		{ID: 3, Title: "Design", Category: "Art", Instructor: other, CreatedAt: day.Add(48 * time.Hour)},
	}}
	content := &fakeContent{modules: []models.CourseModule{{ID: 50, Course: 2, Title: "Basics"}}}
	workspaces := workspace.NewStore(time.Hour, zerolog.Nop())

	return NewEditorService(courses, content, workspaces, zerolog.Nop()), courses, content
}

func titles(courses []models.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Title)
	}
	return out
}

func TestEditorService_MyCourses(t *testing.T) {
	svc, _, _ := newEditorFixture()
	sess := instructorSession()

	tests := []struct {
		name string
		opts CourseListOptions
		want []string
	}{
		{"newest first by default", CourseListOptions{}, []string{"Go", "Rust"}},
		{"oldest", CourseListOptions{Sort: SortOldest}, []string{"Rust", "Go"}},
		{"by title", CourseListOptions{Sort: SortTitle}, []string{"Go", "Rust"}},
		{"search matches description", CourseListOptions{Search: "CONCURRENCY"}, []string{"Go"}},
		{"search matches category", CourseListOptions{Search: "systems"}, []string{"Rust"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.MyCourses(context.Background(), sess, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestEditorService_CourseOwnership(t *testing.T) {
	svc, _, _ := newEditorFixture()

	_, err := svc.Course(context.Background(), instructorSession(), 3)
	assert.ErrorIs(t, err, ErrForbidden)

	course, err := svc.Course(context.Background(), instructorSession(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Go", course.Title)
}

func TestEditorService_WorkspaceToleratesBankFailure(t *testing.T) {
	svc, _, content := newEditorFixture()
	content.bankErr = errors.New("bank down")

	ws, err := svc.Workspace(context.Background(), instructorSession(), 2)
	require.NoError(t, err)
	assert.Len(t, ws.Modules, 1)
	assert.Empty(t, ws.Bank)
}

func TestEditorService_CreateLessonRefetchesTree(t *testing.T) {
	svc, _, content := newEditorFixture()

	modules, err := svc.CreateLesson(context.Background(), instructorSession(), 2, models.LessonInput{
		Module: 50,
		Title:  "  Channels ",
	})
	require.NoError(t, err)

	require.Len(t, content.createdLessons, 1)
	assert.Equal(t, "Channels", content.createdLessons[0].Title)
	assert.Equal(t, 1, content.createdLessons[0].Order)
	// дерево читается дважды: проверка модуля и перечитывание после создания
	assert.Equal(t, 2, content.moduleCalls)
	require.Len(t, modules, 1)
	require.Len(t, modules[0].Lessons, 1)
	assert.Equal(t, "Channels", modules[0].Lessons[0].Title)
}

func TestEditorService_CreateLessonValidation(t *testing.T) {
	svc, _, content := newEditorFixture()

	_, err := svc.CreateLesson(context.Background(), instructorSession(), 2, models.LessonInput{DurationMinutes: -5})

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := verr.FieldMap()
	assert.Contains(t, fields, "module")
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "duration_minutes")
	assert.Empty(t, content.createdLessons)
	assert.Zero(t, content.moduleCalls)
}

func TestEditorService_EditQuizDraftKeepsDraftOnError(t *testing.T) {
	svc, _, _ := newEditorFixture()
	sess := instructorSession()

	_, err := svc.EditQuizDraft(sess, 50, func(d *editor.QuizDraft) error {
		d.Title = "Channels quiz"
		d.AddQuestion(models.QuestionTrueFalse)
		return nil
	})
	require.NoError(t, err)

	_, err = svc.EditQuizDraft(sess, 50, func(d *editor.QuizDraft) error {
		d.Title = "changed"
		return d.RemoveQuestion(7)
	})
	assert.ErrorIs(t, err, editor.ErrQuestionIndex)

	draft := svc.QuizDraft(sess, 50)
	assert.Equal(t, "Channels quiz", draft.Title)
	assert.Len(t, draft.Questions, 1)

	svc.DiscardQuizDraft(sess, 50)
	assert.Empty(t, svc.QuizDraft(sess, 50).Questions)
}

func TestEditorService_CreateQuizValidatesDraft(t *testing.T) {
	svc, _, content := newEditorFixture()

	_, err := svc.CreateQuiz(context.Background(), instructorSession(), 2, 50)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldMap(), "title")
	assert.Zero(t, content.moduleCalls)
}

func TestValidateCourse(t *testing.T) {
	in := models.CourseInput{Title: "Go", Description: "d", Category: "Backend"}
	require.NoError(t, validateCourse(&in))
	assert.Equal(t, "0", in.Price)
	assert.Equal(t, models.CourseDraft, in.Status)

	bad := models.CourseInput{Title: "Go", Description: "d", Category: "Backend", Price: "-3"}
	var verr *models.ValidationError
	require.ErrorAs(t, validateCourse(&bad), &verr)
	assert.Contains(t, verr.FieldMap(), "price")
}

func TestEditorService_MutationsCheckOwnership(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(svc EditorService) error
		want   error
	}{
		{
			name: "status of foreign course",
			mutate: func(svc EditorService) error {
				_, err := svc.SetCourseStatus(context.Background(), instructorSession(), 3, "published")
				return err
			},
			want: ErrForbidden,
		},
		{
			name: "module in foreign course",
			mutate: func(svc EditorService) error {
				_, err := svc.CreateModule(context.Background(), instructorSession(), 3, models.ModuleInput{Title: "Week 1"})
				return err
			},
			want: ErrForbidden,
		},
		{
			name: "lesson in foreign course",
			mutate: func(svc EditorService) error {
				_, err := svc.CreateLesson(context.Background(), instructorSession(), 3, models.LessonInput{Module: 50, Title: "Channels"})
				return err
			},
			want: ErrForbidden,
		},
		{
			name: "lesson in module of another course",
			mutate: func(svc EditorService) error {
				_, err := svc.CreateLesson(context.Background(), instructorSession(), 2, models.LessonInput{Module: 77, Title: "Channels"})
				return err
			},
			want: ErrNotFound,
		},
		{
			name: "assignment in module of another course",
			mutate: func(svc EditorService) error {
				_, err := svc.CreateAssignment(context.Background(), instructorSession(), 2, models.AssignmentInput{Module: 77, Title: "Essay"})
				return err
			},
			want: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, courses, content := newEditorFixture()

			err := tt.mutate(svc)

			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, content.createdLessons)
			assert.Empty(t, content.createdModules)
			assert.Empty(t, content.createdAssignments)
			assert.Empty(t, courses.statusChanges)
		})
	}
}

func TestEditorService_SetCourseStatusOwnCourse(t *testing.T) {
	svc, courses, _ := newEditorFixture()

	course, err := svc.SetCourseStatus(context.Background(), instructorSession(), 2, "published")
	require.NoError(t, err)

	assert.Equal(t, models.CoursePublished, course.Status)
	assert.Equal(t, []models.CourseStatus{models.CoursePublished}, courses.statusChanges)
}
