package service

import (
	"context"
	"sync"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/worker"
)

// Фейки встраивают интерфейс клиента: незамокированный метод паникует, а не молча проходит.

type fakeAuth struct {
	integration.AuthClient
	loginResp *models.AuthResponse
	loginErr  error
}

func (f *fakeAuth) Login(_ context.Context, _ models.LoginRequest) (*models.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

type fakeCourses struct {
	integration.CourseClient

	mu          sync.Mutex
	courses     []models.Course
	enrollments []models.Enrollment
	wishlist    []models.WishlistItem

	completion    *models.LessonCompletion
	completeErr   error
	completeCalls int
	enrollCalls   int
	statusChanges []models.CourseStatus
}

func (f *fakeCourses) List(_ context.Context, _ *session.Session, _ models.CourseFilter) ([]models.Course, error) {
	return f.courses, nil
}

func (f *fakeCourses) Get(_ context.Context, _ *session.Session, id int64) (*models.Course, error) {
	for i := range f.courses {
		if f.courses[i].ID == id {
			c := f.courses[i]
			return &c, nil
		}
	}
	return nil, &integration.APIError{StatusCode: 404, Detail: "Not found."}
}

func (f *fakeCourses) SetStatus(_ context.Context, _ *session.Session, id int64, status models.CourseStatus) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanges = append(f.statusChanges, status)
	return &models.Course{ID: id, Status: status}, nil
}

func (f *fakeCourses) Enrollments(_ context.Context, _ *session.Session) ([]models.Enrollment, error) {
	return f.enrollments, nil
}

func (f *fakeCourses) Wishlist(_ context.Context, _ *session.Session) ([]models.WishlistItem, error) {
	return f.wishlist, nil
}

func (f *fakeCourses) Enroll(_ context.Context, _ *session.Session, id int64) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollCalls++
	return &models.Enrollment{ID: 900, Course: &models.Course{ID: id}}, nil
}

func (f *fakeCourses) CompleteLesson(_ context.Context, _ *session.Session, _ int64) (*models.LessonCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.completion, nil
}

type fakeContent struct {
	integration.ContentClient

	modules            []models.CourseModule
	assignment         *models.Assignment
	bankErr            error
	moduleCalls        int
	createdLessons     []models.LessonInput
	createdModules     []models.ModuleInput
	createdAssignments []models.AssignmentInput
}

func (f *fakeContent) Modules(_ context.Context, _ *session.Session, _ int64) ([]models.CourseModule, error) {
	f.moduleCalls++
	return f.modules, nil
}

func (f *fakeContent) CreateLesson(_ context.Context, _ *session.Session, in models.LessonInput) (*models.Lesson, error) {
	f.createdLessons = append(f.createdLessons, in)
	lesson := models.Lesson{ID: 99, Module: in.Module, Title: in.Title}
	for i := range f.modules {
		if f.modules[i].ID == in.Module {
			f.modules[i].Lessons = append(f.modules[i].Lessons, lesson)
		}
	}
	return &lesson, nil
}

func (f *fakeContent) CreateModule(_ context.Context, _ *session.Session, in models.ModuleInput) (*models.CourseModule, error) {
	f.createdModules = append(f.createdModules, in)
	return &models.CourseModule{ID: 51, Course: in.Course, Title: in.Title}, nil
}

func (f *fakeContent) CreateAssignment(_ context.Context, _ *session.Session, in models.AssignmentInput) (*models.Assignment, error) {
	f.createdAssignments = append(f.createdAssignments, in)
	return &models.Assignment{ID: 31, Title: in.Title}, nil
}

func (f *fakeContent) GetAssignment(_ context.Context, _ *session.Session, _ int64) (*models.Assignment, error) {
	return f.assignment, nil
}

func (f *fakeContent) QuestionBank(_ context.Context, _ *session.Session, _ int64, _ string) ([]models.QuestionBankEntry, error) {
	return nil, f.bankErr
}

type fakeSubmissions struct {
	integration.SubmissionClient

	mu          sync.Mutex
	quizSubs    map[int64][]models.QuizSubmission
	submitted   []models.QuizSubmissionRequest
	submitErr   error
	gradeCalls  int
	gradedInput models.GradeInput
}

func (f *fakeSubmissions) QuizSubmissions(_ context.Context, _ *session.Session, quizID int64) ([]models.QuizSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quizSubs[quizID], nil
}

func (f *fakeSubmissions) AssignmentSubmissions(_ context.Context, _ *session.Session, _ int64) ([]models.AssignmentSubmission, error) {
	return nil, nil
}

func (f *fakeSubmissions) SubmitQuiz(_ context.Context, _ *session.Session, req models.QuizSubmissionRequest) (*models.QuizSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.QuizSubmission{ID: 501, AttemptNumber: len(f.submitted), Score: 100, Passed: true}, nil
}

func (f *fakeSubmissions) Grade(_ context.Context, _ *session.Session, submissionID int64, in models.GradeInput) (*models.AssignmentSubmission, error) {
	f.gradeCalls++
	f.gradedInput = in
	grade := models.Decimal(*in.Grade)
	return &models.AssignmentSubmission{ID: submissionID, Grade: &grade, Status: in.Status}, nil
}

type fakeMessaging struct {
	integration.MessagingClient

	mu        sync.Mutex
	messages  []models.Message
	markedIDs []int64
	sent      []models.MessageInput
	created   []models.ConversationInput
}

func (f *fakeMessaging) Messages(_ context.Context, _ *session.Session, _ int64) ([]models.Message, error) {
	return f.messages, nil
}

func (f *fakeMessaging) MarkRead(_ context.Context, _ *session.Session, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedIDs = append(f.markedIDs, id)
	if id%2 == 0 {
		return &integration.APIError{StatusCode: 500}
	}
	return nil
}

func (f *fakeMessaging) SendMessage(_ context.Context, _ *session.Session, in models.MessageInput) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, in)
	return &models.Message{ID: int64(len(f.sent)), Conversation: in.Conversation, Body: in.Body}, nil
}

func (f *fakeMessaging) CreateConversation(_ context.Context, _ *session.Session, in models.ConversationInput) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return &models.Conversation{ID: 70, Title: in.Title}, nil
}

type fakeAnalytics struct {
	integration.AnalyticsClient
	adminCalls int
}

func (f *fakeAnalytics) Admin(_ context.Context, _ *session.Session) (*models.AdminAnalytics, error) {
	f.adminCalls++
	return &models.AdminAnalytics{}, nil
}

// countingStore считает записи поверх in-memory хранилища.
type countingStore struct {
	session.Store
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Store.Save(ctx, sess)
}

// inlineRunner выполняет задачу сразу, чтобы тесты не ждали пул.
type inlineRunner struct{}

func (inlineRunner) Submit(task worker.Task) error {
	task()
	return nil
}

type recordedActivity struct {
	Type     models.ActivityType
	CourseID int64
	ObjectID int64
}

type activityLog struct {
	mu     sync.Mutex
	events []recordedActivity
}

func (a *activityLog) Record(t models.ActivityType, _ int64, courseID, objectID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedActivity{Type: t, CourseID: courseID, ObjectID: objectID})
}

func studentSession() *session.Session {
	return &session.Session{
		ID:           "sess-student",
		User:         &models.User{ID: 1, Username: "alice", Role: models.RoleStudent},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
}

func instructorSession() *session.Session {
	return &session.Session{
		ID:           "sess-instructor",
		User:         &models.User{ID: 2, Username: "bob", Role: models.RoleInstructor},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
}
