package player

import (
	"github.com/Aidensmirk/online-learning-platform/internal/models"
)

// State - все, что плеер курса держит между запросами.
type State struct {
	Course      models.Course
	Enrollment  models.Enrollment
	Completed   CompletionSet
	Quizzes     map[int64]QuizState
	Submissions map[int64]*models.AssignmentSubmission
}

// NewState собирает состояние из курса, записи о зачислении и загруженных попыток.
func NewState(
	course models.Course,
	enrollment models.Enrollment,
	quizSubmissions map[int64][]models.QuizSubmission,
	assignmentSubmissions map[int64][]models.AssignmentSubmission,
) *State {
	s := &State{
		Course:      course,
		Enrollment:  enrollment,
		Completed:   NewCompletionSet(&enrollment),
		Quizzes:     make(map[int64]QuizState),
		Submissions: make(map[int64]*models.AssignmentSubmission),
	}

	for _, quiz := range course.Quizzes() {
		s.Quizzes[quiz.ID] = NewQuizState(quiz, quizSubmissions[quiz.ID])
	}

	for _, assignment := range course.Assignments() {
		if own := latestAssignmentSubmission(assignmentSubmissions[assignment.ID]); own != nil {
			s.Submissions[assignment.ID] = own
		}
	}

	return s
}

func latestAssignmentSubmission(subs []models.AssignmentSubmission) *models.AssignmentSubmission {
	var latest *models.AssignmentSubmission
	for i := range subs {
		if latest == nil || subs[i].SubmittedAt.After(latest.SubmittedAt) {
			latest = &subs[i]
		}
	}
	if latest == nil {
		return nil
	}
	out := *latest
	return &out
}

func (s *State) Progress() int {
	return s.Enrollment.Progress
}

func (s *State) Quiz(id int64) (QuizState, bool) {
	q, ok := s.Quizzes[id]
	return q, ok
}

func (s *State) CanSubmit(assignmentID int64) bool {
	assignment, ok := s.Course.FindAssignment(assignmentID)
	if !ok {
		return false
	}
	return CanSubmitAssignment(*assignment, s.Submissions[assignmentID])
}

// ApplyCompletion берет прогресс из ответа сервера целиком, сам прогресс не считает.
func (s *State) ApplyCompletion(result models.LessonCompletion) {
	s.Enrollment = result.Enrollment
	s.Completed = NewCompletionSet(&result.Enrollment)

	if result.Lesson.ID == 0 {
		return
	}
	if result.Completed {
		s.Completed[result.Lesson.ID] = struct{}{}
	} else {
		delete(s.Completed, result.Lesson.ID)
	}
}

func (s *State) RecordQuizSubmission(quizID int64, submission models.QuizSubmission) {
	q, ok := s.Quizzes[quizID]
	if !ok {
		return
	}
	latest := submission
	q.Latest = &latest
	s.Quizzes[quizID] = q
}

func (s *State) RecordAssignmentSubmission(assignmentID int64, submission models.AssignmentSubmission) {
	own := submission
	s.Submissions[assignmentID] = &own
}

// Clone нужен, чтобы мутации применялись к копии и подменяли состояние только после успеха.
func (s *State) Clone() *State {
	out := &State{
		Course:      s.Course,
		Enrollment:  s.Enrollment,
		Completed:   s.Completed.Clone(),
		Quizzes:     make(map[int64]QuizState, len(s.Quizzes)),
		Submissions: make(map[int64]*models.AssignmentSubmission, len(s.Submissions)),
	}
	for id, q := range s.Quizzes {
		out.Quizzes[id] = q
	}
	for id, sub := range s.Submissions {
		out.Submissions[id] = sub
	}
	return out
}
