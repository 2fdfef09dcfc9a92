package models

import (
	"fmt"
	"time"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

func ParseCourseStatus(s string) (CourseStatus, error) {
	switch CourseStatus(s) {
	case CourseDraft, CoursePublished, CourseArchived:
		return CourseStatus(s), nil
	}
	return "", fmt.Errorf("unknown course status %q", s)
}

type Course struct {
	ID             int64          `json:"id"`
	Instructor     *User          `json:"instructor"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Thumbnail      *string        `json:"thumbnail"`
	Price          Decimal        `json:"price"`
	Category       string         `json:"category"`
	Status         CourseStatus   `json:"status"`
	EstimatedHours Decimal        `json:"estimated_hours"`
	Prerequisites  string         `json:"prerequisites"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Modules        []CourseModule `json:"modules"`
	IsEnrolled     bool           `json:"is_enrolled"`
	IsInWishlist   bool           `json:"is_in_wishlist"`
}

// OwnedBy - курс принадлежит пользователю или пользователь администратор.
func (c *Course) OwnedBy(u *User) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return c.Instructor != nil && c.Instructor.ID == u.ID
}

// Lessons возвращает все уроки курса в порядке модулей.
func (c *Course) Lessons() []Lesson {
	var out []Lesson
	for _, m := range c.Modules {
		out = append(out, m.Lessons...)
	}
	return out
}

func (c *Course) Quizzes() []Quiz {
	var out []Quiz
	for _, m := range c.Modules {
		out = append(out, m.Quizzes...)
	}
	return out
}

func (c *Course) Assignments() []Assignment {
	var out []Assignment
	for _, m := range c.Modules {
		out = append(out, m.Assignments...)
	}
	return out
}

func (c *Course) FindQuiz(id int64) (*Quiz, bool) {
	for i := range c.Modules {
		for j := range c.Modules[i].Quizzes {
			if c.Modules[i].Quizzes[j].ID == id {
				return &c.Modules[i].Quizzes[j], true
			}
		}
	}
	return nil, false
}

func (c *Course) FindAssignment(id int64) (*Assignment, bool) {
	for i := range c.Modules {
		for j := range c.Modules[i].Assignments {
			if c.Modules[i].Assignments[j].ID == id {
				return &c.Modules[i].Assignments[j], true
			}
		}
	}
	return nil, false
}

func (c *Course) HasLesson(id int64) bool {
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if l.ID == id {
				return true
			}
		}
	}
	return false
}

type CourseModule struct {
	ID          int64        `json:"id"`
	Course      int64        `json:"course"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Order       int          `json:"order"`
	ReleaseDate *string      `json:"release_date"`
	Lessons     []Lesson     `json:"lessons"`
	Assignments []Assignment `json:"assignments"`
	Quizzes     []Quiz       `json:"quizzes"`
}

type Lesson struct {
	ID              int64     `json:"id"`
	Module          int64     `json:"module"`
	Title           string    `json:"title"`
	Overview        string    `json:"overview"`
	Content         string    `json:"content"`
	VideoURL        string    `json:"video_url"`
	ResourceLink    string    `json:"resource_link"`
	Order           int       `json:"order"`
	DurationMinutes int       `json:"duration_minutes"`
	IsPublished     bool      `json:"is_published"`
	CreatedAt       time.Time `json:"created_at"`
	IsCompleted     bool      `json:"is_completed"`
}

type Assignment struct {
	ID                int64                  `json:"id"`
	Module            int64                  `json:"module"`
	Title             string                 `json:"title"`
	Instructions      string                 `json:"instructions"`
	Attachment        *string                `json:"attachment"`
	DueDate           *time.Time             `json:"due_date"`
	MaxPoints         int                    `json:"max_points"`
	AllowResubmission bool                   `json:"allow_resubmission"`
	CreatedAt         time.Time              `json:"created_at"`
	Submissions       []AssignmentSubmission `json:"submissions,omitempty"`
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionInReview  SubmissionStatus = "in_review"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionReturned  SubmissionStatus = "returned"
)

func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	switch SubmissionStatus(s) {
	case SubmissionSubmitted, SubmissionInReview, SubmissionGraded, SubmissionReturned:
		return SubmissionStatus(s), nil
	}
	return "", fmt.Errorf("unknown submission status %q", s)
}

func SubmissionStatuses() []SubmissionStatus {
	return []SubmissionStatus{SubmissionSubmitted, SubmissionInReview, SubmissionGraded, SubmissionReturned}
}

type AssignmentSubmission struct {
	ID           int64            `json:"id"`
	Assignment   *Assignment      `json:"assignment,omitempty"`
	Student      *User            `json:"student"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	Attachment   *string          `json:"attachment"`
	TextResponse string           `json:"text_response"`
	Grade        *Decimal         `json:"grade"`
	Feedback     string           `json:"feedback"`
	Status       SubmissionStatus `json:"status"`
	ReviewedAt   *time.Time       `json:"reviewed_at"`
	ReviewedBy   *User            `json:"reviewed_by"`
	IsLate       bool             `json:"is_late"`
}

type Enrollment struct {
	ID             int64            `json:"id"`
	Student        *User            `json:"student"`
	Course         *Course          `json:"course"`
	EnrolledAt     time.Time        `json:"enrolled_at"`
	Progress       int              `json:"progress"`
	LastAccessed   *time.Time       `json:"last_accessed"`
	LessonProgress []LessonProgress `json:"lesson_progress"`
}

func (e *Enrollment) CourseID() int64 {
	if e == nil || e.Course == nil {
		return 0
	}
	return e.Course.ID
}

type LessonProgress struct {
	ID          int64     `json:"id"`
	Lesson      *Lesson   `json:"lesson"`
	CompletedAt time.Time `json:"completed_at"`
}

type WishlistItem struct {
	ID      int64     `json:"id"`
	Course  *Course   `json:"course"`
	AddedAt time.Time `json:"added_at"`
}

// LessonCompletion - ответ /lessons/{id}/complete/ и /uncomplete/.
type LessonCompletion struct {
	Lesson     Lesson     `json:"lesson"`
	Enrollment Enrollment `json:"enrollment"`
	Completed  bool       `json:"completed"`
}
