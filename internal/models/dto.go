package models

import (
	"io"
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"notblank"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"min=6"`
	Password2   string `json:"password2" validate:"eqfield=Password"`
	Role        Role   `json:"role" validate:"oneof=student instructor"`
	DisplayName string `json:"display_name"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// FileUpload - файл из формы, который уходит в API как multipart-часть.
type FileUpload struct {
	FileName string
	Content  io.Reader
}

type ProfileUpdate struct {
	DisplayName    string
	Bio            string
	ProfilePicture *FileUpload
}

type CourseFilter struct {
	Search   string
	Category string
}

type CourseInput struct {
	Title          string       `form:"title" validate:"notblank"`
	Description    string       `form:"description" validate:"notblank"`
	Price          string       `form:"price" validate:"nonneg_number"`
	Category       string       `form:"category" validate:"notblank"`
	Status         CourseStatus `form:"status" validate:"oneof=draft published archived"`
	EstimatedHours string       `form:"estimated_hours" validate:"omitempty,nonneg_number"`
	Prerequisites  string       `form:"prerequisites"`
	Thumbnail      *FileUpload  `form:"thumbnail"`
}

type ModuleInput struct {
	Course      int64   `json:"course"`
	Title       string  `json:"title" validate:"notblank"`
	Description string  `json:"description"`
	Order       int     `json:"order"`
	ReleaseDate *string `json:"release_date"`
}

type LessonInput struct {
	Module          int64  `json:"module" validate:"required,gte=1"`
	Title           string `json:"title" validate:"notblank"`
	Overview        string `json:"overview"`
	Content         string `json:"content"`
	VideoURL        string `json:"video_url"`
	ResourceLink    string `json:"resource_link"`
	Order           int    `json:"order"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	IsPublished     bool   `json:"is_published"`
}

type AssignmentInput struct {
	Module            int64       `form:"module" validate:"required,gte=1"`
	Title             string      `form:"title" validate:"notblank"`
	Instructions      string      `form:"instructions"`
	DueDate           *time.Time  `form:"due_date"`
	MaxPoints         int         `form:"max_points" validate:"gte=0"`
	AllowResubmission bool        `form:"allow_resubmission"`
	Attachment        *FileUpload `form:"attachment"`
}

type QuestionInput struct {
	Prompt       string       `json:"prompt"`
	QuestionType QuestionType `json:"question_type"`
	Order        int          `json:"order"`
	Points       int          `json:"points"`
	Choices      []QuizChoice `json:"choices"`
}

type QuizInput struct {
	Module           int64           `json:"module"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	TimeLimitMinutes *int            `json:"time_limit_minutes"`
	AttemptsAllowed  int             `json:"attempts_allowed"`
	PassingScore     int             `json:"passing_score"`
	Questions        []QuestionInput `json:"questions"`
}

type QuestionBankInput struct {
	Course       *int64       `json:"course,omitempty"`
	Title        string       `json:"title"`
	Prompt       string       `json:"prompt"`
	QuestionType QuestionType `json:"question_type"`
	Points       int          `json:"points"`
	Choices      []QuizChoice `json:"choices"`
	Tags         string       `json:"tags,omitempty"`
}

// AnswerPayload - ответ на один вопрос в теле quiz-submissions.
type AnswerPayload struct {
	Choice *int64 `json:"choice,omitempty"`
	Text   string `json:"text,omitempty"`
}

type QuizSubmissionRequest struct {
	Quiz    int64                    `json:"quiz"`
	Answers map[string]AnswerPayload `json:"answers"`
}

type AssignmentSubmissionInput struct {
	AssignmentID int64
	TextResponse string
	Attachment   *FileUpload
}

type GradeInput struct {
	Grade    *float64         `json:"grade" validate:"required,finite,gte=0"`
	Feedback string           `json:"feedback"`
	Status   SubmissionStatus `json:"status" validate:"oneof=submitted in_review graded returned"`
}

type ConversationInput struct {
	Title                 string `json:"title,omitempty"`
	CourseID              int64  `json:"course_id"`
	IncludeCourseStudents bool   `json:"include_course_students"`
	InitialMessage        string `json:"-"`
}

type MessageInput struct {
	Conversation int64
	Body         string
	Attachment   *FileUpload
}
