package models

import "time"

type ActivityType string

const (
	ActivityLessonCompleted     ActivityType = "lesson.completed"
	ActivityQuizSubmitted       ActivityType = "quiz.submitted"
	ActivityAssignmentSubmitted ActivityType = "assignment.submitted"
	ActivityCourseEnrolled      ActivityType = "course.enrolled"
	ActivityMessageSent         ActivityType = "message.sent"
)

// ActivityEvent публикуется в RabbitMQ после успешных действий пользователя.
type ActivityEvent struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	UserID     int64        `json:"user_id"`
	CourseID   int64        `json:"course_id,omitempty"`
	ObjectID   int64        `json:"object_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
