package models

import "time"

type InstructorSummary struct {
	TotalCourses          int     `json:"total_courses"`
	TotalEnrollments      int     `json:"total_enrollments"`
	TotalRevenue          Decimal `json:"total_revenue"`
	AverageCompletionRate Decimal `json:"average_completion_rate"`
	AverageQuizScore      Decimal `json:"average_quiz_score"`
}

type CourseAnalytics struct {
	ID                    int64        `json:"id"`
	Title                 string       `json:"title"`
	Status                CourseStatus `json:"status"`
	Enrollments           int          `json:"enrollments"`
	CompletionRate        Decimal      `json:"completion_rate"`
	AverageProgress       Decimal      `json:"average_progress"`
	AverageQuizScore      Decimal      `json:"average_quiz_score"`
	AssignmentSubmissions int          `json:"assignment_submissions"`
	QuizSubmissions       int          `json:"quiz_submissions"`
	Revenue               Decimal      `json:"revenue"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

type InstructorAnalytics struct {
	Summary InstructorSummary `json:"summary"`
	Courses []CourseAnalytics `json:"courses"`
}

type AdminSummary struct {
	TotalUsers                 int     `json:"total_users"`
	TotalStudents              int     `json:"total_students"`
	TotalInstructors           int     `json:"total_instructors"`
	TotalCourses               int     `json:"total_courses"`
	TotalEnrollments           int     `json:"total_enrollments"`
	TotalAssignmentSubmissions int     `json:"total_assignment_submissions"`
	TotalQuizSubmissions       int     `json:"total_quiz_submissions"`
	EstimatedRevenue           Decimal `json:"estimated_revenue"`
}

type CategoryBreakdown struct {
	Category    string `json:"category"`
	CourseCount int    `json:"course_count"`
	Enrollments int    `json:"enrollments"`
}

type AdminAnalytics struct {
	Summary           AdminSummary        `json:"summary"`
	CategoryBreakdown []CategoryBreakdown `json:"category_breakdown"`
}
