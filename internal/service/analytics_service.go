package service

import (
	"context"
	"math"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

// Bar - одна полоса диаграммы; Percent считается от максимума набора.
type Bar struct {
	Label   string
	Value   int
	Percent int
}

type AnalyticsService interface {
	Instructor(ctx context.Context, sess *session.Session, instructorID int64) (*models.InstructorAnalytics, error)
	Admin(ctx context.Context, sess *session.Session) (*models.AdminAnalytics, error)
}

type analyticsService struct {
	client integration.AnalyticsClient
	logger zerolog.Logger
}

func NewAnalyticsService(client integration.AnalyticsClient, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{client: client, logger: logger}
}

// Instructor: админ может смотреть любого преподавателя, остальные - только себя.
func (s *analyticsService) Instructor(ctx context.Context, sess *session.Session, instructorID int64) (*models.InstructorAnalytics, error) {
	if !sess.User.Is(models.RoleAdmin) {
		instructorID = 0
	}
	return s.client.Instructor(ctx, sess, instructorID)
}

func (s *analyticsService) Admin(ctx context.Context, sess *session.Session) (*models.AdminAnalytics, error) {
	if !sess.User.Is(models.RoleAdmin) {
		return nil, ErrForbidden
	}
	return s.client.Admin(ctx, sess)
}

// Bars переводит разбивку по категориям в полосы по числу записей.
func Bars(breakdown []models.CategoryBreakdown) []Bar {
	top := 0
	for _, b := range breakdown {
		if b.Enrollments > top {
			top = b.Enrollments
		}
	}

	bars := make([]Bar, 0, len(breakdown))
	for _, b := range breakdown {
		bar := Bar{Label: b.Category, Value: b.Enrollments}
		if bar.Label == "" {
			bar.Label = "Uncategorized"
		}
		if top > 0 {
			bar.Percent = int(math.Round(float64(b.Enrollments) * 100 / float64(top)))
		}
		bars = append(bars, bar)
	}
	return bars
}

// CourseBars - доля завершения по курсам преподавателя.
func CourseBars(courses []models.CourseAnalytics) []Bar {
	bars := make([]Bar, 0, len(courses))
	for _, c := range courses {
		rate := int(math.Round(c.CompletionRate.Float()))
		if rate < 0 {
			rate = 0
		}
		if rate > 100 {
			rate = 100
		}
		bars = append(bars, Bar{Label: c.Title, Value: c.Enrollments, Percent: rate})
	}
	return bars
}
