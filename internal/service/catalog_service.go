package service

import (
	"context"
	"sort"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

const AllCategories = "All"

type Dashboard struct {
	Enrollments     []models.Enrollment
	Total           int
	InProgress      int
	Completed       int
	AverageProgress int
	WishlistCount   int
}

type CatalogService interface {
	Browse(ctx context.Context, sess *session.Session, filter models.CourseFilter) ([]models.Course, error)
	Details(ctx context.Context, sess *session.Session, courseID int64) (*models.Course, error)
	Enroll(ctx context.Context, sess *session.Session, courseID int64) (*models.Enrollment, error)
	Enrollments(ctx context.Context, sess *session.Session) ([]models.Enrollment, error)
	AddToWishlist(ctx context.Context, sess *session.Session, courseID int64) error
	RemoveFromWishlist(ctx context.Context, sess *session.Session, courseID int64) error
	Wishlist(ctx context.Context, sess *session.Session) ([]models.WishlistItem, error)
	Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error)
}

type catalogService struct {
	courses  integration.CourseClient
	activity ActivityRecorder
	logger   zerolog.Logger
}

func NewCatalogService(courses integration.CourseClient, activity ActivityRecorder, logger zerolog.Logger) CatalogService {
	return &catalogService{
		courses:  courses,
		activity: activity,
		logger:   logger,
	}
}

func (s *catalogService) Browse(ctx context.Context, sess *session.Session, filter models.CourseFilter) ([]models.Course, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if strings.EqualFold(filter.Category, AllCategories) {
		filter.Category = ""
	}
	return s.courses.List(ctx, sess, filter)
}

// Categories собирает отсортированный список категорий с "All" в начале.
func Categories(courses []models.Course) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range courses {
		if c.Category == "" || seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		out = append(out, c.Category)
	}
	sort.Strings(out)
	return append([]string{AllCategories}, out...)
}

func (s *catalogService) Details(ctx context.Context, sess *session.Session, courseID int64) (*models.Course, error) {
	return s.courses.Get(ctx, sess, courseID)
}

// Enroll не шлет повторный запрос, если запись на курс уже есть.
func (s *catalogService) Enroll(ctx context.Context, sess *session.Session, courseID int64) (*models.Enrollment, error) {
	enrollments, err := s.courses.Enrollments(ctx, sess)
	if err != nil {
		return nil, err
	}
	for i := range enrollments {
		if enrollments[i].CourseID() == courseID {
			return &enrollments[i], ErrAlreadyEnrolled
		}
	}

	enrollment, err := s.courses.Enroll(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}

	s.activity.Record(models.ActivityCourseEnrolled, userID(sess.User), courseID, enrollment.ID)
	s.logger.Info().Int64("course_id", courseID).Int64("user_id", userID(sess.User)).Msg("Student enrolled")
	return enrollment, nil
}

func (s *catalogService) Enrollments(ctx context.Context, sess *session.Session) ([]models.Enrollment, error) {
	return s.courses.Enrollments(ctx, sess)
}

func (s *catalogService) AddToWishlist(ctx context.Context, sess *session.Session, courseID int64) error {
	return s.courses.AddToWishlist(ctx, sess, courseID)
}

func (s *catalogService) RemoveFromWishlist(ctx context.Context, sess *session.Session, courseID int64) error {
	return s.courses.RemoveFromWishlist(ctx, sess, courseID)
}

func (s *catalogService) Wishlist(ctx context.Context, sess *session.Session) ([]models.WishlistItem, error) {
	return s.courses.Wishlist(ctx, sess)
}

func (s *catalogService) Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	enrollments, err := s.courses.Enrollments(ctx, sess)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Enrollments: enrollments, Total: len(enrollments)}
	sum := 0
	for _, e := range enrollments {
		sum += e.Progress
		if e.Progress >= 100 {
			d.Completed++
		} else {
			d.InProgress++
		}
	}
	if d.Total > 0 {
		d.AverageProgress = sum / d.Total
	}

	wishlist, err := s.courses.Wishlist(ctx, sess)
	if err != nil {
		if isSessionExpired(err) {
			return nil, err
		}
		s.logger.Warn().Err(err).Msg("Failed to load wishlist for dashboard")
	}
	d.WishlistCount = len(wishlist)

	return d, nil
}
