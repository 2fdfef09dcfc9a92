package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
)

// CourseClient - каталог курсов, запись на курс, избранное и прогресс по урокам.
type CourseClient interface {
	List(ctx context.Context, sess *session.Session, filter models.CourseFilter) ([]models.Course, error)
	Get(ctx context.Context, sess *session.Session, id int64) (*models.Course, error)
	Create(ctx context.Context, sess *session.Session, in models.CourseInput) (*models.Course, error)
	Update(ctx context.Context, sess *session.Session, id int64, in models.CourseInput) (*models.Course, error)
	SetStatus(ctx context.Context, sess *session.Session, id int64, status models.CourseStatus) (*models.Course, error)
	Delete(ctx context.Context, sess *session.Session, id int64) error

	Enroll(ctx context.Context, sess *session.Session, id int64) (*models.Enrollment, error)
	Enrollments(ctx context.Context, sess *session.Session) ([]models.Enrollment, error)
	AddToWishlist(ctx context.Context, sess *session.Session, id int64) error
	RemoveFromWishlist(ctx context.Context, sess *session.Session, id int64) error
	Wishlist(ctx context.Context, sess *session.Session) ([]models.WishlistItem, error)

	CompleteLesson(ctx context.Context, sess *session.Session, lessonID int64) (*models.LessonCompletion, error)
	UncompleteLesson(ctx context.Context, sess *session.Session, lessonID int64) (*models.LessonCompletion, error)
}

type courseClient struct {
	t *transport
}

func (c *courseClient) List(ctx context.Context, sess *session.Session, filter models.CourseFilter) ([]models.Course, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" && filter.Category != "All" {
		q.Set("category", filter.Category)
	}
	return listOf[models.Course](ctx, c.t, sess, "/courses/", q)
}

func (c *courseClient) Get(ctx context.Context, sess *session.Session, id int64) (*models.Course, error) {
	var course models.Course
	if err := c.t.do(ctx, sess, newRequest(http.MethodGet, fmt.Sprintf("/courses/%d/", id)), &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func courseFields(in models.CourseInput) []formField {
	fields := []formField{
		{Name: "title", Value: in.Title},
		{Name: "description", Value: in.Description},
		{Name: "category", Value: in.Category},
		{Name: "prerequisites", Value: in.Prerequisites},
	}
	if in.Price != "" {
		fields = append(fields, formField{Name: "price", Value: in.Price})
	}
	if in.EstimatedHours != "" {
		fields = append(fields, formField{Name: "estimated_hours", Value: in.EstimatedHours})
	}
	if in.Status != "" {
		fields = append(fields, formField{Name: "status", Value: string(in.Status)})
	}
	if in.Thumbnail != nil {
		fields = append(fields, formField{Name: "thumbnail", File: in.Thumbnail})
	}
	return fields
}

func (c *courseClient) Create(ctx context.Context, sess *session.Session, in models.CourseInput) (*models.Course, error) {
	r, err := newRequest(http.MethodPost, "/courses/").withMultipart(courseFields(in))
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := c.t.do(ctx, sess, r, &course); err != nil {
		return nil, err
	}

	c.t.logger.Info().Int64("course_id", course.ID).Str("title", course.Title).Msg("Course created")
	return &course, nil
}

func (c *courseClient) Update(ctx context.Context, sess *session.Session, id int64, in models.CourseInput) (*models.Course, error) {
	r, err := newRequest(http.MethodPatch, fmt.Sprintf("/courses/%d/", id)).withMultipart(courseFields(in))
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := c.t.do(ctx, sess, r, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *courseClient) SetStatus(ctx context.Context, sess *session.Session, id int64, status models.CourseStatus) (*models.Course, error) {
	r, err := newRequest(http.MethodPatch, fmt.Sprintf("/courses/%d/", id)).
		withJSON(map[string]string{"status": string(status)})
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := c.t.do(ctx, sess, r, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *courseClient) Delete(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/courses/%d/", id)), nil)
}

func (c *courseClient) Enroll(ctx context.Context, sess *session.Session, id int64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := c.t.do(ctx, sess, newRequest(http.MethodPost, fmt.Sprintf("/courses/%d/enroll/", id)), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (c *courseClient) Enrollments(ctx context.Context, sess *session.Session) ([]models.Enrollment, error) {
	return listOf[models.Enrollment](ctx, c.t, sess, "/enrollments/", nil)
}

func (c *courseClient) AddToWishlist(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodPost, fmt.Sprintf("/courses/%d/add_to_wishlist/", id)), nil)
}

func (c *courseClient) RemoveFromWishlist(ctx context.Context, sess *session.Session, id int64) error {
	return c.t.do(ctx, sess, newRequest(http.MethodDelete, fmt.Sprintf("/courses/%d/remove_from_wishlist/", id)), nil)
}

func (c *courseClient) Wishlist(ctx context.Context, sess *session.Session) ([]models.WishlistItem, error) {
	return listOf[models.WishlistItem](ctx, c.t, sess, "/wishlist/", nil)
}

func (c *courseClient) CompleteLesson(ctx context.Context, sess *session.Session, lessonID int64) (*models.LessonCompletion, error) {
	var result models.LessonCompletion
	if err := c.t.do(ctx, sess, newRequest(http.MethodPost, fmt.Sprintf("/lessons/%d/complete/", lessonID)), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *courseClient) UncompleteLesson(ctx context.Context, sess *session.Session, lessonID int64) (*models.LessonCompletion, error) {
	var result models.LessonCompletion
	if err := c.t.do(ctx, sess, newRequest(http.MethodPost, fmt.Sprintf("/lessons/%d/uncomplete/", lessonID)), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
