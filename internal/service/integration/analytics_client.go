package integration

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
)

type AnalyticsClient interface {
	Instructor(ctx context.Context, sess *session.Session, instructorID int64) (*models.InstructorAnalytics, error)
	Admin(ctx context.Context, sess *session.Session) (*models.AdminAnalytics, error)
}

type analyticsClient struct {
	t *transport
}

func (c *analyticsClient) Instructor(ctx context.Context, sess *session.Session, instructorID int64) (*models.InstructorAnalytics, error) {
	q := url.Values{}
	if instructorID > 0 {
		q.Set("instructor_id", strconv.FormatInt(instructorID, 10))
	}

	var out models.InstructorAnalytics
	if err := c.t.do(ctx, sess, newRequest(http.MethodGet, "/analytics/instructor/").withQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *analyticsClient) Admin(ctx context.Context, sess *session.Session) (*models.AdminAnalytics, error) {
	var out models.AdminAnalytics
	if err := c.t.do(ctx, sess, newRequest(http.MethodGet, "/analytics/admin/"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
