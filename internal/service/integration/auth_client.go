package integration

import (
	"context"
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
)

type AuthClient interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, sess *session.Session) (*models.User, error)
	UpdateProfile(ctx context.Context, sess *session.Session, update models.ProfileUpdate) (*models.User, error)
}

type authClient struct {
	t *transport
}

func (c *authClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	r, err := newRequest(http.MethodPost, "/auth/register/").withJSON(req)
	if err != nil {
		return nil, err
	}

	var resp models.AuthResponse
	if err := c.t.do(ctx, nil, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *authClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	r, err := newRequest(http.MethodPost, "/auth/login/").withJSON(req)
	if err != nil {
		return nil, err
	}

	var resp models.AuthResponse
	if err := c.t.do(ctx, nil, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *authClient) Me(ctx context.Context, sess *session.Session) (*models.User, error) {
	var user models.User
	if err := c.t.do(ctx, sess, newRequest(http.MethodGet, "/auth/me/"), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *authClient) UpdateProfile(ctx context.Context, sess *session.Session, update models.ProfileUpdate) (*models.User, error) {
	fields := []formField{
		{Name: "display_name", Value: update.DisplayName},
		{Name: "bio", Value: update.Bio},
	}
	if update.ProfilePicture != nil {
		fields = append(fields, formField{Name: "profile_picture", File: update.ProfilePicture})
	}

	r, err := newRequest(http.MethodPut, "/auth/profile/").withMultipart(fields)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.t.do(ctx, sess, r, &user); err != nil {
		return nil, err
	}

	c.t.logger.Info().Int64("user_id", user.ID).Msg("Profile updated")
	return &user, nil
}
