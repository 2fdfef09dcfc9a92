package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service/integration"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*session.Session, error)
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context, sess *session.Session) error
	Resolve(ctx context.Context, sessionID string) (*session.Session, error)
	CurrentUser(ctx context.Context, sess *session.Session) (*models.User, error)
	UpdateProfile(ctx context.Context, sess *session.Session, update models.ProfileUpdate) (*models.User, error)
}

type authService struct {
	client     integration.AuthClient
	store      session.Store
	workspaces *workspace.Store
	sessionTTL time.Duration
	logger     zerolog.Logger
}

func NewAuthService(
	client integration.AuthClient,
	store session.Store,
	workspaces *workspace.Store,
	sessionTTL time.Duration,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		client:     client,
		store:      store,
		workspaces: workspaces,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// validateRegistration нормализует ввод и проверяет его тегами RegisterRequest.
func validateRegistration(req *models.RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	return models.Validate(req)
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*session.Session, error) {
	if err := validateRegistration(&req); err != nil {
		return nil, err
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	sess, err := s.persist(ctx, resp)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", resp.User.ID).Str("role", string(resp.User.Role)).Msg("User registered")
	return sess, nil
}

// Login пишет токены и пользователя одной записью; при любой ошибке в хранилище ничего не попадает.
func (s *authService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required.")
	}

	resp, err := s.client.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	sess, err := s.persist(ctx, resp)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", resp.User.ID).Msg("User logged in")
	return sess, nil
}

func (s *authService) persist(ctx context.Context, resp *models.AuthResponse) (*session.Session, error) {
	if resp.Tokens.Access == "" || resp.Tokens.Refresh == "" {
		return nil, errors.New("auth response has no tokens")
	}
	if _, err := models.ParseRole(string(resp.User.Role)); err != nil {
		return nil, fmt.Errorf("auth response has invalid user: %w", err)
	}

	user := resp.User
	sess := session.New(&user, resp.Tokens.Access, resp.Tokens.Refresh, s.sessionTTL)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

func (s *authService) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}

	s.workspaces.Drop(sess.ID)
	if err := s.store.Clear(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.logger.Info().Int64("user_id", userID(sess.User)).Msg("User logged out")
	return nil
}

func (s *authService) Resolve(ctx context.Context, sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, session.ErrNotFound
	}
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.workspaces.Drop(sessionID)
		}
		return nil, err
	}
	return sess, nil
}

// CurrentUser отдает пользователя из сессии, а если его нет - запрашивает /auth/me/ и кэширует.
func (s *authService) CurrentUser(ctx context.Context, sess *session.Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, integration.ErrSessionExpired
	}
	if sess.User != nil {
		return sess.User, nil
	}

	user, err := s.client.Me(ctx, sess)
	if err != nil {
		if isSessionExpired(err) {
			s.workspaces.Drop(sess.ID)
		}
		return nil, err
	}

	sess.User = user
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to cache current user")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, sess *session.Session, update models.ProfileUpdate) (*models.User, error) {
	update.DisplayName = strings.TrimSpace(update.DisplayName)

	user, err := s.client.UpdateProfile(ctx, sess, update)
	if err != nil {
		return nil, err
	}

	sess.User = user
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return user, nil
}
