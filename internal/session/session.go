package session

import (
	"context"
	"errors"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session - то, что браузерная версия держала в localStorage:
// пользователь и пара токенов. Хранится целиком одной записью.
type Session struct {
	ID           string       `json:"id"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Store - хранилище сессий. Save пишет запись атомарно.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func New(user *models.User, access, refresh string, ttl time.Duration) *Session {
	return &Session{
		ID:           uuid.New().String(),
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    ExpiryFromToken(refresh, time.Now().Add(ttl)),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	return &cp
}
