package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
)

type sessionRepository struct {
	*PostgresRepository
}

// NewSessionRepository - хранилище сессий в PostgreSQL (таблица web_sessions).
func NewSessionRepository(db *sql.DB, logger zerolog.Logger) session.Store {
	return &sessionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *sessionRepository) Load(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, user_data, access_token, refresh_token, expires_at
		FROM web_sessions
		WHERE id = $1 AND expires_at > NOW()
	`

	var (
		s        session.Session
		userData []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&userData,
		&s.AccessToken,
		&s.RefreshToken,
		&s.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if len(userData) > 0 && string(userData) != "null" {
		var user models.User
		if err := json.Unmarshal(userData, &user); err != nil {
			return nil, fmt.Errorf("failed to decode session user: %w", err)
		}
		s.User = &user
	}

	return &s, nil
}

// Save - один upsert: токены и пользователь всегда пишутся вместе.
func (r *sessionRepository) Save(ctx context.Context, s *session.Session) error {
	var userData []byte
	if s.User != nil {
		data, err := json.Marshal(s.User)
		if err != nil {
			return fmt.Errorf("failed to encode session user: %w", err)
		}
		userData = data
	}

	query := `
		INSERT INTO web_sessions (id, user_data, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_data = EXCLUDED.user_data,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		userData,
		s.AccessToken,
		s.RefreshToken,
		s.ExpiresAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (r *sessionRepository) Clear(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM web_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// DeleteExpired чистит протухшие записи; вызывается по таймеру из app.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM web_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Info().Int64("deleted", n).Msg("Expired sessions removed")
	}
	return n, nil
}
