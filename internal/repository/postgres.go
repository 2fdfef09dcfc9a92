package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

var ErrSchemaMissing = errors.New("web_sessions table is missing, run migrate -direction up")

// PostgresRepository - общее подключение хранилища сессий.
type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger.With().Str("component", "session_db").Logger(),
	}
}

// Ping для /ready: база отвечает и схема сессий накатана.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var table sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass('web_sessions')::text`).Scan(&table); err != nil {
		return fmt.Errorf("failed to ping session database: %w", err)
	}
	if !table.Valid {
		return ErrSchemaMissing
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	r.logger.Debug().Msg("Closing session database")
	return r.db.Close()
}
