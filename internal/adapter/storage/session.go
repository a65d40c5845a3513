package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/kiksniks/internal/core/port"
)

var (
	_ port.SessionStorage = (*SessionRepository)(nil)
	_ port.SessionPurger  = (*SessionRepository)(nil)
)

// SessionRepository keeps session documents in the session_storage table.
type SessionRepository struct {
	sqldb sqldb
}

func NewSessionRepository(sqldb sqldb) SessionRepository {
	return SessionRepository{sqldb}
}

func (r SessionRepository) Get(
	ctx context.Context, sessionID, key string,
) ([]byte, error) {
	const op = "SessionRepository.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT value FROM session_storage
		WHERE session_id = $1 AND key = $2;`

	var value []byte
	err := r.sqldb.QueryRowContext(ctx, query, sessionID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

func (r SessionRepository) Put(
	ctx context.Context, sessionID, key string, value []byte,
) error {
	const op = "SessionRepository.Put"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO session_storage (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;`

	_, err := r.sqldb.ExecContext(ctx, query, sessionID, key, string(value))
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

func (r SessionRepository) Delete(
	ctx context.Context, sessionID, key string,
) error {
	const op = "SessionRepository.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM session_storage WHERE session_id = $1 AND key = $2;`
	if _, err := r.sqldb.ExecContext(ctx, query, sessionID, key); err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

// PurgeSessions removes documents not written since before.
func (r SessionRepository) PurgeSessions(
	ctx context.Context, before time.Time,
) (int, error) {
	const op = "SessionRepository.PurgeSessions"

	query := `DELETE FROM session_storage WHERE updated_at < $1;`
	res, err := r.sqldb.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}
