package sql_storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"stickers_bot/internal/pkg/session/domain"
)

// SQLStorage keeps sessions as JSON documents in the user_sessions table. It
// works with both postgres and sqlite.
type SQLStorage struct {
	db *sql.DB
}

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_sessions (
			user_id    BIGINT PRIMARY KEY,
			data       TEXT NOT NULL,
			active     BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create user_sessions table: %w", err)
	}
	return nil
}

func (p *SQLStorage) SaveSession(ctx context.Context, session *domain.UserSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO user_sessions (user_id, data, active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET data = excluded.data, active = excluded.active, updated_at = excluded.updated_at
	`, session.UserID, string(data), session.Active(), session.UpdatedAt.UnixNano())
	return err
}

func (p *SQLStorage) GetSession(ctx context.Context, userID int64) (*domain.UserSession, error) {
	var data string
	err := p.db.QueryRowContext(ctx, `SELECT data FROM user_sessions WHERE user_id = $1`, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (p *SQLStorage) DeleteSession(ctx context.Context, userID int64) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	return err
}

func (p *SQLStorage) ExpiredSessions(ctx context.Context, before time.Time) ([]*domain.UserSession, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT data FROM user_sessions
		WHERE active = $1 AND updated_at < $2
	`, true, before.UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.UserSession
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		session, err := decode(data)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (p *SQLStorage) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_sessions WHERE active = $1`, true).Scan(&count)
	return count, err
}

func decode(data string) (*domain.UserSession, error) {
	var session domain.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}
