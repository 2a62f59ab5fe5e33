package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, m *Message) (int64, error) {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO channel_messages (origin, command, payload, created_at) VALUES (?, ?, ?, ?)`,
		m.Origin, m.Command, m.Payload, createdAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to append message %s: %w", m.Command, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}
	m.ID = id
	return id, nil
}

func (r *SQLiteRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, origin, command, payload, created_at
		FROM channel_messages
		WHERE id > ?
		ORDER BY id
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var result []*Message
	for rows.Next() {
		var (
			m         Message
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.Origin, &m.Command, &m.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		m.CreatedAt = time.UnixMilli(createdAt)
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) MaxID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM channel_messages`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get max message id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM channel_messages WHERE created_at < ?`, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune messages: %w", err)
	}
	return n, nil
}
