package mysql

import (
	"context"
	"database/sql"

	"SLH-Bot/internal/history"
)

const (
	// Redelivered events carry the same id and are ignored.
	insertEventSQL = `INSERT IGNORE INTO history_events (id, user_id, description, created_at)
    VALUES (?, ?, ?, ?)`
	listEventsSQL = `SELECT id, user_id, description, created_at
    FROM history_events WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
)

const defaultHistoryLimit = 10

// HistoryRepository implements history.Repository on history_events.
type HistoryRepository struct {
	db *sql.DB
}

func (r *HistoryRepository) Append(ctx context.Context, event history.Event) error {
	if _, err := r.db.ExecContext(ctx, insertEventSQL, event.ID, event.UserID, event.Description, toMillis(event.CreatedAt)); err != nil {
		return storageError(err, "写入历史记录失败")
	}
	return nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]history.Event, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, listEventsSQL, userID, limit)
	if err != nil {
		return nil, storageError(err, "查询历史记录失败")
	}
	defer rows.Close()

	var events []history.Event
	for rows.Next() {
		var (
			e       history.Event
			created int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &created); err != nil {
			return nil, storageError(err, "解析历史记录失败")
		}
		e.CreatedAt = fromMillis(created)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "遍历历史记录失败")
	}
	return events, nil
}

var _ history.Repository = (*HistoryRepository)(nil)
