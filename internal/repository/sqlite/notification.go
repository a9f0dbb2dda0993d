package sqlite

import (
	"context"
	"fmt"

	"github.com/garnizeh/mentorhub/pkg/models"
)

func (r *SQLiteRepo) CreateNotification(ctx context.Context, n *models.Notification) (int64, error) {
	if n == nil {
		return 0, fmt.Errorf("notification is nil")
	}
	if n.Created == 0 {
		n.Created = now()
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO notifications (user_id, type, message, created) VALUES (?, ?, ?, ?)`, n.UserID, string(n.Type), n.Message, n.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.QueryContext(ctx, `SELECT id, user_id, type, message, created FROM notifications WHERE user_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n   models.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Message, &n.Created); err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)

		out = append(out, n)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountNotifications(ctx context.Context, userID int64) (int64, error) {
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}
