package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/mentorhub/pkg/models"
)

func (r *SQLiteRepo) CreateRequest(ctx context.Context, req *models.MentorRequest) (int64, error) {
	if req == nil {
		return 0, fmt.Errorf("request is nil")
	}
	status := req.Status
	if status == "" {
		status = models.RequestPending
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO mentorship_requests (mentee_id, mentor_id, note, status, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		req.MenteeID, req.MentorID, nullString(req.Note), string(status), ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// GetOpenRequest returns the mentee's request still awaiting a decision.
func (r *SQLiteRepo) GetOpenRequest(ctx context.Context, menteeID int64) (*models.MentorRequest, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, mentee_id, mentor_id, note, status, created, updated FROM mentorship_requests WHERE mentee_id = ? AND status = ?`, menteeID, string(models.RequestPending))

	var (
		req    models.MentorRequest
		note   sql.NullString
		status string
	)
	if err := row.Scan(&req.ID, &req.MenteeID, &req.MentorID, &note, &status, &req.Created, &req.Updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	req.Note = note.String
	req.Status = models.RequestStatus(status)

	return &req, nil
}

func (r *SQLiteRepo) ResolveRequest(ctx context.Context, id int64, from, to models.RequestStatus) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE mentorship_requests SET status = ?, updated = ? WHERE id = ? AND status = ?`, string(to), now(), id, string(from))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SupersedeAccepted ends the mentee's current accepted relationship, if any.
func (r *SQLiteRepo) SupersedeAccepted(ctx context.Context, menteeID int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE mentorship_requests SET status = ?, updated = ? WHERE mentee_id = ? AND status = ?`,
		string(models.RequestSuperseded), now(), menteeID, string(models.RequestAccepted))
	return err
}
