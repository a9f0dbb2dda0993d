package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garnizeh/mentorhub/pkg/models"
)

// ListMentorsExcluding returns every Mentor whose id is not in exclude.
func (r *SQLiteRepo) ListMentorsExcluding(ctx context.Context, exclude []int64) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE mentorship = ?`
	args := []any{string(models.RoleMentor)}
	if len(exclude) > 0 {
		query += ` AND id NOT IN (` + strings.TrimSuffix(strings.Repeat("?,", len(exclude)), ",") + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += ` ORDER BY name, id`

	return r.queryUsers(ctx, query, args...)
}

// RelatedUserIDs returns the union of id and mentor_id over every row that is
// the user itself or names the user as mentor.
func (r *SQLiteRepo) RelatedUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, mentor_id FROM users WHERE mentor_id = ? OR id = ?`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[int64]struct{})
	var out []int64
	add := func(id int64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for rows.Next() {
		var (
			id       int64
			mentorID sql.NullInt64
		)
		if err := rows.Scan(&id, &mentorID); err != nil {
			return nil, err
		}
		add(id)
		if mentorID.Valid {
			add(mentorID.Int64)
		}
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ListPendingForMentor(ctx context.Context, mentorID int64) ([]models.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE mentorship = ? AND status = ? AND mentor_id = ? ORDER BY updated, id`,
		string(models.RoleMentee), string(models.StatusRequested), mentorID)
}

func (r *SQLiteRepo) ListAcceptedMentees(ctx context.Context, mentorID int64) ([]models.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE mentor_id = ? AND status = ? ORDER BY name, id`,
		mentorID, string(models.StatusAccepted))
}

// UpdateRelationship writes status and mentor_id; a nil mentorID clears the
// link. A nil note leaves the stored note untouched.
func (r *SQLiteRepo) UpdateRelationship(ctx context.Context, userID int64, status models.Status, mentorID *int64, note *string) error {
	var mentor sql.NullInt64
	if mentorID != nil {
		mentor = sql.NullInt64{Int64: *mentorID, Valid: true}
	}

	var (
		res sql.Result
		err error
	)
	if note != nil {
		res, err = r.q.ExecContext(ctx, `UPDATE users SET status = ?, mentor_id = ?, note = ?, updated = ? WHERE id = ?`, string(status), mentor, nullString(*note), now(), userID)
	} else {
		res, err = r.q.ExecContext(ctx, `UPDATE users SET status = ?, mentor_id = ?, updated = ? WHERE id = ?`, string(status), mentor, now(), userID)
	}
	if err != nil {
		return fmt.Errorf("update relationship: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update relationship rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update relationship: user %d not found", userID)
	}
	return nil
}
