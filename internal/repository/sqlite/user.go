package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/mentorhub/pkg/models"
)

const userColumns = `id, email, password_hash, name, bio, profile_picture, school, major, interest, mentorship, status, note, mentor_id, token_version, created, updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	var bio, picture, school, major, interest, note, role sql.NullString
	var mentorID sql.NullInt64
	var status string
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &bio, &picture, &school, &major, &interest, &role, &status, &note, &mentorID, &u.TokenVersion, &u.Created, &u.Updated); err != nil {
		return nil, err
	}

	u.Bio = bio.String
	u.ProfilePicture = picture.String
	u.School = school.String
	u.Major = major.String
	u.Interest = interest.String
	u.Note = note.String
	u.Mentorship = models.Role(role.String)
	u.Status = models.Status(status)
	if mentorID.Valid {
		id := mentorID.Int64
		u.MentorID = &id
	}

	return &u, nil
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}
	status := u.Status
	if status == "" {
		status = models.StatusNone
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO users (email, password_hash, name, bio, profile_picture, school, major, interest, mentorship, status, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Name, nullString(u.Bio), nullString(u.ProfilePicture), nullString(u.School), nullString(u.Major), nullString(u.Interest), nullString(string(u.Mentorship)), string(status), ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return u, nil
}

func (r *SQLiteRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return u, nil
}

// BumpTokenVersion invalidates every token issued to the user so far.
func (r *SQLiteRepo) BumpTokenVersion(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE users SET token_version = token_version + 1, updated = ? WHERE id = ?`, now(), id)
	return err
}

func (r *SQLiteRepo) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}

	return out, rows.Err()
}
