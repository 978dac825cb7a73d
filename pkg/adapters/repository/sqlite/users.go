package sqlite

import (
	"context"
	"database/sql"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
)

const userColumns = `id, email, name, password_hash, created_at`

func scanUser(s scanner) (*domain.User, error) {
	var (
		u         domain.User
		name      sql.NullString
		hash      sql.NullString
		createdAt string
	)
	if err := s.Scan(&u.ID, &u.Email, &name, &hash, &createdAt); err != nil {
		return nil, err
	}
	u.Name = name.String
	u.PasswordHash = hash.String

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		sql.NullString{String: user.Name, Valid: user.Name != ""},
		sql.NullString{String: user.PasswordHash, Valid: user.PasswordHash != ""},
		formatTime(user.CreatedAt),
	)
	return mapError(err)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *SQLiteRepository) UpdateUserName(ctx context.Context, id, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}
