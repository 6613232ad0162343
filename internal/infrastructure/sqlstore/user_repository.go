package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/repository"
)

const userColumns = `id, username, first_name, last_name, bio, bicycles, gpa,
		birth_date, account_expiration, earthling, created_at, updated_at`

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (username, first_name, last_name, bio, bicycles, gpa,
			birth_date, account_expiration, earthling, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		NullString(user.Username),
		NullString(user.FirstName),
		NullString(user.LastName),
		NullString(user.Bio),
		NullInt64(user.Bicycles),
		NullFloat64(user.GPA),
		NullTime(user.BirthDate),
		NullTime(user.AccountExpiration),
		NullBool(user.Earthling),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	normalizeLoaded(&user)
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := r.db.Rebind(`
		UPDATE users
		SET username = ?, first_name = ?, last_name = ?, bio = ?, bicycles = ?, gpa = ?,
			birth_date = ?, account_expiration = ?, earthling = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		NullString(user.Username),
		NullString(user.FirstName),
		NullString(user.LastName),
		NullString(user.Bio),
		NullInt64(user.Bicycles),
		NullFloat64(user.GPA),
		NullTime(user.BirthDate),
		NullTime(user.AccountExpiration),
		NullBool(user.Earthling),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", user.ID, repository.ErrNotFound)
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM users WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}

	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`

	users := []*domain.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		normalizeLoaded(u)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// normalizeLoaded puts time values read back from the driver into UTC.
func normalizeLoaded(u *domain.User) {
	u.UserFields = u.UserFields.Normalize()
	u.CreatedAt = domain.Timestamp(u.CreatedAt)
	u.UpdatedAt = domain.Timestamp(u.UpdatedAt)
}
