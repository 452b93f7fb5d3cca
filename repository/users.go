package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// ErrUsernameTaken is returned when registering a username that exists.
var ErrUsernameTaken = errors.New("username already taken")

// CreateUser registers a new user with a bcrypt-hashed password.
func (r *Repository) CreateUser(ctx context.Context, username, password, email string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("insert", "users")

	var user models.User
	err = r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, email)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, created_at
	`, username, string(hash), email).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		observability.GetMetrics().RecordDBError("insert", "users")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername returns a user with their password hash, or nil when
// the username is unknown.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("select", "users")

	var user models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, COALESCE(email, ''), created_at
		FROM users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		observability.GetMetrics().RecordDBError("select", "users")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies a username/password pair and returns the user on
// success. Unknown usernames and wrong passwords both return nil without
// an error, so callers cannot distinguish the two.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := r.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}
