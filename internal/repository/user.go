package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/claritytracking/clarity-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository handles user and credential persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithCredential inserts the user row and its user_auth row in a single
// transaction and sets the generated ID on the user struct. Either both rows
// are committed or neither is.
func (r *UserRepository) CreateWithCredential(ctx context.Context, user *model.User, passwordHash string) error {
	user.RegisteredAt = dbTime(user.RegisteredAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, name, registered_at) VALUES (?, ?, ?)`,
		user.Email, user.Name, user.RegisteredAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_auth (user_id, password_hash) VALUES (?, ?)`,
		id, passwordHash,
	); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	user.ID = id
	return nil
}

// GetCredentialByEmail retrieves a user together with its password hash.
func (r *UserRepository) GetCredentialByEmail(ctx context.Context, email string) (*model.User, *model.Credential, error) {
	query := `SELECT u.id, u.email, u.name, u.registered_at, a.password_hash
		FROM users u JOIN user_auth a ON a.user_id = u.id
		WHERE u.email = ?`

	user := &model.User{}
	cred := &model.Credential{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.RegisteredAt, &cred.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	cred.UserID = user.ID
	return user, cred, nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, email, name, registered_at FROM users WHERE email = ?`

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, email, name, registered_at FROM users WHERE id = ?`

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// cascadeDeletes removes everything a user owns, children first.
var cascadeDeletes = []string{
	`DELETE FROM event_logs WHERE website_id IN (SELECT id FROM websites WHERE user_id = ?)`,
	`DELETE FROM connections WHERE website_id IN (SELECT id FROM websites WHERE user_id = ?)`,
	`DELETE FROM websites WHERE user_id = ?`,
	`DELETE FROM user_auth WHERE user_id = ?`,
	`DELETE FROM users WHERE id = ?`,
}

// Delete removes a user and all of its websites, connections, event logs and
// credential in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted int64
	for _, stmt := range cascadeDeletes {
		result, err := tx.ExecContext(ctx, stmt, id)
		if err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
	}
	if deleted == 0 {
		return ErrUserNotFound
	}

	return tx.Commit()
}
