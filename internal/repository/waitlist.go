package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/claritytracking/clarity-go/internal/model"
)

var ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")

// WaitlistRepository handles waitlist signups.
type WaitlistRepository struct {
	db *sql.DB
}

// NewWaitlistRepository creates a new WaitlistRepository.
func NewWaitlistRepository(db *sql.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Create inserts a signup. An email that is already on the list yields
// ErrDuplicateEmail and leaves the stored row untouched.
func (r *WaitlistRepository) Create(ctx context.Context, e *model.WaitlistEntry) error {
	e.CreatedAt = dbTime(e.CreatedAt)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist (email, source, utm_source, utm_medium, utm_campaign, referer, user_agent, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Email, e.Source, e.UTMSource, e.UTMMedium, e.UTMCampaign, e.Referer, e.UserAgent, e.IPAddress, e.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	e.ID = id
	return nil
}

// GetByEmail retrieves a signup by email.
func (r *WaitlistRepository) GetByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error) {
	query := `SELECT id, email, source, utm_source, utm_medium, utm_campaign, referer, user_agent, ip_address, created_at
		FROM waitlist WHERE email = ?`

	var (
		e         model.WaitlistEntry
		userAgent sql.NullString
		ipAddress sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&e.ID, &e.Email, &e.Source, &e.UTMSource, &e.UTMMedium, &e.UTMCampaign,
		&e.Referer, &userAgent, &ipAddress, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWaitlistEntryNotFound
		}
		return nil, err
	}

	e.UserAgent = userAgent.String
	e.IPAddress = ipAddress.String
	return &e, nil
}
