package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claritytracking/clarity-go/internal/model"
)

var ErrWebsiteNotFound = errors.New("website not found")

// WebsiteRepository handles websites and their platform connections.
type WebsiteRepository struct {
	db *sql.DB
}

// NewWebsiteRepository creates a new WebsiteRepository.
func NewWebsiteRepository(db *sql.DB) *WebsiteRepository {
	return &WebsiteRepository{db: db}
}

// Create inserts a website and sets the generated ID on the struct.
func (r *WebsiteRepository) Create(ctx context.Context, w *model.Website) error {
	w.CreatedAt = dbTime(w.CreatedAt)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO websites (user_id, url, name, created_at) VALUES (?, ?, ?, ?)`,
		w.UserID, w.URL, w.Name, w.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	w.ID = id
	return nil
}

// GetOwned returns the website only if it belongs to userID. A website owned
// by someone else is reported exactly like a missing one.
func (r *WebsiteRepository) GetOwned(ctx context.Context, websiteID, userID int64) (*model.Website, error) {
	query := `SELECT id, user_id, url, name, created_at FROM websites WHERE id = ? AND user_id = ?`

	w := &model.Website{}
	err := r.db.QueryRowContext(ctx, query, websiteID, userID).Scan(
		&w.ID, &w.UserID, &w.URL, &w.Name, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWebsiteNotFound
		}
		return nil, err
	}

	return w, nil
}

// ListByUser retrieves all websites owned by a user, oldest first.
func (r *WebsiteRepository) ListByUser(ctx context.Context, userID int64) ([]model.Website, error) {
	query := `SELECT id, user_id, url, name, created_at FROM websites WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var websites []model.Website
	for rows.Next() {
		var w model.Website
		if err := rows.Scan(&w.ID, &w.UserID, &w.URL, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		websites = append(websites, w)
	}

	return websites, rows.Err()
}

// CreateConnection inserts a platform connection for a website.
func (r *WebsiteRepository) CreateConnection(ctx context.Context, c *model.Connection) error {
	c.CreatedAt = dbTime(c.CreatedAt)

	ids := c.PlatformIdentifiers
	if ids == nil {
		ids = map[string]any{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode platform identifiers: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO connections (website_id, platform, platform_identifiers, encrypted_access_token, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.WebsiteID, c.Platform, string(raw), c.EncryptedAccessToken, c.IsActive, c.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	c.ID = id
	return nil
}

// ConnectionsByWebsite fetches the connections of all given websites in one
// query, keyed by website ID.
func (r *WebsiteRepository) ConnectionsByWebsite(ctx context.Context, websiteIDs []int64) (map[int64][]model.Connection, error) {
	out := make(map[int64][]model.Connection, len(websiteIDs))
	if len(websiteIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(websiteIDs))
	for i, id := range websiteIDs {
		args[i] = id
	}

	query := `SELECT id, website_id, platform, platform_identifiers, encrypted_access_token, is_active, created_at
		FROM connections WHERE website_id IN (` + placeholders(len(websiteIDs)) + `) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c   model.Connection
			raw []byte
		)
		if err := rows.Scan(
			&c.ID, &c.WebsiteID, &c.Platform, &raw,
			&c.EncryptedAccessToken, &c.IsActive, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &c.PlatformIdentifiers); err != nil {
			return nil, fmt.Errorf("decode platform identifiers of connection %d: %w", c.ID, err)
		}
		out[c.WebsiteID] = append(out[c.WebsiteID], c)
	}

	return out, rows.Err()
}
