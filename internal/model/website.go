package model

import "time"

// Supported ad platforms for a connection.
const (
	PlatformMeta    = "meta"
	PlatformShopify = "shopify"
	PlatformTikTok  = "tiktok"
)

// ValidPlatform reports whether p is one of the supported platforms.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformMeta, PlatformShopify, PlatformTikTok:
		return true
	}
	return false
}

// Website is a tracked site owned by exactly one user.
type Website struct {
	ID        int64
	UserID    int64
	URL       string
	Name      string
	CreatedAt time.Time
}

// Connection links a website to an ad platform.
// EncryptedAccessToken never leaves the repository/service layers.
type Connection struct {
	ID                   int64
	WebsiteID            int64
	Platform             string
	PlatformIdentifiers  map[string]any
	EncryptedAccessToken *string
	IsActive             bool
	CreatedAt            time.Time
}

// WebsiteRequest represents a website creation request.
type WebsiteRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ConnectionRequest represents a connection creation request.
type ConnectionRequest struct {
	Platform            string         `json:"platform"`
	PlatformIdentifiers map[string]any `json:"platform_identifiers"`
}

// ConnectionResponse represents connection details returned by the API.
type ConnectionResponse struct {
	ID                  int64          `json:"id"`
	Platform            string         `json:"platform"`
	PlatformIdentifiers map[string]any `json:"platform_identifiers"`
	IsActive            bool           `json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
}

// WebsiteResponse represents a website together with its connections.
type WebsiteResponse struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"user_id"`
	URL         string               `json:"url"`
	Name        string               `json:"name"`
	CreatedAt   time.Time            `json:"created_at"`
	Connections []ConnectionResponse `json:"connections"`
}

// ToResponse converts a connection to its API shape.
func (c *Connection) ToResponse() ConnectionResponse {
	ids := c.PlatformIdentifiers
	if ids == nil {
		ids = map[string]any{}
	}
	return ConnectionResponse{
		ID:                  c.ID,
		Platform:            c.Platform,
		PlatformIdentifiers: ids,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
	}
}
