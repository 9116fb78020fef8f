package model

import "time"

// WaitlistEntry represents a waitlist signup in the database.
type WaitlistEntry struct {
	ID          int64
	Email       string
	Source      *string
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	Referer     *string
	UserAgent   string
	IPAddress   string
	CreatedAt   time.Time
}

// WaitlistRequest is the signup payload. JSON key matching is case-insensitive,
// so webhooks posting "Email" decode into Email as well.
type WaitlistRequest struct {
	Email       string  `json:"email"`
	Source      *string `json:"source"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	Referer     *string `json:"referer"`
}

// WaitlistResponse is returned after a signup, whether new or existing.
type WaitlistResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
