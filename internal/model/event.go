package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column limits for event_logs. Free-text fields are truncated to these
// lengths on ingestion; event_name and event_id are rejected instead.
const (
	MaxEventNameLen      = 100
	MaxEventIDLen        = 100
	MaxEventSourceURLLen = 2048
	MaxIPAddressLen      = 64
	MaxUserAgentLen      = 512
	MaxFBPLen            = 100
	MaxFBCLen            = 255
	MaxEmailLen          = 255
	MaxPhoneLen          = 100
	MaxCurrencyLen       = 10
)

// EventLog is a raw client event. Rows are append-only.
type EventLog struct {
	ID             int64
	WebsiteID      int64
	ReceivedAt     time.Time
	EventID        *string
	EventName      string
	EventTime      time.Time
	EventSourceURL *string
	UserIPAddress  *string
	UserAgent      *string
	FBP            *string
	FBC            *string
	Email          *string
	Phone          *string
	Value          decimal.NullDecimal
	Currency       *string
}

// EventRequest is a single event as posted by a tracking snippet or server.
type EventRequest struct {
	EventID        *string             `json:"event_id"`
	EventName      string              `json:"event_name"`
	EventTime      *EventTime          `json:"event_time"`
	EventSourceURL *string             `json:"event_source_url"`
	UserIPAddress  *string             `json:"user_ip_address"`
	UserAgent      *string             `json:"user_agent"`
	FBP            *string             `json:"fbp"`
	FBC            *string             `json:"fbc"`
	Email          *string             `json:"email"`
	Phone          *string             `json:"phone"`
	Value          decimal.NullDecimal `json:"value"`
	Currency       *string             `json:"currency"`
}

// EventBatchRequest wraps a bulk ingestion payload.
type EventBatchRequest struct {
	Events []EventRequest `json:"events"`
}

// EventLogResponse is the acknowledgement returned for an ingested event.
// Identity fields are deliberately left out.
type EventLogResponse struct {
	ID         int64     `json:"id"`
	WebsiteID  int64     `json:"website_id"`
	ReceivedAt time.Time `json:"received_at"`
	EventID    *string   `json:"event_id"`
	EventName  string    `json:"event_name"`
	EventTime  time.Time `json:"event_time"`
}

// ToResponse converts an event log row to its acknowledgement shape.
func (e *EventLog) ToResponse() EventLogResponse {
	return EventLogResponse{
		ID:         e.ID,
		WebsiteID:  e.WebsiteID,
		ReceivedAt: e.ReceivedAt,
		EventID:    e.EventID,
		EventName:  e.EventName,
		EventTime:  e.EventTime,
	}
}

// EventSummary is the latest-per-event-name fact for a window.
type EventSummary struct {
	EventName      string
	LastReceivedAt time.Time
	EventCount     int64
	Sample         EventLog
}

// EventSummaryResponse is the API shape of an EventSummary.
type EventSummaryResponse struct {
	EventName      string    `json:"event_name"`
	LastReceivedAt time.Time `json:"last_received_at"`
	EventCount     int64     `json:"event_count"`
	SampleID       int64     `json:"sample_id"`
	SampleEventID  *string   `json:"sample_event_id"`
}

// DuplicateEvent is an event_id seen more than once in a window.
type DuplicateEvent struct {
	EventID string `json:"event_id"`
	Count   int64  `json:"count"`
}

// Health statuses.
const (
	StatusHealthy = "healthy"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Alert severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// EventHealth represents the health status of a specific event type.
type EventHealth struct {
	EventName    string     `json:"event_name"`
	Score        float64    `json:"emq_score"`
	LastReceived *time.Time `json:"last_received"`
	Status       string     `json:"status"`
}

// EventAlert represents a specific health alert for the dashboard.
type EventAlert struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
