package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claritytracking/clarity-go/internal/metrics"
	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

// MaxBatchSize caps the number of events accepted by AppendBatch.
const MaxBatchSize = 100

// EventService appends client events to a website's event log.
type EventService struct {
	repo *repository.EventRepository
	gate *AccessGateway
	now  func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(repo *repository.EventRepository, gate *AccessGateway) *EventService {
	return &EventService{repo: repo, gate: gate, now: time.Now}
}

// Append validates and stores a single event. Repeated event_ids are stored
// as-is; duplicates are detected when the log is read.
func (s *EventService) Append(ctx context.Context, userID, websiteID int64, req model.EventRequest) (*model.EventLog, error) {
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return nil, err
	}

	e, err := buildEvent(websiteID, req, s.now(), "")
	if err != nil {
		metrics.EventsRejected.Inc()
		return nil, err
	}

	if err := s.repo.Append(ctx, &e); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	metrics.EventsIngested.WithLabelValues("single").Inc()
	return &e, nil
}

// AppendBatch validates every event first and then stores them all in one
// transaction. A single invalid event rejects the whole batch.
func (s *EventService) AppendBatch(ctx context.Context, userID, websiteID int64, reqs []model.EventRequest) ([]model.EventLog, error) {
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return nil, err
	}

	if len(reqs) == 0 {
		return nil, invalid("events", "must contain at least one event")
	}
	if len(reqs) > MaxBatchSize {
		return nil, invalid("events", "at most %d events per batch", MaxBatchSize)
	}

	now := s.now()
	events := make([]model.EventLog, 0, len(reqs))
	for i, req := range reqs {
		e, err := buildEvent(websiteID, req, now, fmt.Sprintf("events[%d].", i))
		if err != nil {
			metrics.EventsRejected.Inc()
			return nil, err
		}
		events = append(events, e)
	}

	if err := s.repo.AppendBatch(ctx, events); err != nil {
		return nil, fmt.Errorf("append batch: %w", err)
	}

	metrics.EventsIngested.WithLabelValues("batch").Add(float64(len(events)))
	return events, nil
}

// buildEvent checks the required fields and truncates oversized free text.
// prefix qualifies field names in validation errors.
func buildEvent(websiteID int64, req model.EventRequest, now time.Time, prefix string) (model.EventLog, error) {
	name := strings.TrimSpace(req.EventName)
	if name == "" {
		return model.EventLog{}, invalid(prefix+"event_name", "required")
	}
	if utf8.RuneCountInString(name) > model.MaxEventNameLen {
		return model.EventLog{}, invalid(prefix+"event_name", "max length %d", model.MaxEventNameLen)
	}
	if req.EventTime == nil || req.EventTime.IsZero() {
		return model.EventLog{}, invalid(prefix+"event_time", "required")
	}
	if req.EventTime.Before(model.MinEventTime) || req.EventTime.After(model.MaxEventTime) {
		return model.EventLog{}, invalid(prefix+"event_time", "must be between 1970-01-01 and 9999-12-31")
	}

	var eventID *string
	if req.EventID != nil {
		id := strings.TrimSpace(*req.EventID)
		if utf8.RuneCountInString(id) > model.MaxEventIDLen {
			return model.EventLog{}, invalid(prefix+"event_id", "max length %d", model.MaxEventIDLen)
		}
		if id != "" {
			eventID = &id
		}
	}

	return model.EventLog{
		WebsiteID:      websiteID,
		ReceivedAt:     now,
		EventID:        eventID,
		EventName:      name,
		EventTime:      req.EventTime.Time,
		EventSourceURL: optionalText(req.EventSourceURL, model.MaxEventSourceURLLen),
		UserIPAddress:  optionalText(req.UserIPAddress, model.MaxIPAddressLen),
		UserAgent:      optionalText(req.UserAgent, model.MaxUserAgentLen),
		FBP:            optionalText(req.FBP, model.MaxFBPLen),
		FBC:            optionalText(req.FBC, model.MaxFBCLen),
		Email:          optionalText(req.Email, model.MaxEmailLen),
		Phone:          optionalText(req.Phone, model.MaxPhoneLen),
		Value:          req.Value,
		Currency:       optionalText(req.Currency, model.MaxCurrencyLen),
	}, nil
}
