package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/claritytracking/clarity-go/internal/model"
)

// EventRepository owns the append-only event log and the aggregation queries
// that read it.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const insertEventQuery = `
	INSERT INTO event_logs (
		website_id, received_at, event_id, event_name, event_time, event_source_url,
		user_ip_address, user_agent, fbp, fbc, email, phone, value, currency
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// eventColumns is the column list scanned by scanEvent, prefixed with alias e.
const eventColumns = `e.id, e.website_id, e.received_at, e.event_id, e.event_name, e.event_time,
	e.event_source_url, e.user_ip_address, e.user_agent, e.fbp, e.fbc, e.email, e.phone,
	e.value, e.currency`

// Append inserts a single event. There is no deduplication: the same
// event_id may be stored any number of times.
func (r *EventRepository) Append(ctx context.Context, e *model.EventLog) error {
	return insertEvent(ctx, r.db, e)
}

// AppendBatch inserts all events in one transaction. On error nothing is
// stored.
func (r *EventRepository) AppendBatch(ctx context.Context, events []model.EventLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range events {
		if err := insertEvent(ctx, tx, &events[i]); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertEvent(ctx context.Context, db execer, e *model.EventLog) error {
	e.ReceivedAt = dbTime(e.ReceivedAt)
	e.EventTime = dbTime(e.EventTime)

	result, err := db.ExecContext(ctx, insertEventQuery,
		e.WebsiteID, e.ReceivedAt, e.EventID, e.EventName, e.EventTime, e.EventSourceURL,
		e.UserIPAddress, e.UserAgent, e.FBP, e.FBC, e.Email, e.Phone, e.Value, e.Currency,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	e.ID = id
	return nil
}

// summarizeQuery groups the window by event_name, then joins back to pick a
// sample row: the highest id among the rows carrying the group's latest
// received_at. The sample's received_at is the group's last_received_at.
const summarizeQuery = `
	SELECT l.event_name, l.event_count, ` + eventColumns + `
	FROM (
		SELECT g.event_name, g.event_count, MAX(x.id) AS sample_id
		FROM (
			SELECT event_name, MAX(received_at) AS last_received_at, COUNT(*) AS event_count
			FROM event_logs
			WHERE website_id = ? AND received_at >= ? AND received_at <= ?
			GROUP BY event_name
		) g
		JOIN event_logs x
			ON x.website_id = ? AND x.event_name = g.event_name AND x.received_at = g.last_received_at
		GROUP BY g.event_name, g.event_count
	) l
	JOIN event_logs e ON e.id = l.sample_id
	ORDER BY l.event_name`

// Summarize returns one row per distinct event_name received for the website
// in [from, to], with its latest timestamp, count and sample event.
func (r *EventRepository) Summarize(ctx context.Context, websiteID int64, from, to time.Time) ([]model.EventSummary, error) {
	rows, err := r.db.QueryContext(ctx, summarizeQuery, websiteID, dbTime(from), dbTime(to), websiteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.EventSummary
	for rows.Next() {
		var s model.EventSummary
		dest := append([]any{&s.EventName, &s.EventCount}, eventDest(&s.Sample)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		s.LastReceivedAt = s.Sample.ReceivedAt
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

const duplicatesQuery = `
	SELECT event_id, COUNT(*) AS cnt
	FROM event_logs
	WHERE website_id = ? AND event_id IS NOT NULL AND received_at >= ? AND received_at <= ?
	GROUP BY event_id
	HAVING COUNT(*) > 1
	ORDER BY cnt DESC, event_id`

// FindDuplicates returns every non-null event_id that occurs more than once
// for the website in [from, to], most frequent first.
func (r *EventRepository) FindDuplicates(ctx context.Context, websiteID int64, from, to time.Time) ([]model.DuplicateEvent, error) {
	rows, err := r.db.QueryContext(ctx, duplicatesQuery, websiteID, dbTime(from), dbTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dups []model.DuplicateEvent
	for rows.Next() {
		var d model.DuplicateEvent
		if err := rows.Scan(&d.EventID, &d.Count); err != nil {
			return nil, err
		}
		dups = append(dups, d)
	}

	return dups, rows.Err()
}

func eventDest(e *model.EventLog) []any {
	return []any{
		&e.ID, &e.WebsiteID, &e.ReceivedAt, &e.EventID, &e.EventName, &e.EventTime,
		&e.EventSourceURL, &e.UserIPAddress, &e.UserAgent, &e.FBP, &e.FBC, &e.Email, &e.Phone,
		&e.Value, &e.Currency,
	}
}
