package repository

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/claritytracking/clarity-go/internal/model"
)

func strPtr(s string) *string { return &s }

func appendEvent(t *testing.T, repo *EventRepository, websiteID int64, name string, eventID *string, receivedAt time.Time) *model.EventLog {
	t.Helper()
	e := &model.EventLog{
		WebsiteID:  websiteID,
		ReceivedAt: receivedAt,
		EventID:    eventID,
		EventName:  name,
		EventTime:  receivedAt.Add(-time.Second),
	}
	if err := repo.Append(context.Background(), e); err != nil {
		t.Fatalf("Append %s: %v", name, err)
	}
	return e
}

func TestAppendStoresAllFields(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now()

	e := &model.EventLog{
		WebsiteID:      siteID,
		ReceivedAt:     now,
		EventID:        strPtr("evt-1"),
		EventName:      "Purchase",
		EventTime:      now.Add(-time.Minute),
		EventSourceURL: strPtr("https://shop.example.com/checkout"),
		UserIPAddress:  strPtr("203.0.113.7"),
		UserAgent:      strPtr("Mozilla/5.0"),
		FBP:            strPtr("fb.1.1700000000.123"),
		FBC:            strPtr("fb.1.1700000000.abc"),
		Email:          strPtr("hashed-email"),
		Phone:          strPtr("hashed-phone"),
		Value:          decimal.NewNullDecimal(decimal.RequireFromString("19.99")),
		Currency:       strPtr("USD"),
	}
	if err := repo.Append(context.Background(), e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	summaries, err := repo.Summarize(context.Background(), siteID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	got := summaries[0].Sample
	if got.ID != e.ID || *got.EventID != "evt-1" || *got.Email != "hashed-email" || *got.Currency != "USD" {
		t.Fatalf("unexpected sample: %+v", got)
	}
	if !got.Value.Valid || !got.Value.Decimal.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("value = %v, want 19.99", got.Value)
	}
	if !got.EventTime.Equal(e.EventTime) || !got.ReceivedAt.Equal(e.ReceivedAt) {
		t.Fatalf("times not preserved: %v %v", got.EventTime, got.ReceivedAt)
	}
}

func TestAppendAllowsRepeatedEventIDs(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := &model.EventLog{WebsiteID: siteID, ReceivedAt: now, EventID: strPtr("retry"), EventName: "Lead", EventTime: now}
			if err := repo.Append(context.Background(), e); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := countRows(t, db, "event_logs"); n != 5 {
		t.Fatalf("event_logs = %d, want 5", n)
	}
}

func TestAppendBatch(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now()

	batch := []model.EventLog{
		{WebsiteID: siteID, ReceivedAt: now, EventName: "PageView", EventTime: now},
		{WebsiteID: siteID, ReceivedAt: now, EventName: "Lead", EventTime: now},
	}
	if err := repo.AppendBatch(context.Background(), batch); err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}
	if batch[0].ID == 0 || batch[1].ID == 0 || batch[0].ID == batch[1].ID {
		t.Fatalf("expected distinct generated IDs, got %d and %d", batch[0].ID, batch[1].ID)
	}

	bad := []model.EventLog{
		{WebsiteID: siteID, ReceivedAt: now, EventName: "PageView", EventTime: now},
		{WebsiteID: siteID + 999, ReceivedAt: now, EventName: "Orphan", EventTime: now},
	}
	if err := repo.AppendBatch(context.Background(), bad); err == nil {
		t.Fatal("expected foreign key failure")
	}
	if n := countRows(t, db, "event_logs"); n != 2 {
		t.Fatalf("event_logs = %d, want 2 after failed batch", n)
	}
}

func TestSummarizeLatestPerEventName(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	_, otherSite := seedWebsite(t, db, "other@example.com")
	repo := NewEventRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	appendEvent(t, repo, siteID, "PageView", nil, now.Add(-2*time.Hour))
	latest := appendEvent(t, repo, siteID, "PageView", strPtr("pv-latest"), now.Add(-5*time.Minute))
	purchase := appendEvent(t, repo, siteID, "Purchase", strPtr("order-1"), now.Add(-30*time.Minute))
	appendEvent(t, repo, otherSite, "AddToCart", nil, now.Add(-time.Minute))

	got, err := repo.Summarize(context.Background(), siteID, now.Add(-72*time.Hour), now)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(got), got)
	}

	pv, pu := got[0], got[1]
	if pv.EventName != "PageView" || !pv.LastReceivedAt.Equal(now.Add(-5*time.Minute)) || pv.EventCount != 2 {
		t.Fatalf("unexpected PageView group: %+v", pv)
	}
	if pv.Sample.ID != latest.ID {
		t.Fatalf("PageView sample = %d, want %d", pv.Sample.ID, latest.ID)
	}
	if pu.EventName != "Purchase" || !pu.LastReceivedAt.Equal(now.Add(-30*time.Minute)) || pu.EventCount != 1 {
		t.Fatalf("unexpected Purchase group: %+v", pu)
	}
	if pu.Sample.ID != purchase.ID {
		t.Fatalf("Purchase sample = %d, want %d", pu.Sample.ID, purchase.ID)
	}
}

func TestSummarizeTieBreaksOnHighestID(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	at := now.Add(-time.Minute)

	appendEvent(t, repo, siteID, "Lead", strPtr("a"), at)
	second := appendEvent(t, repo, siteID, "Lead", strPtr("b"), at)

	got, err := repo.Summarize(context.Background(), siteID, now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(got) != 1 || got[0].EventCount != 2 || got[0].Sample.ID != second.ID {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestFindDuplicates(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	_, otherSite := seedWebsite(t, db, "other@example.com")
	repo := NewEventRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, id := range []*string{strPtr("e1"), strPtr("e1"), strPtr("e2"), nil, nil} {
		appendEvent(t, repo, siteID, "Purchase", id, now.Add(-10*time.Minute))
	}
	appendEvent(t, repo, otherSite, "Purchase", strPtr("e2"), now.Add(-10*time.Minute))

	got, err := repo.FindDuplicates(context.Background(), siteID, now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	want := []model.DuplicateEvent{{EventID: "e1", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindDuplicates = %+v, want %+v", got, want)
	}
}

func TestFindDuplicatesOrdering(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, id := range []string{"b", "b", "a", "a", "c", "c", "c"} {
		appendEvent(t, repo, siteID, "Lead", strPtr(id), now.Add(-time.Minute))
	}

	got, err := repo.FindDuplicates(context.Background(), siteID, now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	want := []model.DuplicateEvent{{EventID: "c", Count: 3}, {EventID: "a", Count: 2}, {EventID: "b", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindDuplicates = %+v, want %+v", got, want)
	}
}

func TestWindowBoundaryIsInclusive(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	from := now.Add(-time.Hour)

	appendEvent(t, repo, siteID, "AtBoundary", strPtr("edge"), from)
	appendEvent(t, repo, siteID, "AtBoundary", strPtr("edge"), from)
	appendEvent(t, repo, siteID, "TooOld", strPtr("old"), from.Add(-time.Microsecond))
	appendEvent(t, repo, siteID, "TooOld", strPtr("old"), from.Add(-time.Microsecond))
	appendEvent(t, repo, siteID, "Future", strPtr("late"), now.Add(time.Second))
	appendEvent(t, repo, siteID, "Future", strPtr("late"), now.Add(time.Second))

	summaries, err := repo.Summarize(context.Background(), siteID, from, now)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 1 || summaries[0].EventName != "AtBoundary" {
		t.Fatalf("Summarize = %+v, want only AtBoundary", summaries)
	}

	dups, err := repo.FindDuplicates(context.Background(), siteID, from, now)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	want := []model.DuplicateEvent{{EventID: "edge", Count: 2}}
	if !reflect.DeepEqual(dups, want) {
		t.Fatalf("FindDuplicates = %+v, want %+v", dups, want)
	}
}

func TestAggregatesEmptyWindow(t *testing.T) {
	db := newTestDB(t)
	_, siteID := seedWebsite(t, db, "owner@example.com")
	repo := NewEventRepository(db)
	now := time.Now()

	summaries, err := repo.Summarize(context.Background(), siteID, now.Add(-time.Hour), now)
	if err != nil || len(summaries) != 0 {
		t.Fatalf("Summarize = %+v, %v", summaries, err)
	}
	dups, err := repo.FindDuplicates(context.Background(), siteID, now.Add(-time.Hour), now)
	if err != nil || len(dups) != 0 {
		t.Fatalf("FindDuplicates = %+v, %v", dups, err)
	}
}
