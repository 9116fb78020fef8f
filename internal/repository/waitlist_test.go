package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claritytracking/clarity-go/internal/model"
)

func TestWaitlistCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	entry := &model.WaitlistEntry{
		Email:     "lead@example.com",
		Source:    strPtr("framer"),
		UTMSource: strPtr("newsletter"),
		UserAgent: "curl/8.0",
		IPAddress: "198.51.100.4",
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "lead@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != entry.ID || *got.Source != "framer" || *got.UTMSource != "newsletter" || got.UTMMedium != nil {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.UserAgent != "curl/8.0" || got.IPAddress != "198.51.100.4" {
		t.Fatalf("request metadata not stored: %+v", got)
	}

	if _, err := repo.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrWaitlistEntryNotFound) {
		t.Fatalf("expected ErrWaitlistEntryNotFound, got %v", err)
	}
}

func TestWaitlistConcurrentDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewWaitlistRepository(db)

	const callers = 8
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dups    atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), &model.WaitlistEntry{Email: "race@example.com", CreatedAt: time.Now()})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrDuplicateEmail):
				dups.Add(1)
			default:
				t.Errorf("Create: %v", err)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 || dups.Load() != callers-1 {
		t.Fatalf("created=%d duplicates=%d, want 1 and %d", created.Load(), dups.Load(), callers-1)
	}
	if n := countRows(t, db, "waitlist"); n != 1 {
		t.Fatalf("waitlist = %d, want 1", n)
	}
}
