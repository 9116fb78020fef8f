package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claritytracking/clarity-go/internal/config"
	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

// fakeHasher stores passwords reversibly so tests skip argon2 cost.
type fakeHasher struct {
	verifies atomic.Int32
	fail     bool
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.fail {
		return "", errors.New("hasher unavailable")
	}
	return "fake$" + password, nil
}

func (h *fakeHasher) Verify(password, encodedHash string) (bool, error) {
	h.verifies.Add(1)
	return encodedHash == "fake$"+password, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID int64) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

func (fakeTokens) Validate(token string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(token, "token-"), 10, 64)
}

// staticPolicy serves a fixed policy.
type staticPolicy struct{ p *config.HealthPolicy }

func (s staticPolicy) Policy() *config.HealthPolicy { return s.p }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "clarity.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

	db, err := repository.NewDB(repository.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := repository.Migrate(context.Background(), db, repository.DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// fixture wires every service against one database.
type fixture struct {
	db       *sql.DB
	hasher   *fakeHasher
	auth     *AuthService
	gate     *AccessGateway
	websites *WebsiteService
	events   *EventService
	health   *HealthService
	waitlist *WaitlistService
	policy   *config.HealthPolicy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	users := repository.NewUserRepository(db)
	sites := repository.NewWebsiteRepository(db)
	events := repository.NewEventRepository(db)
	gate := NewAccessGateway(sites)
	policy := config.DefaultHealthPolicy()
	hasher := &fakeHasher{}

	return &fixture{
		db:       db,
		hasher:   hasher,
		auth:     NewAuthService(users, hasher, fakeTokens{}),
		gate:     gate,
		websites: NewWebsiteService(sites, gate),
		events:   NewEventService(events, gate),
		health:   NewHealthService(events, gate, staticPolicy{policy}),
		waitlist: NewWaitlistService(repository.NewWaitlistRepository(db)),
		policy:   policy,
	}
}

// setClock pins every service to now.
func (f *fixture) setClock(now time.Time) {
	clock := func() time.Time { return now }
	f.auth.now = clock
	f.websites.now = clock
	f.events.now = clock
	f.health.now = clock
	f.waitlist.now = clock
}

func (f *fixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), model.CreateUserRequest{Email: email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return u
}

func (f *fixture) website(t *testing.T, ownerID int64) int64 {
	t.Helper()
	w, err := f.websites.Create(context.Background(), ownerID, model.WebsiteRequest{URL: "https://shop.example.com", Name: "Shop"})
	if err != nil {
		t.Fatalf("Create website: %v", err)
	}
	return w.ID
}

func strPtr(s string) *string { return &s }

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError for %s, got %v", field, err)
	}
	if verr.Field != field {
		t.Fatalf("validation field = %q, want %q", verr.Field, field)
	}
}
