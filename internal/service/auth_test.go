package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/claritytracking/clarity-go/internal/model"
)

func TestRegisterNormalizesInput(t *testing.T) {
	f := newFixture(t)

	u, err := f.auth.Register(context.Background(), model.CreateUserRequest{
		Email:    "  Ada.Lovelace@Example.COM ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ada.lovelace@example.com" {
		t.Errorf("email = %q", u.Email)
	}
	if u.Name != model.DefaultUserName {
		t.Errorf("name = %q, want default", u.Name)
	}

	named, err := f.auth.Register(context.Background(), model.CreateUserRequest{
		Email:    "grace@example.com",
		Password: "correct-horse",
		Name:     strPtr("  Grace Hopper "),
	})
	if err != nil {
		t.Fatalf("Register named: %v", err)
	}
	if named.Name != "Grace Hopper" {
		t.Errorf("name = %q, want trimmed", named.Name)
	}
}

func TestRegisterRejectsCaseVariantOfExistingEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.auth.Register(ctx, model.CreateUserRequest{Email: "A@Example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := f.auth.Register(ctx, model.CreateUserRequest{Email: "a@example.com", Password: "another-pass"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if n := countRows(t, f.db, "users"); n != 1 {
		t.Fatalf("users = %d, want 1", n)
	}
	if n := countRows(t, f.db, "user_auth"); n != 1 {
		t.Fatalf("user_auth = %d, want 1", n)
	}
}

func TestRegisterOneCredentialPerUser(t *testing.T) {
	f := newFixture(t)

	emails := []string{"a@example.com", "b@example.com", "c@example.org", "d+tag@example.net"}
	for _, e := range emails {
		f.register(t, e)
	}

	if n := countRows(t, f.db, "users"); n != len(emails) {
		t.Fatalf("users = %d, want %d", n, len(emails))
	}
	var orphans int
	err := f.db.QueryRow(`SELECT COUNT(*) FROM users u LEFT JOIN user_auth a ON a.user_id = u.id WHERE a.user_id IS NULL`).Scan(&orphans)
	if err != nil {
		t.Fatalf("orphan query: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("%d users without credential", orphans)
	}
	if n := countRows(t, f.db, "user_auth"); n != len(emails) {
		t.Fatalf("user_auth = %d, want %d", n, len(emails))
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   model.CreateUserRequest
		field string
	}{
		{"missing email", model.CreateUserRequest{Password: "correct-horse"}, "email"},
		{"malformed email", model.CreateUserRequest{Email: "not-an-email", Password: "correct-horse"}, "email"},
		{"display name form", model.CreateUserRequest{Email: "Ada <ada@example.com>", Password: "correct-horse"}, "email"},
		{"short password", model.CreateUserRequest{Email: "ada@example.com", Password: "short"}, "password"},
		{"blank name", model.CreateUserRequest{Email: "ada@example.com", Password: "correct-horse", Name: strPtr("   ")}, "name"},
		{"long name", model.CreateUserRequest{Email: "ada@example.com", Password: "correct-horse", Name: strPtr(strings.Repeat("n", 101))}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.auth.Register(context.Background(), tt.req)
			assertValidation(t, err, tt.field)
			if n := countRows(t, f.db, "users"); n != 0 {
				t.Fatalf("users = %d after rejected registration", n)
			}
		})
	}
}

func TestRegisterHasherFailure(t *testing.T) {
	f := newFixture(t)
	f.hasher.fail = true

	_, err := f.auth.Register(context.Background(), model.CreateUserRequest{Email: "ada@example.com", Password: "correct-horse"})
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrEmailTaken) {
		t.Fatalf("hasher failure should be an internal error, got %v", err)
	}
	if n := countRows(t, f.db, "users"); n != 0 {
		t.Fatalf("users = %d, want 0", n)
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "ada@example.com")

	resp, err := f.auth.Login(context.Background(), model.LoginRequest{Email: " ADA@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q", resp.TokenType)
	}
	id, err := fakeTokens{}.Validate(resp.AccessToken)
	if err != nil || id != u.ID {
		t.Fatalf("token subject = %d, %v; want %d", id, err, u.ID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada@example.com")
	ctx := context.Background()

	_, wrongPassword := f.auth.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	before := f.hasher.verifies.Load()
	_, unknownEmail := f.auth.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
	if f.hasher.verifies.Load() != before+1 {
		t.Fatal("unknown email should still run a password verification")
	}
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "ada@example.com")

	got, err := f.auth.CurrentUser(context.Background(), u.ID)
	if err != nil || got.Email != "ada@example.com" {
		t.Fatalf("CurrentUser = %+v, %v", got, err)
	}

	if _, err := f.auth.CurrentUser(context.Background(), u.ID+1); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}
