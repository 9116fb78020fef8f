package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/claritytracking/clarity-go/internal/model"
)

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/register", "", map[string]any{
		"email": "A@Example.com", "password": "correct-horse", "name": " Ada ",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
	}
	user := decode[model.UserResponse](t, rec)
	if user.Email != "a@example.com" || user.Name != "Ada" || user.ID == 0 {
		t.Fatalf("unexpected user: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("response leaks password material")
	}

	rec = s.do(http.MethodPost, "/api/register", "", map[string]any{"email": "a@example.com", "password": "other-pass"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register = %d, want 400", rec.Code)
	}
	if got := errorBody(t, rec)["error"]; got != msgEmailTaken {
		t.Fatalf("duplicate message = %q", got)
	}

	rec = s.do(http.MethodPost, "/api/register", "", map[string]any{"email": "b@example.com", "password": "short"})
	if rec.Code != http.StatusBadRequest || errorBody(t, rec)["field"] != "password" {
		t.Fatalf("short password = %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	s.handler.ServeHTTP(bad, req)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d", bad.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	_, userID := s.signup("ada@example.com")

	form := url.Values{"username": {"ADA@example.com"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("form login = %d %s", rec.Code, rec.Body.String())
	}
	tok := decode[model.TokenResponse](t, rec)
	if tok.TokenType != "bearer" {
		t.Fatalf("token_type = %q", tok.TokenType)
	}
	if id, err := s.tokens.Validate(tok.AccessToken); err != nil || id != userID {
		t.Fatalf("token subject = %d, %v", id, err)
	}

	wrong := s.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-password"})
	unknown := s.do(http.MethodPost, "/api/login", "", map[string]string{"email": "nobody@example.com", "password": "correct-horse"})
	for name, rec := range map[string]*httptest.ResponseRecorder{"wrong password": wrong, "unknown email": unknown} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s = %d", name, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("%s: missing WWW-Authenticate", name)
		}
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signup("ada@example.com")

	rec := s.do(http.MethodGet, "/api/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d", rec.Code)
	}
	if me := decode[model.UserResponse](t, rec); me.ID != userID || me.Email != "ada@example.com" {
		t.Fatalf("unexpected me: %+v", me)
	}

	if rec := s.do(http.MethodGet, "/api/users/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/users/me", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me with garbage token = %d", rec.Code)
	}

	ghost, err := s.tokens.Issue(userID + 100)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if rec := s.do(http.MethodGet, "/api/users/me", ghost, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me for missing user = %d, want 401", rec.Code)
	}
}
