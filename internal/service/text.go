package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// truncate shortens s to at most max characters without splitting a rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// optionalText trims an optional free-text field and truncates it to max.
// Blank values become nil.
func optionalText(p *string, max int) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	s = truncate(s, max)
	return &s
}

const maxEmailLen = 255

// normalizeEmail trims and lowercases an address and checks its syntax.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "required")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return "", invalid("email", "max length %d", maxEmailLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "not a valid email address")
	}
	return email, nil
}

// slug turns an event name into an identifier fragment for alert ids.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// humanizeDuration renders d in the coarsest unit that keeps it readable.
func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 48*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
