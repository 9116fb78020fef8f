package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/claritytracking/clarity-go/internal/metrics"
	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

const (
	maxCampaignFieldLen = 100
	maxRefererLen       = 2048
	maxUserAgentLen     = 512
	maxIPAddressLen     = 64
)

// WaitlistService records pre-launch signups.
type WaitlistService struct {
	repo *repository.WaitlistRepository
	now  func() time.Time
}

// NewWaitlistService creates a new WaitlistService.
func NewWaitlistService(repo *repository.WaitlistRepository) *WaitlistService {
	return &WaitlistService{repo: repo, now: time.Now}
}

// Join adds the email to the waitlist, or returns the existing entry when the
// email is already on it. created reports which of the two happened.
func (s *WaitlistService) Join(ctx context.Context, req model.WaitlistRequest, ipAddress, userAgent string) (entry *model.WaitlistEntry, created bool, err error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, false, err
	}

	entry = &model.WaitlistEntry{
		Email:       email,
		Source:      optionalText(req.Source, maxCampaignFieldLen),
		UTMSource:   optionalText(req.UTMSource, maxCampaignFieldLen),
		UTMMedium:   optionalText(req.UTMMedium, maxCampaignFieldLen),
		UTMCampaign: optionalText(req.UTMCampaign, maxCampaignFieldLen),
		Referer:     optionalText(req.Referer, maxRefererLen),
		UserAgent:   truncate(userAgent, maxUserAgentLen),
		IPAddress:   truncate(ipAddress, maxIPAddressLen),
		CreatedAt:   s.now(),
	}

	// Insert first and fall back to reading the winner's row, so concurrent
	// signups for one email converge on a single entry.
	err = s.repo.Create(ctx, entry)
	switch {
	case err == nil:
		created = true
	case errors.Is(err, repository.ErrDuplicateEmail):
		entry, err = s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, fmt.Errorf("read existing waitlist entry: %w", err)
		}
	default:
		return nil, false, fmt.Errorf("create waitlist entry: %w", err)
	}

	metrics.WaitlistSignups.WithLabelValues(strconv.FormatBool(created)).Inc()
	return entry, created, nil
}
