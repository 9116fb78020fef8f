package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claritytracking/clarity-go/internal/config"
	"github.com/claritytracking/clarity-go/internal/metrics"
	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

// Bounds for caller-supplied aggregation windows.
const (
	MaxSummaryWindow   = 90 * 24 * time.Hour
	MaxDuplicateWindow = 7 * 24 * time.Hour
)

// PolicySource supplies the current health classification policy.
type PolicySource interface {
	Policy() *config.HealthPolicy
}

// HealthService runs the event log aggregations and layers the health
// classification policy on top of them.
type HealthService struct {
	repo   *repository.EventRepository
	gate   *AccessGateway
	policy PolicySource
	now    func() time.Time
}

// NewHealthService creates a new HealthService.
func NewHealthService(repo *repository.EventRepository, gate *AccessGateway, policy PolicySource) *HealthService {
	return &HealthService{repo: repo, gate: gate, policy: policy, now: time.Now}
}

// Summarize returns the latest event per event name received in the trailing
// window. A zero window means the policy's summary window.
func (s *HealthService) Summarize(ctx context.Context, userID, websiteID int64, window time.Duration) ([]model.EventSummary, error) {
	if window == 0 {
		window = s.policy.Policy().SummaryWindow
	}
	if window < 0 || window > MaxSummaryWindow {
		return nil, invalid("window_hours", "must be between 1 and %d", int(MaxSummaryWindow/time.Hour))
	}
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.summarize(ctx, websiteID, now.Add(-window), now)
}

// FindDuplicates returns event_ids seen more than once in the trailing window.
// A zero window means the policy's duplicate window.
func (s *HealthService) FindDuplicates(ctx context.Context, userID, websiteID int64, window time.Duration) ([]model.DuplicateEvent, error) {
	if window == 0 {
		window = s.policy.Policy().DuplicateWindow
	}
	if window < 0 || window > MaxDuplicateWindow {
		return nil, invalid("window_minutes", "must be between 1 and %d", int(MaxDuplicateWindow/time.Minute))
	}
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.findDuplicates(ctx, websiteID, now.Add(-window), now)
}

// Health classifies every event name seen in the policy's summary window,
// plus any expected event that never arrived.
func (s *HealthService) Health(ctx context.Context, userID, websiteID int64) ([]model.EventHealth, error) {
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return nil, err
	}

	policy := s.policy.Policy()
	now := s.now()

	summaries, err := s.summarize(ctx, websiteID, now.Add(-policy.SummaryWindow), now)
	if err != nil {
		return nil, err
	}
	return Classify(policy, summaries, now), nil
}

// Alerts reports duplicate event_ids and health threshold breaches, errors
// first. Both aggregations run concurrently.
func (s *HealthService) Alerts(ctx context.Context, userID, websiteID int64) ([]model.EventAlert, error) {
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return nil, err
	}

	policy := s.policy.Policy()
	now := s.now()

	var (
		summaries []model.EventSummary
		dups      []model.DuplicateEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summaries, err = s.summarize(gctx, websiteID, now.Add(-policy.SummaryWindow), now)
		return err
	})
	g.Go(func() error {
		var err error
		dups, err = s.findDuplicates(gctx, websiteID, now.Add(-policy.DuplicateWindow), now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return BuildAlerts(policy, Classify(policy, summaries, now), dups, now), nil
}

func (s *HealthService) summarize(ctx context.Context, websiteID int64, from, to time.Time) ([]model.EventSummary, error) {
	defer observe("summarize", time.Now())
	summaries, err := s.repo.Summarize(ctx, websiteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize events: %w", err)
	}
	return summaries, nil
}

func (s *HealthService) findDuplicates(ctx context.Context, websiteID int64, from, to time.Time) ([]model.DuplicateEvent, error) {
	defer observe("find_duplicates", time.Now())
	dups, err := s.repo.FindDuplicates(ctx, websiteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("find duplicate events: %w", err)
	}
	return dups, nil
}

func observe(query string, start time.Time) {
	metrics.AggregationDuration.WithLabelValues(query).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// Classify derives a status and score for each summary. Expected events
// absent from summaries are reported as errors with no last_received.
// The result is ordered by event name.
func Classify(policy *config.HealthPolicy, summaries []model.EventSummary, now time.Time) []model.EventHealth {
	out := make([]model.EventHealth, 0, len(summaries)+len(policy.ExpectedEvents))
	seen := make(map[string]bool, len(summaries))

	for i := range summaries {
		sum := &summaries[i]
		seen[sum.EventName] = true

		th := policy.ThresholdFor(sum.EventName)
		age := now.Sub(sum.LastReceivedAt)
		score := Score(policy, &sum.Sample)

		status := model.StatusError
		switch {
		case age <= th.HealthyWithin:
			status = model.StatusHealthy
			if score < policy.MinScore {
				status = model.StatusWarning
			}
		case age <= th.WarningWithin:
			status = model.StatusWarning
		}

		last := sum.LastReceivedAt
		out = append(out, model.EventHealth{
			EventName:    sum.EventName,
			Score:        score,
			LastReceived: &last,
			Status:       status,
		})
	}

	for _, name := range policy.ExpectedEvents {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, model.EventHealth{EventName: name, Status: model.StatusError})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EventName < out[j].EventName })
	return out
}

// Score is the weighted share of identity fields present on e, scaled to
// 0..10 and rounded to one decimal.
func Score(policy *config.HealthPolicy, e *model.EventLog) float64 {
	present := map[string]bool{
		config.ScoreFieldEmail:     hasText(e.Email),
		config.ScoreFieldPhone:     hasText(e.Phone),
		config.ScoreFieldIPAddress: hasText(e.UserIPAddress),
		config.ScoreFieldUserAgent: hasText(e.UserAgent),
		config.ScoreFieldFBP:       hasText(e.FBP),
		config.ScoreFieldFBC:       hasText(e.FBC),
	}

	var total, got float64
	for field, weight := range policy.ScoreWeights {
		total += weight
		if present[field] {
			got += weight
		}
	}
	if total == 0 {
		return 0
	}
	return math.Round(got/total*100) / 10
}

func hasText(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

// BuildAlerts turns duplicates and classified health into dashboard alerts,
// errors before warnings.
func BuildAlerts(policy *config.HealthPolicy, health []model.EventHealth, dups []model.DuplicateEvent, now time.Time) []model.EventAlert {
	var alerts []model.EventAlert

	if len(dups) > 0 {
		alerts = append(alerts, model.EventAlert{
			ID:       "alert-duplicate-events",
			Severity: model.SeverityError,
			Title:    "Potential Duplicate Events Detected",
			Message: fmt.Sprintf("We detected %d event ID(s) sent multiple times recently (e.g., '%s'). "+
				"This could inflate conversion counts.", len(dups), dups[0].EventID),
			Timestamp: now,
		})
	}

	for _, h := range health {
		id := slug(h.EventName)

		if h.LastReceived == nil {
			alerts = append(alerts, model.EventAlert{
				ID:       "alert-missing-" + id,
				Severity: model.SeverityError,
				Title:    fmt.Sprintf("No '%s' Events Received", h.EventName),
				Message: fmt.Sprintf("No '%s' events were received in the last %s. "+
					"Check that the tracking code is still installed.", h.EventName, humanizeDuration(policy.SummaryWindow)),
				Timestamp: now,
			})
			continue
		}

		age := now.Sub(*h.LastReceived)
		th := policy.ThresholdFor(h.EventName)
		if age > th.HealthyWithin {
			severity, title := model.SeverityWarning, fmt.Sprintf("'%s' Events Are Delayed", h.EventName)
			if h.Status == model.StatusError {
				severity, title = model.SeverityError, fmt.Sprintf("'%s' Events Have Stopped", h.EventName)
			}
			alerts = append(alerts, model.EventAlert{
				ID:        "alert-stale-" + id,
				Severity:  severity,
				Title:     title,
				Message:   fmt.Sprintf("The last '%s' event was received %s ago.", h.EventName, humanizeDuration(age)),
				Timestamp: *h.LastReceived,
			})
		}

		if h.Score < policy.MinScore {
			alerts = append(alerts, model.EventAlert{
				ID:       "alert-low-emq-" + id,
				Severity: model.SeverityWarning,
				Title:    fmt.Sprintf("'%s' EMQ May Be Low (%.1f/10)", h.EventName, h.Score),
				Message: fmt.Sprintf("Recent '%s' events might be missing key customer parameters. "+
					"Consider reviewing data points sent.", h.EventName),
				Timestamp: *h.LastReceived,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity == model.SeverityError && alerts[j].Severity != model.SeverityError
	})
	return alerts
}
