package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Identity fields that can carry a score weight.
const (
	ScoreFieldEmail     = "email"
	ScoreFieldPhone     = "phone"
	ScoreFieldIPAddress = "ip_address"
	ScoreFieldUserAgent = "user_agent"
	ScoreFieldFBP       = "fbp"
	ScoreFieldFBC       = "fbc"
)

var scoreFields = map[string]bool{
	ScoreFieldEmail:     true,
	ScoreFieldPhone:     true,
	ScoreFieldIPAddress: true,
	ScoreFieldUserAgent: true,
	ScoreFieldFBP:       true,
	ScoreFieldFBC:       true,
}

// Threshold bounds the age of the latest event for each status.
type Threshold struct {
	HealthyWithin time.Duration `yaml:"healthy_within"`
	WarningWithin time.Duration `yaml:"warning_within"`
}

// HealthPolicy is the classification policy layered over the event
// aggregates. Nothing in the aggregation queries depends on it.
type HealthPolicy struct {
	SummaryWindow   time.Duration        `yaml:"summary_window"`
	DuplicateWindow time.Duration        `yaml:"duplicate_window"`
	Default         Threshold            `yaml:"default"`
	Events          map[string]Threshold `yaml:"events"`
	ExpectedEvents  []string             `yaml:"expected_events"`
	MinScore        float64              `yaml:"min_score"`
	ScoreWeights    map[string]float64   `yaml:"score_weights"`
}

// DefaultHealthPolicy returns the policy used when no policy file is configured.
func DefaultHealthPolicy() *HealthPolicy {
	return &HealthPolicy{
		SummaryWindow:   72 * time.Hour,
		DuplicateWindow: 60 * time.Minute,
		Default: Threshold{
			HealthyWithin: time.Hour,
			WarningWithin: 24 * time.Hour,
		},
		MinScore: 6.0,
		ScoreWeights: map[string]float64{
			ScoreFieldEmail:     3,
			ScoreFieldPhone:     2,
			ScoreFieldIPAddress: 1.5,
			ScoreFieldUserAgent: 1,
			ScoreFieldFBP:       1.5,
			ScoreFieldFBC:       1,
		},
	}
}

// ThresholdFor returns the per-event threshold, filling unset fields from
// the default.
func (p *HealthPolicy) ThresholdFor(eventName string) Threshold {
	th, ok := p.Events[eventName]
	if !ok {
		return p.Default
	}
	if th.HealthyWithin == 0 {
		th.HealthyWithin = p.Default.HealthyWithin
	}
	if th.WarningWithin == 0 {
		th.WarningWithin = p.Default.WarningWithin
	}
	return th
}

// Validate checks windows, thresholds and score weights.
func (p *HealthPolicy) Validate() error {
	var errs []string

	if p.SummaryWindow <= 0 {
		errs = append(errs, "summary_window must be positive")
	}
	if p.DuplicateWindow <= 0 {
		errs = append(errs, "duplicate_window must be positive")
	}
	if err := validateThreshold(p.Default); err != "" {
		errs = append(errs, "default: "+err)
	}

	names := make([]string, 0, len(p.Events))
	for name := range p.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validateThreshold(p.ThresholdFor(name)); err != "" {
			errs = append(errs, fmt.Sprintf("events.%s: %s", name, err))
		}
	}

	if p.MinScore < 0 || p.MinScore > 10 {
		errs = append(errs, "min_score must be within [0, 10]")
	}
	for field, w := range p.ScoreWeights {
		if !scoreFields[field] {
			errs = append(errs, fmt.Sprintf("score_weights.%s: unknown field", field))
		}
		if w < 0 {
			errs = append(errs, fmt.Sprintf("score_weights.%s: must not be negative", field))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("health policy validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateThreshold(th Threshold) string {
	switch {
	case th.HealthyWithin <= 0:
		return "healthy_within must be positive"
	case th.WarningWithin < th.HealthyWithin:
		return "warning_within must not be shorter than healthy_within"
	}
	return ""
}

// PolicyLoader reads a YAML health policy and watches it for changes.
type PolicyLoader struct {
	path     string
	mu       sync.RWMutex
	current  *HealthPolicy
	onChange []func(*HealthPolicy)
}

// NewPolicyLoader creates a PolicyLoader and performs the initial load. An
// empty path yields a loader serving DefaultHealthPolicy.
func NewPolicyLoader(path string) (*PolicyLoader, error) {
	l := &PolicyLoader{path: path}
	if path == "" {
		l.current = DefaultHealthPolicy()
		return l, nil
	}
	p, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = p
	return l, nil
}

// Policy returns the current (latest) policy. Callers must not mutate it.
func (l *PolicyLoader) Policy() *HealthPolicy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the policy reloads.
func (l *PolicyLoader) OnChange(fn func(*HealthPolicy)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the policy on file
// changes. The parent directory is watched so editors that replace the file
// are picked up too. Call the returned stop function to clean up.
func (l *PolicyLoader) Watch() (stop func(), err error) {
	if l.path == "" {
		return func() {}, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("policy watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("policy watcher add %s: %w", dir, err)
	}

	target := filepath.Clean(l.path)
	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("health policy reload skipped", "path", l.path, "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("health policy watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the policy file. On error the
// previous policy stays in effect.
func (l *PolicyLoader) Reload() (*HealthPolicy, error) {
	if l.path == "" {
		return l.Policy(), nil
	}
	p, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = p
	callbacks := make([]func(*HealthPolicy), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(p)
	}
	return p, nil
}

func (l *PolicyLoader) load() (*HealthPolicy, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read health policy %s: %w", l.path, err)
	}
	return ParseHealthPolicy(data)
}

// ParseHealthPolicy decodes a YAML policy over the defaults and validates it.
// Keys absent from the document keep their default values.
func ParseHealthPolicy(data []byte) (*HealthPolicy, error) {
	p := DefaultHealthPolicy()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse health policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
