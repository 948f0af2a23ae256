package health

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of a health check
type Result struct {
	System    string        `json:"system"`
	Healthy   bool          `json:"healthy"`
	Leader    string        `json:"leader,omitempty"`
	Message   string        `json:"message"`
	CheckedAt time.Time     `json:"checkedAt"`
	Duration  time.Duration `json:"duration"`
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	Check(ctx context.Context) Result
}

// Config controls how Wait polls a checker
type Config struct {
	// Interval is the time between health checks
	Interval time.Duration

	// Timeout bounds a single check
	Timeout time.Duration

	// Retries is the number of consecutive failures before giving up
	Retries int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval: 2 * time.Second,
		Timeout:  5 * time.Second,
		Retries:  15,
	}
}

// Status tracks consecutive outcomes of a checker
type Status struct {
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastResult           Result
}

// Update records a new health check result
func (s *Status) Update(result Result) {
	s.LastResult = result
	if result.Healthy {
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0
		return
	}
	s.ConsecutiveFailures++
	s.ConsecutiveSuccesses = 0
}

// Exhausted reports whether the failure budget of cfg is spent
func (s *Status) Exhausted(cfg Config) bool {
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}
	return s.ConsecutiveFailures >= retries
}

// withDefaults fills non-positive durations from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// Wait runs checker until it reports healthy, the retries of cfg are used up
// or ctx is done. The last result is always returned.
func Wait(ctx context.Context, checker Checker, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	status := &Status{}
	var ticker *time.Ticker

	for {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result := checker.Check(checkCtx)
		cancel()

		status.Update(result)
		if result.Healthy {
			return result, nil
		}
		if status.Exhausted(cfg) {
			return result, fmt.Errorf("%s not healthy after %d checks: %s",
				result.System, status.ConsecutiveFailures, result.Message)
		}

		if ticker == nil {
			ticker = time.NewTicker(cfg.Interval)
			defer ticker.Stop()
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
