// Package quota tracks per-user daily allowances on the ingestion side:
// event counts and token spend, with threshold alerts and a usage
// projection over recent requests.
package quota

import (
	"sync"
	"time"
)

// Limits defines per-user daily allowances. Zero values mean unlimited
// (no enforcement for that dimension).
type Limits struct {
	DailyEvents int64 `yaml:"daily_events"`
	DailyTokens int64 `yaml:"daily_tokens"`
}

// HasLimits returns true if any allowance is configured.
func (l Limits) HasLimits() bool {
	return l.DailyEvents > 0 || l.DailyTokens > 0
}

// alertThresholds are the budget fractions at which a one-shot alert
// fires, matching the 80/90/95% alert ladder of the billing tracker.
var alertThresholds = []float64{0.8, 0.9, 0.95}

// usageWindow is how many recent requests feed the projection.
const usageWindow = 100

// Alert records one crossed budget threshold.
type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Threshold float64   `json:"threshold"`
	Tokens    int64     `json:"tokens_used"`
	Remaining int64     `json:"tokens_remaining"`
}

// Usage is a snapshot of one user's consumption in the current day.
type Usage struct {
	Events          int64 `json:"events"`
	Tokens          int64 `json:"tokens"`
	EventsRemaining int64 `json:"events_remaining"` // -1 when unlimited
	TokensRemaining int64 `json:"tokens_remaining"` // -1 when unlimited
}

// Projection estimates how far the remaining token budget stretches,
// based on the average spend of recent requests.
type Projection struct {
	AvgTokensPerEvent float64 `json:"avg_tokens_per_event"`
	RemainingEvents   float64 `json:"estimated_remaining_events"`
}

type userState struct {
	dayStart time.Time
	events   int64
	tokens   int64
	fired    map[float64]bool
	recent   []int64 // token spend of the last usageWindow requests
	alerts   []Alert
}

// Tracker enforces Limits per user. Counters reset at the first request
// of each new UTC day, the same window-expiry reset the tool-call rate
// limiter uses.
type Tracker struct {
	limits Limits
	now    func() time.Time

	mu    sync.Mutex
	users map[string]*userState
}

// NewTracker creates a Tracker. now may be nil (defaults to time.Now).
func NewTracker(limits Limits, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		limits: limits,
		now:    now,
		users:  make(map[string]*userState),
	}
}

// Allow reports whether user may spend tokens for one more event without
// exceeding either daily allowance.
func (t *Tracker) Allow(user string, tokens int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(user)
	if t.limits.DailyEvents > 0 && st.events+1 > t.limits.DailyEvents {
		return false
	}
	if t.limits.DailyTokens > 0 && st.tokens+tokens > t.limits.DailyTokens {
		return false
	}
	return true
}

// Record charges one event plus its token spend to user and returns the
// resulting snapshot. Threshold alerts fire once per day per threshold.
func (t *Tracker) Record(user string, tokens int64) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(user)
	st.events++
	st.tokens += tokens
	st.recent = append(st.recent, tokens)
	if len(st.recent) > usageWindow {
		st.recent = st.recent[len(st.recent)-usageWindow:]
	}

	if t.limits.DailyTokens > 0 {
		used := float64(st.tokens) / float64(t.limits.DailyTokens)
		for _, th := range alertThresholds {
			if used >= th && !st.fired[th] {
				st.fired[th] = true
				st.alerts = append(st.alerts, Alert{
					Timestamp: t.now().UTC(),
					Threshold: th,
					Tokens:    st.tokens,
					Remaining: t.limits.DailyTokens - st.tokens,
				})
			}
		}
	}

	return t.snapshot(st)
}

// Snapshot returns user's current usage without charging anything.
func (t *Tracker) Snapshot(user string) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot(t.state(user))
}

// Alerts returns the threshold alerts fired for user today.
func (t *Tracker) Alerts(user string) []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(user)
	out := make([]Alert, len(st.alerts))
	copy(out, st.alerts)
	return out
}

// Project estimates remaining capacity from recent spend. Returns false
// when there is no history or no token limit to project against.
func (t *Tracker) Project(user string) (Projection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(user)
	if len(st.recent) == 0 || t.limits.DailyTokens == 0 {
		return Projection{}, false
	}

	var sum int64
	for _, v := range st.recent {
		sum += v
	}
	avg := float64(sum) / float64(len(st.recent))

	var remaining float64
	if avg > 0 {
		remaining = float64(t.limits.DailyTokens-st.tokens) / avg
	}
	if remaining < 0 {
		remaining = 0
	}
	return Projection{AvgTokensPerEvent: avg, RemainingEvents: remaining}, true
}

// state returns the live state for user, resetting counters when the UTC
// day has rolled over since the last request.
func (t *Tracker) state(user string) *userState {
	day := t.now().UTC().Truncate(24 * time.Hour)
	st, ok := t.users[user]
	if !ok || !st.dayStart.Equal(day) {
		st = &userState{dayStart: day, fired: make(map[float64]bool)}
		t.users[user] = st
	}
	return st
}

func (t *Tracker) snapshot(st *userState) Usage {
	u := Usage{
		Events:          st.events,
		Tokens:          st.tokens,
		EventsRemaining: -1,
		TokensRemaining: -1,
	}
	if t.limits.DailyEvents > 0 {
		u.EventsRemaining = max(t.limits.DailyEvents-st.events, 0)
	}
	if t.limits.DailyTokens > 0 {
		u.TokensRemaining = max(t.limits.DailyTokens-st.tokens, 0)
	}
	return u
}
