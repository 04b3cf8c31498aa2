package rate

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitError is returned when calls are blocked.
type RateLimitError struct {
	Provider string
	Reason   string
	RetryAt  time.Time
}

func (e RateLimitError) Error() string {
	if e.RetryAt.IsZero() {
		return fmt.Sprintf("%s rate limited: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s rate limited: %s (retry at %s)", e.Provider, e.Reason, e.RetryAt.UTC().Format(time.RFC3339))
}

// Decision is the outcome of a budget check.
type Decision struct {
	Allowed bool
	Reason  string
	RetryAt time.Time
}

type bucket struct {
	window   Window
	capacity int
	floor    int
	tokens   float64
	last     time.Time
}

// refill tops the bucket up for the time elapsed since the last call.
func (b *bucket) refill(now time.Time) {
	if b.last.IsZero() || now.Before(b.last) {
		b.last = now
		return
	}
	rate := float64(b.capacity) / b.window.Duration().Seconds()
	b.tokens = min(float64(b.capacity), b.tokens+now.Sub(b.last).Seconds()*rate)
	b.last = now
}

func (b *bucket) spendable() bool {
	return b.tokens-1 >= float64(b.floor)
}

// nextToken is when the bucket regains one call.
func (b *bucket) nextToken() time.Time {
	return b.last.Add(b.window.Duration() / time.Duration(b.capacity))
}

// Guard enforces a call budget for one remote provider.
type Guard struct {
	provider string

	mu       sync.Mutex
	buckets  []*bucket
	disabled bool
	cooldown time.Time
}

func NewGuard(decl Declaration) *Guard {
	g := &Guard{provider: decl.ProviderName(), disabled: !decl.HasLimits()}
	for _, window := range []Window{Minute, Day} {
		limit, ok := decl.Limits()[window]
		if !ok {
			continue
		}
		if limit <= 0 {
			g.disabled = true
			continue
		}
		g.buckets = append(g.buckets, &bucket{
			window:   window,
			capacity: limit,
			floor:    decl.BudgetFloors()[window],
			tokens:   float64(limit),
		})
	}
	return g
}

// Allow spends one call, or returns a RateLimitError.
func (g *Guard) Allow(now time.Time) error {
	decision := g.ShouldCall(now)
	if decision.Allowed {
		return nil
	}
	rejectedCalls.WithLabelValues(g.provider, decision.Reason).Inc()
	return RateLimitError{
		Provider: g.provider,
		Reason:   decision.Reason,
		RetryAt:  decision.RetryAt,
	}
}

// ShouldCall spends one call from every window when all of them can afford
// it. A refusal spends nothing.
func (g *Guard) ShouldCall(now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disabled {
		return Decision{Reason: "disabled"}
	}
	if now.Before(g.cooldown) {
		return Decision{Reason: "cooldown", RetryAt: g.cooldown}
	}

	for _, b := range g.buckets {
		b.refill(now)
		if !b.spendable() {
			return Decision{Reason: "budget", RetryAt: b.nextToken()}
		}
	}
	for _, b := range g.buckets {
		b.tokens--
		remainingGauge.WithLabelValues(g.provider, b.window.String()).Set(b.tokens)
	}
	return Decision{Allowed: true}
}

// Cooldown blocks all calls until the given time. An earlier time than the
// current cooldown is ignored.
func (g *Guard) Cooldown(until time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if until.Before(g.cooldown) {
		return
	}
	g.cooldown = until
	retryAfterGauge.WithLabelValues(g.provider).Set(time.Until(until).Seconds())
}

// Remaining reports the whole calls left in window, or -1 when the window
// is not limited.
func (g *Guard) Remaining(window Window, now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range g.buckets {
		if b.window == window {
			b.refill(now)
			return int(b.tokens)
		}
	}
	return -1
}
