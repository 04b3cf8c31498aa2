package rate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardBudgetPerMinute(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 3))
	now := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.Allow(now), "call %d", i)
	}

	err := guard.Allow(now)
	var limitErr RateLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "budget", limitErr.Reason)
	assert.Equal(t, "test", limitErr.Provider)
	assert.False(t, limitErr.RetryAt.IsZero())
}

func TestGuardRefillsOverTime(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 60))
	now := time.Now()

	for i := 0; i < 60; i++ {
		require.NoError(t, guard.Allow(now))
	}
	require.Error(t, guard.Allow(now))

	// one call refills per second at 60/min
	require.NoError(t, guard.Allow(now.Add(1100*time.Millisecond)))
}

func TestGuardBudgetFloor(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 5).BudgetFloor(Minute, 3))
	now := time.Now()

	require.NoError(t, guard.Allow(now))
	require.NoError(t, guard.Allow(now))
	require.Error(t, guard.Allow(now))
}

func TestGuardCooldown(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 10))
	now := time.Now()
	guard.Cooldown(now.Add(time.Minute))

	decision := guard.ShouldCall(now)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "cooldown", decision.Reason)

	assert.True(t, guard.ShouldCall(now.Add(2*time.Minute)).Allowed)
}

func TestGuardWithoutLimitsIsDisabled(t *testing.T) {
	guard := NewGuard(Provider("test"))
	decision := guard.ShouldCall(time.Now())
	assert.False(t, decision.Allowed)
	assert.Equal(t, "disabled", decision.Reason)
}

func TestDeclarationIsImmutable(t *testing.T) {
	base := Provider("test").MaxRequestsPer(Minute, 10)
	derived := base.MaxRequestsPer(Day, 100)

	assert.Len(t, base.Limits(), 1)
	assert.Len(t, derived.Limits(), 2)
}

func TestGuardRefusalSpendsNothing(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 10).MaxRequestsPer(Day, 2))
	now := time.Now()

	require.NoError(t, guard.Allow(now))
	require.NoError(t, guard.Allow(now))
	require.Error(t, guard.Allow(now))

	assert.Equal(t, 8, guard.Remaining(Minute, now))
	assert.Equal(t, 0, guard.Remaining(Day, now))
}

func TestGuardRemainingUnlimitedWindow(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 10))
	assert.Equal(t, -1, guard.Remaining(Day, time.Now()))
}

func TestGuardZeroLimitDisables(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 0))
	assert.Equal(t, "disabled", guard.ShouldCall(time.Now()).Reason)
}

func TestGuardCooldownKeepsLatest(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 10))
	now := time.Now()
	guard.Cooldown(now.Add(time.Hour))
	guard.Cooldown(now.Add(time.Minute))

	decision := guard.ShouldCall(now.Add(2 * time.Minute))
	assert.False(t, decision.Allowed)
	assert.Equal(t, now.Add(time.Hour), decision.RetryAt)
}
