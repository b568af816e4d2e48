package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsense/gateway/internal/domain"
)

func testLimits() Limits {
	return Limits{
		Global:    Limit{Window: time.Minute, Max: 100},
		Upload:    Limit{Window: time.Minute, Max: 5},
		Ask:       Limit{Window: time.Minute, Max: 20},
		Summarize: Limit{Window: time.Minute, Max: 10},
		Compare:   Limit{Window: time.Minute, Max: 10},
	}
}

func TestRegistry_RouteLimiterApplies(t *testing.T) {
	reg := NewRegistry(testLimits(), nil)

	for i := 0; i < 5; i++ {
		require.True(t, reg.Admit(domain.RouteProcessDocument, "k").Allowed)
	}
	dec := reg.Admit(domain.RouteProcessDocument, "k")
	assert.False(t, dec.Allowed)
	assert.Greater(t, dec.RetryAfter, time.Duration(0))
}

func TestRegistry_RoutesCountIndependently(t *testing.T) {
	reg := NewRegistry(testLimits(), nil)

	for i := 0; i < 5; i++ {
		require.True(t, reg.Admit(domain.RouteProcessDocument, "k").Allowed)
	}
	require.False(t, reg.Admit(domain.RouteProcessDocument, "k").Allowed)

	// Exhausting upload leaves ask untouched.
	assert.True(t, reg.Admit(domain.RouteAsk, "k").Allowed)
}

func TestRegistry_GlobalPrecedence(t *testing.T) {
	// Global ceiling below the route ceiling: the global rejection must win
	// even though the route limiter would still admit.
	limits := testLimits()
	limits.Global = Limit{Window: time.Minute, Max: 2}
	reg := NewRegistry(limits, nil)

	require.True(t, reg.Admit(domain.RouteAsk, "k").Allowed)
	require.True(t, reg.Admit(domain.RouteAsk, "k").Allowed)

	dec := reg.Admit(domain.RouteAsk, "k")
	assert.False(t, dec.Allowed)

	// The route limiter was never consulted for the rejected request:
	// a third admit through a different route also fails on global.
	assert.False(t, reg.Admit(domain.RouteSummarize, "k").Allowed)
}
