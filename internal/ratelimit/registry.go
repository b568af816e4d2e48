package ratelimit

import (
	"time"

	"github.com/docsense/gateway/internal/domain"
)

// Limit is one (window, ceiling) pair.
type Limit struct {
	Window time.Duration
	Max    int
}

// Limits configures the registry: a global ceiling applied to every request
// plus one limiter per route.
type Limits struct {
	Global    Limit
	Upload    Limit
	Ask       Limit
	Summarize Limit
	Compare   Limit
}

// Registry composes the global limiter with the per-route limiters. Each
// limiter counts independently; admission requires both the global and the
// route limiter to allow.
type Registry struct {
	global  *FixedWindow
	byRoute map[domain.Route]*FixedWindow
	metrics *Metrics
}

// NewRegistry builds the five limiters from cfg. metrics may be nil.
func NewRegistry(cfg Limits, metrics *Metrics) *Registry {
	return &Registry{
		global: NewFixedWindow(cfg.Global.Window, cfg.Global.Max),
		byRoute: map[domain.Route]*FixedWindow{
			domain.RouteProcessDocument: NewFixedWindow(cfg.Upload.Window, cfg.Upload.Max),
			domain.RouteAsk:             NewFixedWindow(cfg.Ask.Window, cfg.Ask.Max),
			domain.RouteSummarize:       NewFixedWindow(cfg.Summarize.Window, cfg.Summarize.Max),
			domain.RouteCompare:         NewFixedWindow(cfg.Compare.Window, cfg.Compare.Max),
		},
		metrics: metrics,
	}
}

// Admit checks the global limiter first, then the route limiter. The first
// rejection wins, so a request over the global ceiling never consumes route
// limiter work.
func (r *Registry) Admit(route domain.Route, key string) Decision {
	dec := r.global.Admit(key)
	r.record("global", dec)
	if !dec.Allowed {
		return dec
	}

	rl, ok := r.byRoute[route]
	if !ok {
		return dec
	}
	dec = rl.Admit(key)
	r.record(string(route), dec)
	return dec
}

func (r *Registry) record(limiter string, dec Decision) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordDecision(limiter, dec.Allowed)
}
