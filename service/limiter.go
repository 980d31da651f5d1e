// Package service assembles the pipeline: the ingest router, the
// per-second announcer, the worker pool and the supervisor that ties a
// session's goroutines together.
package service

import (
	"context"

	uberratelimit "go.uber.org/ratelimit"
	"golang.org/x/time/rate"

	"github.com/linchenxuan/ladderd/config"
)

// ingestLimiter throttles the router: one Take per message off the wire.
type ingestLimiter interface {
	Take()
}

type noLimiter struct{}

func (noLimiter) Take() {}

// tokenLimiter allows bursts up to the configured size.
type tokenLimiter struct {
	lim *rate.Limiter
}

func (t *tokenLimiter) Take() {
	_ = t.lim.Wait(context.Background())
}

// funnelLimiter spaces messages evenly with no burst allowance.
type funnelLimiter struct {
	lim uberratelimit.Limiter
}

func (f *funnelLimiter) Take() {
	f.lim.Take()
}

func newIngestLimiter(cfg *config.Config) ingestLimiter {
	if cfg.IngestRate <= 0 || cfg.LimiterKind == config.LimiterNone {
		return noLimiter{}
	}
	switch cfg.LimiterKind {
	case config.LimiterFunnel:
		return &funnelLimiter{lim: uberratelimit.New(cfg.IngestRate)}
	default:
		burst := cfg.IngestBurst
		if burst < 1 {
			burst = 1
		}
		return &tokenLimiter{lim: rate.NewLimiter(rate.Limit(cfg.IngestRate), burst)}
	}
}
