package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the aggregated health of the bot.
type Status string

const (
	// Healthy indicates all components answer.
	Healthy Status = "ok"
	// Degraded indicates an optional component (embedding, cache) is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search service is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component probe.
type CheckResult string

// Probe outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentSearch    = "search"
	ComponentEmbedding = "embedding"
	ComponentCache     = "cache"
)

// DefaultProbeTimeout bounds each probe.
const DefaultProbeTimeout = 3 * time.Second

// Report aggregates probe results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name     string
	critical bool
	run      func(ctx context.Context) error
}

// Service probes every configured component concurrently.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithProbeTimeout overrides DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New creates a Service. embedding and cache can be nil; absent components are not reported.
func New(search Pinger, embedding EmbeddingChecker, cache Pinger, opts ...Option) *Service {
	s := &Service{timeout: DefaultProbeTimeout}
	s.probes = append(s.probes, probe{name: ComponentSearch, critical: true, run: search.Ping})
	if embedding != nil {
		s.probes = append(s.probes, probe{name: ComponentEmbedding, run: embedding.HealthCheck})
	}
	if cache != nil {
		s.probes = append(s.probes, probe{name: ComponentCache, run: cache.Ping})
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs all probes and folds them into one status.
// A failing critical probe makes the report Unhealthy, any other failure Degraded.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(s.probes))
		status = Healthy
	)

	var g errgroup.Group
	for _, p := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			err := p.run(pctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				checks[p.name] = CheckOK
				return nil
			}
			checks[p.name] = CheckError
			if p.critical {
				status = Unhealthy
			} else if status == Healthy {
				status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}
