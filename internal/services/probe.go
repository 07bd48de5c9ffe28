package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything that can tell whether the complaint service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

// ProbeResult is the outcome of the last reachability check.
type ProbeResult struct {
	Reachable bool
	CheckedAt time.Time
	Error     string
}

// RemoteProbe periodically checks that the complaint service answers.
type RemoteProbe struct {
	target  Pinger
	timeout time.Duration
	logger  *zap.SugaredLogger

	mu   sync.RWMutex
	last ProbeResult
}

// NewRemoteProbe creates a probe against target.
func NewRemoteProbe(target Pinger, timeout time.Duration, logger *zap.SugaredLogger) *RemoteProbe {
	return &RemoteProbe{target: target, timeout: timeout, logger: logger}
}

// Last returns the most recent result. CheckedAt is zero before the first check.
func (p *RemoteProbe) Last() ProbeResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Start begins the periodic probe loop
func (p *RemoteProbe) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial check
	p.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Remote probe stopped")
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check runs a single probe and records the result.
func (p *RemoteProbe) Check(ctx context.Context) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res := ProbeResult{Reachable: true, CheckedAt: time.Now()}
	if err := p.target.Ping(ctx); err != nil {
		res.Reachable = false
		res.Error = err.Error()
	}

	p.mu.Lock()
	changed := p.last.CheckedAt.IsZero() || p.last.Reachable != res.Reachable
	p.last = res
	p.mu.Unlock()

	if changed {
		p.logger.Infow("Complaint service reachability",
			"remote", p.target.BaseURL(),
			"reachable", res.Reachable,
			"error", res.Error,
		)
	}
	return res
}
