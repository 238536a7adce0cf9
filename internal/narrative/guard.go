package narrative

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gyaneshwarpardhi/kycguard/internal/circuit"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// GuardedExtractor stops calling a failing extractor until its breaker lets a
// probe through. A malformed answer still counts as a reachable service.
type GuardedExtractor struct {
	next    Extractor
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedExtractor(next Extractor, breaker *circuit.Breaker, logger *slog.Logger) *GuardedExtractor {
	return &GuardedExtractor{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedExtractor) Extract(ctx context.Context, d record.ClientDescription) (Facts, error) {
	if !g.breaker.Allow() {
		return Facts{}, ErrUnavailable
	}
	f, err := g.next.Extract(ctx, d)
	if err != nil && !errors.Is(err, ErrMalformedOutput) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.Warn("narrative extractor circuit opened", "breaker", g.breaker.Name(), "error", err)
		}
		return Facts{}, err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.Info("narrative extractor circuit closed", "breaker", g.breaker.Name())
	}
	return f, err
}
