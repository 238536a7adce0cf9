package pipeline

import (
	"log/slog"
	"sync"

	"github.com/gyaneshwarpardhi/kycguard/internal/metrics"
	"github.com/gyaneshwarpardhi/kycguard/internal/rules"
)

// Sink receives diagnostics while a pipeline runs. Implementations must be safe
// for concurrent use; the engine evaluates many records at once.
type Sink interface {
	RuleEvaluated(recordID string, o rules.Outcome)
	Decided(d Decision)
}

type discard struct{}

func (discard) RuleEvaluated(string, rules.Outcome) {}
func (discard) Decided(Decision)                    {}

// LogSink writes failures and decisions to a structured logger. Passing rules
// are logged at debug level.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) RuleEvaluated(recordID string, o rules.Outcome) {
	switch {
	case !o.Passed:
		s.Logger.Info("rule failed", "record", recordID, "rule", o.Rule, "code", o.Code, "reason", o.Reason)
	case o.Skipped:
		s.Logger.Debug("rule skipped", "record", recordID, "rule", o.Rule, "reason", o.Reason)
	default:
		s.Logger.Debug("rule passed", "record", recordID, "rule", o.Rule)
	}
}

func (s LogSink) Decided(d Decision) {
	if d.Accept {
		s.Logger.Info("record accepted", "record", d.RecordID)
		return
	}
	s.Logger.Info("record rejected", "record", d.RecordID, "rule", d.FailingRule, "code", d.Code)
}

// MetricsSink counts rule outcomes and decisions in prometheus.
type MetricsSink struct{}

func (MetricsSink) RuleEvaluated(_ string, o rules.Outcome) {
	outcome := "pass"
	switch {
	case !o.Passed:
		outcome = "fail"
	case o.Skipped:
		outcome = "skip"
	}
	metrics.RuleOutcomes.WithLabelValues(o.Rule, outcome).Inc()
}

func (MetricsSink) Decided(d Decision) {
	decision := "reject"
	if d.Accept {
		decision = "accept"
	}
	metrics.RecordsEvaluated.WithLabelValues(decision).Inc()
}

// Recorder keeps everything it receives, for tests.
type Recorder struct {
	mu        sync.Mutex
	outcomes  []rules.Outcome
	decisions []Decision
}

func (r *Recorder) RuleEvaluated(_ string, o rules.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *Recorder) Decided(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func (r *Recorder) Outcomes() []rules.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rules.Outcome(nil), r.outcomes...)
}

func (r *Recorder) Decisions() []Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Decision(nil), r.decisions...)
}

// Sinks fans every call out to each sink in turn.
type Sinks []Sink

func (s Sinks) RuleEvaluated(recordID string, o rules.Outcome) {
	for _, sink := range s {
		sink.RuleEvaluated(recordID, o)
	}
}

func (s Sinks) Decided(d Decision) {
	for _, sink := range s {
		sink.Decided(d)
	}
}
