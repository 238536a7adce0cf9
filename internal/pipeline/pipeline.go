// Package pipeline runs an ordered list of rules over a client record and folds
// the outcomes into an accept or reject decision.
package pipeline

import (
	"context"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
	"github.com/gyaneshwarpardhi/kycguard/internal/rules"
)

// Decision is the verdict on one record. A rejected record names the first
// rule that failed.
type Decision struct {
	RecordID    string `json:"record_id"`
	Accept      bool   `json:"accept"`
	FailingRule string `json:"failing_rule,omitempty"`
	Code        string `json:"code,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Pipeline is immutable once built; hot reload builds a new one and swaps it.
type Pipeline struct {
	rules []rules.Rule
	sink  Sink
}

type Option func(*Pipeline)

// WithSink routes per-rule outcomes and decisions to s.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// New returns a pipeline applying rs in the given order.
func New(rs []rules.Rule, opts ...Option) *Pipeline {
	p := &Pipeline{rules: append([]rules.Rule(nil), rs...), sink: discard{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate applies the rules in order and stops at the first failure. A record
// that passes every rule, skipped ones included, is accepted.
func (p *Pipeline) Evaluate(ctx context.Context, rec *record.ClientRecord) Decision {
	for _, r := range p.rules {
		o := r.Run(ctx, rec)
		p.sink.RuleEvaluated(rec.ID, o)
		if !o.Passed {
			d := reject(rec.ID, o)
			p.sink.Decided(d)
			return d
		}
	}
	d := Decision{RecordID: rec.ID, Accept: true}
	p.sink.Decided(d)
	return d
}

// EvaluateAll runs every rule regardless of earlier failures and returns the
// outcomes in pipeline order. Decide folds them into the decision Evaluate
// would have reached.
func (p *Pipeline) EvaluateAll(ctx context.Context, rec *record.ClientRecord) []rules.Outcome {
	out := make([]rules.Outcome, 0, len(p.rules))
	for _, r := range p.rules {
		o := r.Run(ctx, rec)
		p.sink.RuleEvaluated(rec.ID, o)
		out = append(out, o)
	}
	return out
}

// Decide returns the decision for outcomes listed in pipeline order.
func Decide(recordID string, outcomes []rules.Outcome) Decision {
	for _, o := range outcomes {
		if !o.Passed {
			return reject(recordID, o)
		}
	}
	return Decision{RecordID: recordID, Accept: true}
}

func reject(recordID string, o rules.Outcome) Decision {
	return Decision{
		RecordID:    recordID,
		FailingRule: o.Rule,
		Code:        o.Code,
		Reason:      o.Reason,
	}
}

// RuleInfo describes one rule of a pipeline.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Rules lists the pipeline's rules in evaluation order.
func (p *Pipeline) Rules() []RuleInfo {
	out := make([]RuleInfo, len(p.rules))
	for i, r := range p.rules {
		out[i] = RuleInfo{Name: r.Name, Description: r.Description}
	}
	return out
}

// Len returns the number of rules.
func (p *Pipeline) Len() int { return len(p.rules) }
