// Package rules holds the named consistency checks a client record must pass.
package rules

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Outcome is the result of running one rule on one record. A skipped rule
// counts as passed.
type Outcome struct {
	Rule    string `json:"rule"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Check inspects a record. It must not modify it.
type Check func(ctx context.Context, rec *record.ClientRecord) Outcome

type Rule struct {
	Name        string
	Description string
	Check       Check
}

// Run executes the check and stamps the rule name on the outcome.
func (r Rule) Run(ctx context.Context, rec *record.ClientRecord) Outcome {
	o := r.Check(ctx, rec)
	o.Rule = r.Name
	return o
}

func passed() Outcome { return Outcome{Passed: true} }

func failed(code, format string, args ...any) Outcome {
	return Outcome{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func skipped(format string, args ...any) Outcome {
	return Outcome{Passed: true, Skipped: true, Reason: fmt.Sprintf(format, args...)}
}

// Registry maps rule names to rules. It is safe for concurrent reads;
// Register should only be called while wiring the process.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. Panics on a duplicate name to surface misconfiguration early.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.Name]; exists {
		panic(fmt.Sprintf("rule registry: duplicate rule %q", rule.Name))
	}
	r.rules[rule.Name] = rule
}

// Get returns the rule registered under name.
func (r *Registry) Get(name string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	if !ok {
		return Rule{}, fmt.Errorf("no rule registered as %q", name)
	}
	return rule, nil
}

// Names returns the registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rules))
	for k := range r.rules {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
