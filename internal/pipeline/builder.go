package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/kycguard/internal/config"
	"github.com/gyaneshwarpardhi/kycguard/internal/narrative"
	"github.com/gyaneshwarpardhi/kycguard/internal/rules"
)

// Compose registers the built-in rules configured by cfg and builds the
// pipeline on top of them. A nil extractor leaves the narrative rule skipping.
func Compose(cfg *config.Config, extractor narrative.Extractor, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	today := cfg.Pipeline.ReferenceDay(time.Now())
	deps := rules.Deps{
		Today:    today,
		OCRNames: cfg.Pipeline.OCRNames,
		OCRDates: cfg.Pipeline.OCRDates,
	}
	if extractor != nil {
		if logger == nil {
			logger = slog.Default()
		}
		timeout := time.Duration(cfg.Narrative.TimeoutMs) * time.Millisecond
		deps.Narrative = narrative.NewCrossChecker(extractor, today, timeout, logger)
	}
	reg := rules.NewRegistry()
	rules.RegisterDefaults(reg, deps)
	return Build(cfg, reg, opts...)
}

// Build constructs a pipeline from a validated Config. Rules come from reg, or
// from the enabled policies when a policy carries the name. Policy expressions
// are compiled here; nothing is parsed at evaluation time.
//
// Enabled policies not named in pipeline.order run after the ordered rules.
func Build(cfg *config.Config, reg *rules.Registry, opts ...Option) (*Pipeline, error) {
	policies := make(map[string]rules.Rule)
	var policyOrder []string
	for _, pd := range cfg.Policies {
		if !pd.Enabled {
			continue
		}
		if _, err := reg.Get(pd.Name); err == nil {
			return nil, fmt.Errorf("policy %s: name taken by a built-in rule", pd.Name)
		}
		r, err := rules.Policy(pd.Name, pd.Expression, pd.Reason)
		if err != nil {
			return nil, err
		}
		policies[pd.Name] = r
		policyOrder = append(policyOrder, pd.Name)
	}

	disabled := make(map[string]bool, len(cfg.Pipeline.Disabled))
	for _, name := range cfg.Pipeline.Disabled {
		disabled[name] = true
	}

	order := cfg.Pipeline.Order
	if len(order) == 0 {
		order = rules.DefaultOrder
	}

	var rs []rules.Rule
	placed := make(map[string]bool)
	for _, name := range order {
		placed[name] = true
		if disabled[name] {
			continue
		}
		if r, ok := policies[name]; ok {
			rs = append(rs, r)
			continue
		}
		if isPolicy(cfg, name) {
			continue // configured but not enabled
		}
		r, err := reg.Get(name)
		if err != nil {
			return nil, fmt.Errorf("pipeline.order: %w", err)
		}
		rs = append(rs, r)
	}
	for _, name := range policyOrder {
		if !placed[name] && !disabled[name] {
			rs = append(rs, policies[name])
		}
	}

	for name := range disabled {
		if _, err := reg.Get(name); err != nil && !isPolicy(cfg, name) {
			return nil, fmt.Errorf("pipeline.disabled: %w", err)
		}
	}
	return New(rs, opts...), nil
}

func isPolicy(cfg *config.Config, name string) bool {
	for _, pd := range cfg.Policies {
		if pd.Name == name {
			return true
		}
	}
	return false
}
