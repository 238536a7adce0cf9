package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/kycguard/internal/condition"
)

var policyName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks the config for:
//   - Required fields and positive tunables
//   - Duplicate rule names in pipeline.order and across policies
//   - Policy expressions that do not compile
//   - Unknown narrative providers and store drivers
//
// Every problem is reported, not only the first. Whether the names in
// pipeline.order exist is checked when the pipeline is built.
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	if cfg.Engine.Workers < 1 {
		add("engine.workers must be positive, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.QueueDepth < 1 {
		add("engine.queue_depth must be positive, got %d", cfg.Engine.QueueDepth)
	}
	if cfg.Engine.RecordTimeoutMs < 1 {
		add("engine.record_timeout_ms must be positive, got %d", cfg.Engine.RecordTimeoutMs)
	}

	seen := make(map[string]string) // rule name → location
	for i, name := range cfg.Pipeline.Order {
		loc := fmt.Sprintf("pipeline.order[%d]", i)
		if name == "" {
			add("%s: empty rule name", loc)
			continue
		}
		if prev, ok := seen[name]; ok {
			add("duplicate rule %q (first seen at %s, again at %s)", name, prev, loc)
			continue
		}
		seen[name] = loc
	}
	if cfg.Pipeline.Today != "" {
		if _, err := time.Parse("2006-01-02", cfg.Pipeline.Today); err != nil {
			add("pipeline.today %q is not YYYY-MM-DD", cfg.Pipeline.Today)
		}
	}

	policies := make(map[string]string)
	for i, p := range cfg.Policies {
		loc := fmt.Sprintf("policies[%d]", i)
		if p.Name == "" {
			add("%s: name is required", loc)
			continue
		}
		if !policyName.MatchString(p.Name) {
			add("%s: name %q must be lower snake case", loc, p.Name)
		}
		if prev, ok := policies[p.Name]; ok {
			add("duplicate policy %q (first seen at %s, again at %s)", p.Name, prev, loc)
		} else {
			policies[p.Name] = loc
		}
		if p.Expression == "" {
			add("policy %s: expression is required", p.Name)
			continue
		}
		if _, err := condition.Compile(p.Expression); err != nil {
			add("policy %s: %v", p.Name, err)
		}
	}

	n := cfg.Narrative
	switch n.Provider {
	case "openai":
	case "azure":
		if n.Enabled && (n.BaseURL == "" || n.APIVersion == "") {
			add("narrative: azure provider needs base_url and api_version")
		}
	default:
		add("narrative.provider %q must be openai or azure", n.Provider)
	}
	if n.TimeoutMs < 1 {
		add("narrative.timeout_ms must be positive, got %d", n.TimeoutMs)
	}
	if n.Temperature < 0 || n.Temperature > 2 {
		add("narrative.temperature %v outside [0, 2]", n.Temperature)
	}
	if n.Cache.TTLSeconds < 1 {
		add("narrative.cache.ttl_seconds must be positive, got %d", n.Cache.TTLSeconds)
	}
	if n.Breaker.FailureThreshold < 1 || n.Breaker.SuccessThreshold < 1 || n.Breaker.CooldownMs < 1 {
		add("narrative.breaker thresholds and cooldown must be positive")
	}

	switch cfg.Store.Driver {
	case "memory", "postgres":
	default:
		add("store.driver %q must be memory or postgres", cfg.Store.Driver)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ReferenceDay resolves the day date checks are measured against.
func (p PipelineConf) ReferenceDay(now time.Time) time.Time {
	if p.Today != "" {
		if t, err := time.Parse("2006-01-02", p.Today); err == nil {
			return t
		}
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
