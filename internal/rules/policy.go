package rules

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/kycguard/internal/condition"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Policy builds a rule from a condition expression over record.Fields. The
// record is rejected when the expression holds; an expression that cannot be
// evaluated on a record skips the rule for it.
func Policy(name, expression, reason string) (Rule, error) {
	prog, err := condition.Compile(expression)
	if err != nil {
		return Rule{}, fmt.Errorf("policy %q: %w", name, err)
	}
	if reason == "" {
		reason = expression
	}
	code := "policy_" + name
	return Rule{
		Name:        name,
		Description: reason,
		Check: func(_ context.Context, rec *record.ClientRecord) Outcome {
			hit, err := prog.Eval(condition.Fields(record.Fields(rec)))
			switch {
			case err != nil:
				return skipped("policy not evaluable: %v", err)
			case hit:
				return failed(code, "%s", reason)
			}
			return passed()
		},
	}, nil
}
