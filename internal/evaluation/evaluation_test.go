package evaluation

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kycguard/internal/engine"
	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
	"github.com/gyaneshwarpardhi/kycguard/internal/rules"
)

func TestStats(t *testing.T) {
	var s Stats
	for _, c := range []struct{ predict, label bool }{
		{true, true}, {true, true}, {true, false}, {false, true}, {false, false}, {false, false}, {false, false},
	} {
		s.Add(c.predict, c.label)
	}
	assert.Equal(t, Stats{TP: 2, TN: 3, FP: 1, FN: 1}, s)
	assert.Equal(t, 7, s.Total())
	assert.InDelta(t, 5.0/7, s.Accuracy(), 1e-9)
	assert.InDelta(t, 2.0/3, s.Precision(), 1e-9)
	assert.InDelta(t, 2.0/3, s.Recall(), 1e-9)
	assert.InDelta(t, 2.0/3, s.F1(), 1e-9)

	assert.Zero(t, Stats{}.Accuracy())
	assert.Zero(t, Stats{}.F1())
}

func TestMatrix(t *testing.T) {
	m := Stats{TP: 12, TN: 7, FP: 3, FN: 1}.Matrix()
	assert.Contains(t, m, "predicted accept")
	assert.Regexp(t, `actual accept\s+12\s+1`, m)
	assert.Regexp(t, `actual reject\s+3\s+7`, m)
}

type fakeEngine struct{ items []engine.BatchItem }

func (f fakeEngine) EvaluateBatch(context.Context, []*record.ClientRecord, bool) []engine.BatchItem {
	return f.items
}

func labelled(id string, accept *bool) *record.ClientRecord {
	return record.New(id, record.AccountForm{}, record.ClientProfile{}, record.ClientDescription{}, record.Passport{}, accept)
}

func result(id string, outcomes ...rules.Outcome) *engine.Result {
	return &engine.Result{Decision: pipeline.Decide(id, outcomes), Trace: outcomes}
}

func TestRun(t *testing.T) {
	yes, no := true, false
	pass := func(r string) rules.Outcome { return rules.Outcome{Rule: r, Passed: true} }
	fail := func(r string) rules.Outcome { return rules.Outcome{Rule: r, Code: r + "_mismatch"} }

	recs := []*record.ClientRecord{
		labelled("tp", &yes), labelled("fn", &yes), labelled("tn", &no),
		labelled("fp", &no), labelled("nolabel", nil), labelled("broken", &yes),
	}
	eng := fakeEngine{items: []engine.BatchItem{
		{RecordID: "tp", Result: result("tp", pass("email"), pass("phone"))},
		{RecordID: "fn", Result: result("fn", pass("email"), fail("phone"))},
		{RecordID: "tn", Result: result("tn", fail("email"), fail("phone"))},
		{RecordID: "fp", Result: result("fp", pass("email"), pass("phone"))},
		{RecordID: "nolabel", Result: result("nolabel", fail("email"), pass("phone"))},
		{RecordID: "broken", Err: errors.New("record evaluation timed out")},
	}}

	rep, err := Run(context.Background(), eng, recs)
	require.NoError(t, err)

	assert.Equal(t, Stats{TP: 1, TN: 1, FP: 1, FN: 1}, rep.Stats)
	assert.Equal(t, []string{"fp"}, rep.FalsePositives)
	assert.Equal(t, []string{"fn"}, rep.FalseNegatives)
	assert.Equal(t, 1, rep.Unlabelled)
	assert.Contains(t, rep.Errors, "broken")
	assert.Equal(t, map[string]int{"email": 2, "phone": 2}, rep.RuleFailures)
	assert.Equal(t, map[string]int{"email": 2, "phone": 1}, rep.Decisive)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "accuracy: 50.0%")
	assert.Contains(t, out, "false positives:\n  fp")
	assert.Contains(t, out, "broken: record evaluation timed out")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, fakeEngine{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
