// Package evaluation scores the engine against labelled client records.
package evaluation

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gyaneshwarpardhi/kycguard/internal/engine"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Stats is a binary confusion count with accept as the positive class.
type Stats struct {
	TP, TN, FP, FN int
}

// Add counts one prediction against its label.
func (s *Stats) Add(predictAccept, labelAccept bool) {
	switch {
	case predictAccept && labelAccept:
		s.TP++
	case predictAccept:
		s.FP++
	case labelAccept:
		s.FN++
	default:
		s.TN++
	}
}

func (s Stats) Total() int { return s.TP + s.TN + s.FP + s.FN }

// Accuracy is 0 when nothing was counted.
func (s Stats) Accuracy() float64 { return ratio(s.TP+s.TN, s.Total()) }

func (s Stats) Precision() float64 { return ratio(s.TP, s.TP+s.FP) }

func (s Stats) Recall() float64 { return ratio(s.TP, s.TP+s.FN) }

func (s Stats) F1() float64 {
	p, r := s.Precision(), s.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Matrix renders the confusion matrix as an aligned text table.
func (s Stats) Matrix() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tpredicted accept\tpredicted reject\t")
	fmt.Fprintf(tw, "actual accept\t%d\t%d\t\n", s.TP, s.FN)
	fmt.Fprintf(tw, "actual reject\t%d\t%d\t\n", s.FP, s.TN)
	_ = tw.Flush()
	return b.String()
}

// Report is the result of one evaluation run.
type Report struct {
	Stats          Stats
	FalsePositives []string
	FalseNegatives []string
	// Unlabelled records are evaluated but not scored.
	Unlabelled int
	// Errors maps record IDs to the reason they could not be evaluated.
	Errors map[string]string
	// RuleFailures counts, per rule, the records it failed in trace mode.
	RuleFailures map[string]int
	// Decisive counts, per rule, the rejections it was first to cause.
	Decisive map[string]int
}

// BatchEvaluator is the part of the engine an evaluation run needs.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, recs []*record.ClientRecord, trace bool) []engine.BatchItem
}

// Run evaluates recs in trace mode and scores the decisions against the labels.
func Run(ctx context.Context, eng BatchEvaluator, recs []*record.ClientRecord) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := eng.EvaluateBatch(ctx, recs, true)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}
	return Score(recs, items), nil
}

// Score builds the report for items, the trace-mode batch results of recs in
// the same order.
func Score(recs []*record.ClientRecord, items []engine.BatchItem) *Report {
	rep := &Report{
		Errors:       make(map[string]string),
		RuleFailures: make(map[string]int),
		Decisive:     make(map[string]int),
	}
	for i, it := range items {
		if it.Err != nil {
			rep.Errors[it.RecordID] = it.Err.Error()
			continue
		}
		for _, o := range it.Result.Trace {
			if !o.Passed {
				rep.RuleFailures[o.Rule]++
			}
		}
		d := it.Result.Decision
		if !d.Accept {
			rep.Decisive[d.FailingRule]++
		}

		label := recs[i].Label
		if label == nil {
			rep.Unlabelled++
			continue
		}
		rep.Stats.Add(d.Accept, *label)
		switch {
		case d.Accept && !*label:
			rep.FalsePositives = append(rep.FalsePositives, it.RecordID)
		case !d.Accept && *label:
			rep.FalseNegatives = append(rep.FalseNegatives, it.RecordID)
		}
	}
	return rep
}

// WriteText prints the statistics, the confusion matrix and the per-rule
// counts, most frequent first.
func (r *Report) WriteText(w io.Writer) error {
	s := r.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "records: %d scored, %d unlabelled, %d errors\n", s.Total(), r.Unlabelled, len(r.Errors))
	fmt.Fprintf(&b, "accuracy: %.1f%%  precision: %.3f  recall: %.3f  f1: %.3f\n\n",
		100*s.Accuracy(), s.Precision(), s.Recall(), s.F1())
	b.WriteString(s.Matrix())

	if len(r.RuleFailures) > 0 {
		b.WriteString("\nrule failures (decisive / total):\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, rule := range sortedByCount(r.RuleFailures) {
			fmt.Fprintf(tw, "  %s\t%d\t%d\n", rule, r.Decisive[rule], r.RuleFailures[rule])
		}
		_ = tw.Flush()
	}
	writeIDs(&b, "false positives", r.FalsePositives)
	writeIDs(&b, "false negatives", r.FalseNegatives)
	if len(r.Errors) > 0 {
		b.WriteString("\nerrors:\n")
		ids := make([]string, 0, len(r.Errors))
		for id := range r.Errors {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "  %s: %s\n", id, r.Errors[id])
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeIDs(b *strings.Builder, title string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n  %s\n", title, strings.Join(ids, "\n  "))
}

func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
