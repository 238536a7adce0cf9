// Package engine evaluates client records on a bounded worker pool.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/kycguard/internal/config"
	"github.com/gyaneshwarpardhi/kycguard/internal/metrics"
	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
	"github.com/gyaneshwarpardhi/kycguard/internal/rules"
)

var (
	ErrQueueFull = errors.New("record queue full")
	ErrTimeout   = errors.New("record evaluation timed out")
	ErrShutdown  = errors.New("engine shut down")
)

// Result is the outcome of evaluating one record. Trace is only set in trace mode.
type Result struct {
	Decision   pipeline.Decision `json:"decision"`
	Trace      []rules.Outcome   `json:"trace,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// Engine runs records through the current pipeline.
type Engine struct {
	pipe atomic.Pointer[pipeline.Pipeline]
	pool *workerPool[*work, *Result]
	conf config.EngineConf
}

type work struct {
	ctx     context.Context
	rec     *record.ClientRecord
	trace   bool
	resultC chan *Result
}

// New creates an Engine using conf and starts the worker pool. Workers stop
// when ctx is cancelled or Shutdown is called.
func New(ctx context.Context, p *pipeline.Pipeline, conf config.EngineConf) *Engine {
	e := &Engine{conf: conf}
	e.pipe.Store(p)
	e.pool = newWorkerPool[*work, *Result](
		ctx,
		conf.Workers,
		conf.QueueDepth,
		func(_ context.Context, w *work) (*Result, error) {
			if err := w.ctx.Err(); err != nil {
				return nil, err // caller already gave up
			}
			res := e.evaluate(w.ctx, w.rec, w.trace)
			w.resultC <- res
			return res, nil
		},
	)
	return e
}

// SwapPipeline atomically replaces the pipeline (used on hot reload). Records
// already being evaluated finish on the pipeline they started with.
func (e *Engine) SwapPipeline(p *pipeline.Pipeline) {
	e.pipe.Store(p)
}

// Pipeline returns the pipeline new records are evaluated with.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipe.Load()
}

// Evaluate decides one record. It fails fast with ErrQueueFull when the queue
// has no room and with ErrTimeout when the record takes longer than the
// configured per-record timeout.
func (e *Engine) Evaluate(ctx context.Context, rec *record.ClientRecord) (pipeline.Decision, error) {
	res, err := e.submit(ctx, rec, false, false)
	if err != nil {
		return pipeline.Decision{}, err
	}
	return res.Decision, nil
}

// Trace runs every rule on the record and returns all outcomes along with the
// decision the fail-fast pipeline reaches.
func (e *Engine) Trace(ctx context.Context, rec *record.ClientRecord) (*Result, error) {
	return e.submit(ctx, rec, true, false)
}

// BatchItem is the result for one record of a batch. Err is set instead of
// Result when the record could not be evaluated.
type BatchItem struct {
	RecordID string
	Result   *Result
	Err      error
}

// EvaluateBatch evaluates recs concurrently through the pool and returns one
// item per record in input order. Unlike Evaluate it waits for queue space, so a
// batch may be larger than the queue. With trace set every rule runs.
func (e *Engine) EvaluateBatch(ctx context.Context, recs []*record.ClientRecord, trace bool) []BatchItem {
	items := make([]BatchItem, len(recs))
	var g errgroup.Group
	for i, rec := range recs {
		items[i].RecordID = rec.ID
		g.Go(func() error {
			items[i].Result, items[i].Err = e.submit(ctx, rec, trace, true)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func (e *Engine) submit(ctx context.Context, rec *record.ClientRecord, trace, wait bool) (*Result, error) {
	timeout := time.Duration(e.conf.RecordTimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w := &work{ctx: ctx, rec: rec, trace: trace, resultC: make(chan *Result, 1)}
	if wait {
		if err := e.pool.SubmitWait(ctx, w); err != nil {
			return nil, e.waitErr(err, timeout)
		}
	} else if !e.pool.Submit(w) {
		metrics.RecordsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RecordsEnqueued.Inc()

	select {
	case res := <-w.resultC:
		return res, nil
	case <-ctx.Done():
		return nil, e.waitErr(ctx.Err(), timeout)
	}
}

func (e *Engine) waitErr(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	return err
}

func (e *Engine) evaluate(ctx context.Context, rec *record.ClientRecord, trace bool) *Result {
	start := time.Now()
	p := e.pipe.Load()

	res := &Result{}
	if trace {
		res.Trace = p.EvaluateAll(ctx, rec)
		res.Decision = pipeline.Decide(rec.ID, res.Trace)
	} else {
		res.Decision = p.Evaluate(ctx, rec)
	}

	res.DurationMs = time.Since(start).Milliseconds()
	metrics.EvaluationDuration.Observe(float64(res.DurationMs))
	return res
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	util := 0.0
	if e.pool.QueueCap() > 0 {
		util = float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
	}
	metrics.QueueUtilization.Set(util)
	return util
}

// Shutdown stops accepting records and waits for queued ones to finish.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
