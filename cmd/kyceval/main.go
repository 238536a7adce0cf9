// Command kyceval scores the rule engine against a tree of labelled client
// folders and prints accuracy, the confusion matrix and per-rule counts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gyaneshwarpardhi/kycguard/internal/config"
	"github.com/gyaneshwarpardhi/kycguard/internal/engine"
	"github.com/gyaneshwarpardhi/kycguard/internal/evaluation"
	"github.com/gyaneshwarpardhi/kycguard/internal/narrative"
	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

func main() {
	cfgPath := flag.String("config", "configs/kyc.yaml", "Path to KYC YAML config; defaults apply when absent")
	trace := flag.Bool("trace", false, "Print every rule outcome of every record")
	limit := flag.Int("limit", 0, "Evaluate at most this many records (0 = all)")
	seed := flag.Int64("seed", 42, "Shuffle seed used with -limit")
	today := flag.String("today", "", "Reference day YYYY-MM-DD (overrides pipeline.today)")
	verbose := flag.Bool("v", false, "Log every rejection")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: kyceval [flags] <clients-dir>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	_ = godotenv.Load()

	if err := run(flag.Arg(0), *cfgPath, *today, *limit, *seed, *trace, logger); err != nil {
		slog.Error("evaluation failed", "err", err)
		os.Exit(1)
	}
}

func run(root, cfgPath, today string, limit int, seed int64, trace bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cfgPath, logger)
	if err != nil {
		return err
	}
	if today != "" {
		cfg.Pipeline.Today = today
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	extractor, release := narrative.FromConfig(ctx, cfg.Narrative, logger)
	defer release()
	p, err := pipeline.Compose(cfg, extractor, logger, pipeline.WithSink(pipeline.LogSink{Logger: logger}))
	if err != nil {
		return err
	}

	recs, err := record.LoadTree(ctx, root, cfg.Engine.Workers)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no client folders below %s", root)
	}
	if limit > 0 && limit < len(recs) {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
		recs = recs[:limit]
	}

	eng := engine.New(ctx, p, cfg.Engine)
	defer eng.Shutdown()

	items := eng.EvaluateBatch(ctx, recs, true)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}
	if trace {
		printTraces(items)
	}
	return evaluation.Score(recs, items).WriteText(os.Stdout)
}

// loadConfig reads cfgPath, or falls back to the defaults when it does not exist.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	l, err := config.NewLoader(path, logger)
	if err == nil {
		return l.Config(), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	logger.Warn("config not found, using defaults", "path", path)
	return config.Parse([]byte("version: default\n"))
}

func printTraces(items []engine.BatchItem) {
	for _, it := range items {
		if it.Err != nil {
			fmt.Printf("%s: error: %v\n", it.RecordID, it.Err)
			continue
		}
		verdict := "ACCEPT"
		if !it.Result.Decision.Accept {
			verdict = "REJECT"
		}
		fmt.Printf("%s: %s\n", it.RecordID, verdict)
		for _, o := range it.Result.Trace {
			status := "pass"
			switch {
			case !o.Passed:
				status = "FAIL"
			case o.Skipped:
				status = "skip"
			}
			line := fmt.Sprintf("  %-22s %s", o.Rule, status)
			if o.Code != "" {
				line += " " + o.Code
			}
			if o.Reason != "" {
				line += ": " + o.Reason
			}
			fmt.Println(line)
		}
	}
	fmt.Println()
}
