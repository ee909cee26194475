package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/engine"
	"github.com/structcheck/typematch/resolve"
	"github.com/structcheck/typematch/schema"
	"github.com/structcheck/typematch/worker"
)

// Exit codes.
const (
	exitOK       = 0
	exitMismatch = 1
	exitUsage    = 2
)

// input is one decoded value file.
type input struct {
	name  string
	value any
	size  int
	err   error
}

// run checks every input once and prints the report.
func (a *app) run(ctx context.Context) int {
	metrics := typematch.NewMetrics()
	cfg, t, err := a.prepare(metrics)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitUsage
	}

	inputs := a.readInputs()
	jobs := make([]worker.Job, 0, len(inputs))
	for _, in := range inputs {
		if in.err != nil {
			continue
		}
		job := worker.NewJob(in.value, t)
		job.Source = in.name
		jobs = append(jobs, job)
	}

	a.log.Debug("checking %d value(s) against %s", len(jobs), t.Name())
	start := time.Now()
	batch := worker.NewBatchChecker(cfg, a.config.Workers).CheckBatch(ctx, jobs)
	elapsed := time.Since(start)
	defer batch.Release()

	outputs := make([]checkOutput, 0, len(inputs))
	results := batch.Results
	for _, in := range inputs {
		if in.err != nil {
			outputs = append(outputs, inputErrorOutput(in))
			continue
		}
		outputs = append(outputs, jobOutput(in.name, results[0]))
		results = results[1:]
	}

	p := &printer{w: a.stdout, color: a.config.Color, quiet: a.config.Quiet}
	if a.config.Output == OutputJSON {
		if err := p.printJSON(outputs); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return exitUsage
		}
	} else {
		for _, out := range outputs {
			p.printText(out)
		}
		p.printSummary(summarize(outputs, inputs, t, elapsed))
	}

	a.log.Debug("%d check(s), pass rate %.0f%%, resolver cache hit rate %.0f%%",
		metrics.ChecksTotal(), metrics.PassRate()*100, metrics.CacheHitRate()*100)

	for _, out := range outputs {
		if !out.Valid {
			return exitMismatch
		}
	}
	return exitOK
}

// prepare loads the schema, parses the type expression and builds the
// engine configuration shared by all workers.
func (a *app) prepare(metrics *typematch.Metrics) (*engine.Config, *descriptor.Type, error) {
	classes := schema.NewClasses()
	parse := func(expr string) (*descriptor.Type, error) {
		return schema.ParseType(expr, classes)
	}

	opts := []engine.Option{
		engine.WithForwardRefPolicy(a.config.Policy),
		engine.WithCollectionStrategy(a.config.Strategy),
		engine.WithLogger(a.log),
		engine.WithMetrics(metrics),
	}

	if a.config.Schema != "" {
		s, err := schema.Load(a.config.Schema, classes)
		if err != nil {
			return nil, nil, err
		}
		a.log.Info("loaded schema %s (version %s, %d types)", s.Source(), s.Version(), len(s.Names()))
		parse = s.Parse
		opts = append(opts, engine.WithResolver(resolve.NewCachingResolver(s, 0, metrics)))
	}

	t, err := parse(a.config.Type)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing -type: %w", err)
	}
	return engine.NewConfig(opts...), t, nil
}

// readInputs expands glob patterns and decodes every value file.
func (a *app) readInputs() []input {
	var inputs []input
	for _, pattern := range a.config.Files {
		if pattern == "-" {
			inputs = append(inputs, a.readStdin())
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			inputs = append(inputs, input{name: pattern, err: fmt.Errorf("bad pattern: %w", err)})
			continue
		}
		if len(matches) == 0 {
			inputs = append(inputs, input{name: pattern, err: fmt.Errorf("no files match pattern")})
			continue
		}
		for _, path := range matches {
			inputs = append(inputs, readFile(path))
		}
	}
	return inputs
}

func (a *app) readStdin() input {
	in := input{name: "stdin"}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		in.err = fmt.Errorf("reading stdin: %w", err)
		return in
	}
	in.size = len(data)
	in.value, in.err = schema.DecodeValue(data, a.config.StdinFormat)
	return in
}

func readFile(path string) input {
	in := input{name: path}
	format, err := schema.FormatOf(path)
	if err != nil {
		in.err = err
		return in
	}
	data, err := os.ReadFile(path)
	if err != nil {
		in.err = err
		return in
	}
	in.size = len(data)
	if in.value, err = schema.DecodeValue(data, format); err != nil {
		in.err = fmt.Errorf("decoding %s: %w", format, err)
	}
	return in
}
