// Package main implements the typematch CLI tool, which checks JSON and
// YAML values against a type expression.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/engine"
	"github.com/structcheck/typematch/pkg/logger"
	"github.com/structcheck/typematch/schema"
)

const usage = `typematch - check JSON and YAML values against a type expression

Usage:
  typematch [options] -type <expr> <file>...
  typematch [options] -type <expr> -      (read from stdin)

Examples:
  typematch -type 'Dict[str, List[int]]' scores.json
  typematch -schema types.yaml -type Movie movies/*.yaml
  typematch -schema types.yaml -type 'List[Movie]' -policy error -output json catalog.json
  typematch -schema types.yaml -type Movie -watch movie.yaml
  cat value.json | typematch -type 'int | None' -

Options:
`

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration.
type Config struct {
	Schema      string
	Type        string
	Policy      engine.ForwardRefPolicy
	Strategy    engine.CollectionStrategy
	Output      OutputFormat
	StdinFormat schema.Format
	Workers     int
	LogLevel    logger.Level
	Watch       bool
	Quiet       bool
	Color       bool
	ShowVersion bool
	Help        bool
	Files       []string
}

func main() {
	config, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if config.ShowVersion {
		fmt.Printf("typematch v%s\n", typematch.Version)
		os.Exit(0)
	}

	if config.Help || config.Type == "" || len(config.Files) == 0 {
		flag.Usage()
		os.Exit(0)
	}

	config.Color = colorEnabled(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(config, os.Stdin, os.Stdout, os.Stderr)
	var exitCode int
	if config.Watch {
		exitCode = app.watch(ctx)
	} else {
		exitCode = app.run(ctx)
	}
	os.Exit(exitCode)
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	config := &Config{
		Output:   OutputText,
		LogLevel: logger.LevelWarn,
	}

	var policy, strategy, output, stdinFormat, logLevel string

	fs.StringVar(&config.Schema, "schema", "", "YAML schema file declaring named types")
	fs.StringVar(&config.Type, "type", "", "Type expression to check values against (e.g. 'Dict[str, List[int]]')")
	fs.StringVar(&policy, "policy", "warn", "Unresolved forward references: error, warn, ignore")
	fs.StringVar(&strategy, "strategy", "all", "Collection items to check: all, first")
	fs.StringVar(&output, "output", "text", "Output format: text, json")
	fs.StringVar(&stdinFormat, "format", "json", "Format of values read from stdin: json, yaml")
	fs.IntVar(&config.Workers, "workers", 0, "Number of parallel workers (0 = number of CPUs)")
	fs.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error, none")
	fs.BoolVar(&config.Watch, "watch", false, "Re-check when the schema or value files change")
	fs.BoolVar(&config.Quiet, "quiet", false, "Only report values that fail")
	fs.BoolVar(&config.ShowVersion, "v", false, "Show version")
	fs.BoolVar(&config.Help, "help", false, "Show help")

	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if config.Policy, err = engine.ParseForwardRefPolicy(policy); err != nil {
		return nil, err
	}
	if config.Strategy, err = engine.ParseCollectionStrategy(strategy); err != nil {
		return nil, err
	}
	if config.LogLevel, err = logger.ParseLevel(logLevel); err != nil {
		return nil, err
	}

	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	case "text":
		config.Output = OutputText
	default:
		return nil, fmt.Errorf("unknown output format %q", output)
	}

	switch strings.ToLower(stdinFormat) {
	case "json":
		config.StdinFormat = schema.FormatJSON
	case "yaml", "yml":
		config.StdinFormat = schema.FormatYAML
	default:
		return nil, fmt.Errorf("unknown stdin format %q", stdinFormat)
	}

	config.Files = fs.Args()
	return config, nil
}

// colorEnabled reports whether w is a terminal that accepts ANSI colours.
func colorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// app runs checks for one CLI invocation.
type app struct {
	config *Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *logger.Logger
}

func newApp(config *Config, stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		config: config,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    logger.New(stderr, config.LogLevel),
	}
}
