package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcheck/typematch/engine"
	"github.com/structcheck/typematch/pkg/logger"
	"github.com/structcheck/typematch/schema"
)

const testSchema = `version: 1.0.0
types:
  - name: Movie
    kind: typed_mapping
    fields:
      - {name: title, type: str}
      - {name: year, type: int, optional: true}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("typematch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlags(t *testing.T) {
	config, err := parseFlags(newTestFlags(), []string{
		"-schema", "types.yaml",
		"-type", "List[Movie]",
		"-policy", "error",
		"-strategy", "first",
		"-output", "json",
		"-format", "yaml",
		"-log-level", "debug",
		"a.json", "b.yaml",
	})
	require.NoError(t, err)

	assert.Equal(t, "types.yaml", config.Schema)
	assert.Equal(t, "List[Movie]", config.Type)
	assert.Equal(t, engine.ForwardRefError, config.Policy)
	assert.Equal(t, engine.FirstItem, config.Strategy)
	assert.Equal(t, OutputJSON, config.Output)
	assert.Equal(t, schema.FormatYAML, config.StdinFormat)
	assert.Equal(t, logger.LevelDebug, config.LogLevel)
	assert.Equal(t, []string{"a.json", "b.yaml"}, config.Files)
}

func TestParseFlags_Defaults(t *testing.T) {
	config, err := parseFlags(newTestFlags(), []string{"-type", "int", "v.json"})
	require.NoError(t, err)

	assert.Equal(t, engine.ForwardRefWarn, config.Policy)
	assert.Equal(t, engine.AllItems, config.Strategy)
	assert.Equal(t, OutputText, config.Output)
	assert.Equal(t, schema.FormatJSON, config.StdinFormat)
	assert.Equal(t, logger.LevelWarn, config.LogLevel)
}

func TestParseFlags_Errors(t *testing.T) {
	bad := [][]string{
		{"-policy", "maybe"},
		{"-strategy", "some"},
		{"-output", "xml"},
		{"-format", "toml"},
		{"-log-level", "loud"},
		{"-unknown"},
	}
	for _, args := range bad {
		_, err := parseFlags(newTestFlags(), args)
		assert.Error(t, err, "%v", args)
	}
}

func runApp(t *testing.T, config *Config, stdin string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(config, strings.NewReader(stdin), &stdout, &stderr)
	code := a.run(context.Background())
	return code, stdout.String(), stderr.String()
}

func TestRun_Text(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"a": [1, 2]}`)
	bad := writeFile(t, dir, "bad.yaml", "a: [1, x]\n")

	code, out, _ := runApp(t, &Config{
		Type:  "Dict[str, List[int]]",
		Files: []string{good, bad},
	}, "")

	assert.Equal(t, exitMismatch, code)
	assert.Contains(t, out, "PASS "+good)
	assert.Contains(t, out, "FAIL "+bad)
	assert.Contains(t, out, "[mismatch] item 1 of value of key 'a' is not an instance of int")
	assert.Contains(t, out, "Checked 2 values")
	assert.Contains(t, out, "against Dict[string, List[int]]")
	assert.Contains(t, out, "1 failed")
	assert.NotContains(t, out, "\x1b[")
}

func TestRun_AllPass(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "v.json", `[1, 2, 3]`)

	code, out, _ := runApp(t, &Config{Type: "List[int]", Files: []string{path}, Quiet: true}, "")
	assert.Equal(t, exitOK, code)
	assert.NotContains(t, out, "PASS")
	assert.Contains(t, out, "all passed")
}

func TestRun_Color(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "v.json", `"x"`)

	_, out, _ := runApp(t, &Config{Type: "int", Files: []string{path}, Color: true}, "")
	assert.Contains(t, out, ansiRed+"FAIL"+ansiReset)
}

func TestRun_SchemaJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "types.yaml", testSchema)
	movies := writeFile(t, dir, "movies.json", `[{"title": "Alien", "year": 1979}, {"year": 1986}]`)

	code, out, _ := runApp(t, &Config{
		Schema: schemaPath,
		Type:   "List[Movie]",
		Output: OutputJSON,
		Policy: engine.ForwardRefError,
		Files:  []string{movies},
	}, "")
	assert.Equal(t, exitMismatch, code)

	var outputs []checkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &outputs))
	require.Len(t, outputs, 1)
	assert.False(t, outputs[0].Valid)
	assert.Equal(t, 1, outputs[0].Errors)
	require.Len(t, outputs[0].Issues, 1)
	assert.Equal(t, `item 1 is missing required key(s): "title"`, outputs[0].Issues[0].Diagnostics)
	assert.Equal(t, []string{"item 1"}, outputs[0].Issues[0].Path)
}

func TestRun_UnresolvedWarning(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "v.json", `[1]`)

	code, out, _ := runApp(t, &Config{Type: "List[Unknown]", Files: []string{path}}, "")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, `[unresolved] Cannot resolve forward reference "Unknown"`)
	assert.Contains(t, out, "1 warning")
}

func TestRun_Stdin(t *testing.T) {
	code, out, _ := runApp(t, &Config{
		Type:        "Dict[str, int]",
		StdinFormat: schema.FormatYAML,
		Files:       []string{"-"},
	}, "a: 1\nb: 2\n")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "PASS stdin")
}

func TestRun_InputErrors(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.json", `{"a": `)
	unknown := writeFile(t, dir, "value.txt", `1`)

	code, out, _ := runApp(t, &Config{
		Type:  "Any",
		Files: []string{broken, unknown, filepath.Join(dir, "*.missing")},
	}, "")
	assert.Equal(t, exitMismatch, code)
	assert.Equal(t, 3, strings.Count(out, "FAIL"))
	assert.Contains(t, out, "[processing] no files match pattern")
}

func TestRun_SetupErrors(t *testing.T) {
	code, _, errOut := runApp(t, &Config{Type: "List[", Files: []string{"x.json"}}, "")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "parsing -type")

	code, _, errOut = runApp(t, &Config{Schema: "missing.yaml", Type: "int", Files: []string{"x.json"}}, "")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "missing.yaml")
}

func TestWatch_RejectsStdin(t *testing.T) {
	var stderr bytes.Buffer
	a := newApp(&Config{Type: "int", Files: []string{"-"}, Watch: true}, strings.NewReader(""), io.Discard, &stderr)
	assert.Equal(t, exitUsage, a.watch(context.Background()))
	assert.Contains(t, stderr.String(), "cannot read from stdin")
}

func TestWatchTargets(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `1`)
	b := writeFile(t, dir, "b.json", `2`)
	pending := filepath.Join(dir, "later.json")

	app := newApp(&Config{
		Schema: filepath.Join(dir, "types.yaml"),
		Files:  []string{filepath.Join(dir, "*.json"), pending},
	}, nil, io.Discard, io.Discard)

	targets := app.watchTargets()
	assert.True(t, targets[a])
	assert.True(t, targets[b])
	assert.True(t, targets[pending])
	assert.True(t, targets[filepath.Join(dir, "types.yaml")])
	assert.Equal(t, map[string]bool{dir: true}, watchDirs(targets))
}

func TestRelevant(t *testing.T) {
	targets := map[string]bool{filepath.Clean("/data/v.json"): true}
	patterns := []string{"/data/*.yaml"}

	assert.True(t, relevant(fsnotify.Event{Name: "/data/v.json", Op: fsnotify.Write}, targets, patterns))
	assert.True(t, relevant(fsnotify.Event{Name: "/data/./v.json", Op: fsnotify.Create}, targets, patterns))
	assert.False(t, relevant(fsnotify.Event{Name: "/data/v.json", Op: fsnotify.Chmod}, targets, patterns))
	assert.False(t, relevant(fsnotify.Event{Name: "/data/other.json", Op: fsnotify.Write}, targets, patterns))

	// New files matching a pattern count even before they are targets.
	assert.True(t, relevant(fsnotify.Event{Name: "/data/new.yaml", Op: fsnotify.Create}, targets, patterns))
	assert.False(t, relevant(fsnotify.Event{Name: "/data/new.yaml", Op: fsnotify.Chmod}, targets, patterns))
}

// lockedBuffer is a bytes.Buffer safe for the watcher goroutine and the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_PicksUpNewGlobMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `1`)

	var stdout, stderr lockedBuffer
	a := newApp(&Config{
		Type:     "int",
		Files:    []string{filepath.Join(dir, "*.json")},
		LogLevel: logger.LevelInfo,
	}, nil, &stdout, &stderr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- a.watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return strings.Contains(stderr.String(), "watching") },
		5*time.Second, 10*time.Millisecond)

	b := writeFile(t, dir, "b.json", `"x"`)
	require.Eventually(t, func() bool { return strings.Contains(stdout.String(), "FAIL "+b) },
		5*time.Second, 20*time.Millisecond)

	c := writeFile(t, dir, "c.json", `2`)
	require.Eventually(t, func() bool { return strings.Contains(stdout.String(), "PASS "+c) },
		5*time.Second, 20*time.Millisecond)
}

func TestRun_YAMLTupleAndSet(t *testing.T) {
	dir := t.TempDir()
	pair := writeFile(t, dir, "pair.yaml", "!tuple [1, a]\n")
	ids := writeFile(t, dir, "ids.yaml", "!!set {1, 2, 3}\n")

	code, out, _ := runApp(t, &Config{Type: "Tuple[int, str]", Files: []string{pair}}, "")
	assert.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "PASS "+pair)

	code, out, _ = runApp(t, &Config{Type: "Set[int]", Files: []string{ids}}, "")
	assert.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "PASS "+ids)

	code, out, _ = runApp(t, &Config{Type: "Set[str]", Files: []string{ids}}, "")
	assert.Equal(t, exitMismatch, code)
	assert.Contains(t, out, "is not an instance of string")
}
