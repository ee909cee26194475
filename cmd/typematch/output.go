package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/worker"
)

// checkOutput is the report for one value, also used as the JSON output
// structure.
type checkOutput struct {
	Source   string            `json:"source"`
	Valid    bool              `json:"valid"`
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
	Issues   []typematch.Issue `json:"issues,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

func jobOutput(source string, r *worker.JobResult) checkOutput {
	if r.Error != nil {
		return checkOutput{
			Source: source,
			Errors: 1,
			Issues: []typematch.Issue{
				typematch.Error(typematch.IssueTypeTimeout).Diagnostics(r.Error.Error()).Build(),
			},
		}
	}
	res := r.Result
	return checkOutput{
		Source:   source,
		Valid:    !res.HasErrors(),
		Errors:   res.ErrorCount(),
		Warnings: res.WarningCount(),
		Issues:   append([]typematch.Issue(nil), res.Issues...),
		Duration: time.Duration(r.Duration).Round(time.Microsecond).String(),
	}
}

func inputErrorOutput(in input) checkOutput {
	return checkOutput{
		Source: in.name,
		Errors: 1,
		Issues: []typematch.Issue{
			typematch.Error(typematch.IssueTypeProcessing).Diagnostics(in.err.Error()).Build(),
		},
	}
}

// summary totals one run.
type summary struct {
	Values     int
	Failed     int
	Warnings   int
	Bytes      uint64
	Descriptor string
	Elapsed    time.Duration
}

func summarize(outputs []checkOutput, inputs []input, t *descriptor.Type, elapsed time.Duration) summary {
	s := summary{Values: len(outputs), Descriptor: t.Name(), Elapsed: elapsed}
	for _, out := range outputs {
		if !out.Valid {
			s.Failed++
		}
		s.Warnings += out.Warnings
	}
	for _, in := range inputs {
		s.Bytes += uint64(in.size)
	}
	return s
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBold   = "\x1b[1m"
)

// printer writes reports, colouring them when the output is a terminal.
type printer struct {
	w     io.Writer
	color bool
	quiet bool
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) printText(out checkOutput) {
	if out.Valid && p.quiet {
		return
	}

	status := p.paint(ansiGreen, "PASS")
	if !out.Valid {
		status = p.paint(ansiRed, "FAIL")
	}
	fmt.Fprintf(p.w, "%s %s\n", status, out.Source)

	for _, iss := range out.Issues {
		label := p.paint(ansiRed, "error")
		if iss.IsWarning() {
			if p.quiet {
				continue
			}
			label = p.paint(ansiYellow, "warn ")
		}
		fmt.Fprintf(p.w, "  %s [%s] %s\n", label, iss.Code, iss.Diagnostics)
	}
}

func (p *printer) printSummary(s summary) {
	line := fmt.Sprintf("Checked %s (%s) against %s in %s",
		english.Plural(s.Values, "value", ""),
		humanize.Bytes(s.Bytes),
		s.Descriptor,
		s.Elapsed.Round(time.Microsecond))

	var result string
	switch {
	case s.Failed > 0:
		result = p.paint(ansiRed, humanize.Comma(int64(s.Failed))+" failed")
	default:
		result = p.paint(ansiGreen, "all passed")
	}
	if s.Warnings > 0 {
		result += ", " + p.paint(ansiYellow, english.Plural(s.Warnings, "warning", ""))
	}
	fmt.Fprintf(p.w, "\n%s: %s\n", p.paint(ansiBold, line), result)
}

func (p *printer) printJSON(outputs []checkOutput) error {
	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}
