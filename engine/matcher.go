// Package engine matches runtime values against type descriptors.
//
// Match is the single recursive entry point: it normalizes a descriptor,
// dispatches it through a Registry to a shape checker, and every checker
// calls back into Match for nested elements. Failures are *MismatchError
// values whose path grows by one segment per enclosing frame.
package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/pkg/logger"
	"github.com/structcheck/typematch/resolve"
	"github.com/structcheck/typematch/value"
)

// emptyTupleMarker stands in for the argument list of Tuple[()] so that the
// tuple checker can tell it apart from an unparameterized tuple.
var emptyTupleMarker = &descriptor.Type{Kind: descriptor.KindGeneric, Origin: descriptor.OriginTuple, Parameterized: true}

// Matcher carries the state of one top-level check. It is cheap to create
// and must not be shared between goroutines while a check is running.
type Matcher struct {
	ctx      context.Context
	cfg      *Config
	registry *Registry
	warnings []typematch.Issue
}

// NewMatcher creates a matcher for cfg. A nil cfg uses DefaultConfig().
func NewMatcher(ctx context.Context, cfg *Config) *Matcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Matcher{ctx: ctx, cfg: cfg, registry: reg}
}

// Context returns the context passed to resolvers.
func (m *Matcher) Context() context.Context { return m.ctx }

// Config returns the active configuration.
func (m *Matcher) Config() *Config { return m.cfg }

// SelfType returns the receiver type for Self descriptors, if any.
func (m *Matcher) SelfType() reflect.Type { return m.cfg.SelfType }

// Warnings returns the warnings emitted so far.
func (m *Matcher) Warnings() []typematch.Issue { return m.warnings }

// Match checks v against t.
func (m *Matcher) Match(v any, t *descriptor.Type) error {
	if t.IsAny() {
		return nil
	}
	if _, ok := v.(value.Exempt); ok {
		return nil
	}

	if t.Kind == descriptor.KindForwardRef {
		resolved, err := m.resolveRef(t)
		if resolved == nil {
			return err
		}
		t = resolved
		if t.IsAny() {
			return nil
		}
	}

	var extras []any
	if t.Kind == descriptor.KindAnnotated {
		extras = t.Extras
		t = t.Supertype
		if t.Kind == descriptor.KindForwardRef {
			resolved, err := m.resolveRef(t)
			if resolved == nil {
				return err
			}
			t = resolved
		}
		if t.IsAny() {
			return nil
		}
	}

	args := t.Args
	if t.Kind == descriptor.KindGeneric && t.Origin == descriptor.OriginTuple && t.Parameterized && len(args) == 0 {
		args = []*descriptor.Type{emptyTupleMarker}
	}

	if checker := m.registry.Lookup(t, args, extras); checker != nil {
		return checker(v, t, args, m)
	}
	return m.fallback(v, t)
}

// fallback is the plain instance-of check used when no checker applies.
func (m *Matcher) fallback(v any, t *descriptor.Type) error {
	switch t.Kind {
	case descriptor.KindNone:
		if v != nil {
			return Mismatch("is not None")
		}
		return nil
	case descriptor.KindNever:
		return Mismatch("is not allowed (declared NoReturn)")
	case descriptor.KindClass:
		if t.GoType == nil {
			return malformed("class descriptor without a type")
		}
		if !isInstance(v, t.GoType) {
			return Mismatch("is not an instance of %s", value.TypeName(t.GoType))
		}
		return nil
	}
	return malformed("no checker for %s descriptor %s", t.Kind, t.Name())
}

// resolveRef resolves a forward reference. A nil descriptor with a nil
// error means the policy chose to treat the value as unchecked. The policy
// applies only when the name is unknown; any other resolver failure is
// returned as is.
func (m *Matcher) resolveRef(ref *descriptor.Type) (*descriptor.Type, error) {
	var cause error
	if m.cfg.Resolver != nil {
		t, err := m.cfg.Resolver.Resolve(m.ctx, ref.Label)
		switch {
		case err == nil && t != nil:
			return t, nil
		case err != nil && !errors.Is(err, resolve.ErrNotFound):
			return nil, fmt.Errorf("resolving %q: %w", ref.Label, err)
		}
		cause = err
	}

	switch m.cfg.ForwardRefPolicy {
	case ForwardRefError:
		return nil, &UnresolvedError{Name: ref.Label, Cause: cause}
	case ForwardRefWarn:
		m.Warn(typematch.IssueTypeUnresolved, "Cannot resolve forward reference %q", ref.Label)
	}
	return nil, nil
}

// Warn emits a non-fatal diagnostic.
func (m *Matcher) Warn(code typematch.IssueType, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	issue := typematch.Warning(code).Diagnostics(msg).Build()
	m.warnings = append(m.warnings, issue)

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.RecordIssue(issue.Severity)
	}
	switch {
	case m.cfg.WarningHandler != nil:
		m.cfg.WarningHandler(issue)
	case m.cfg.Logger != nil:
		m.cfg.Logger.With("code", code).Warn("%s", msg)
	default:
		logger.Default().With("code", code).Warn("%s", msg)
	}
}

// sample applies the collection strategy to a collection of n items.
func (m *Matcher) sample(n int) int {
	if m.cfg.CollectionStrategy == FirstItem && n > 1 {
		return 1
	}
	return n
}

// Check checks v against t with a fresh default-based configuration.
//
// When a fail callback is configured, mismatches are handed to it and Check
// returns nil. Malformed descriptors and unresolved references under the
// error policy are always returned.
func Check(v any, t *descriptor.Type, opts ...Option) error {
	return CheckContext(context.Background(), v, t, opts...)
}

// CheckContext is Check with a context for forward reference resolution.
func CheckContext(ctx context.Context, v any, t *descriptor.Type, opts ...Option) error {
	return CheckWith(ctx, NewConfig(opts...), v, t)
}

// CheckWith checks v against t using cfg as is.
func CheckWith(ctx context.Context, cfg *Config, v any, t *descriptor.Type) error {
	if Suppressed() || t.IsAny() {
		return nil
	}
	m := NewMatcher(ctx, cfg)
	return m.finish(m.timed(t, func() error { return m.Match(v, t) }))
}

func (m *Matcher) timed(t *descriptor.Type, fn func() error) error {
	if m.cfg.Metrics == nil {
		return fn()
	}
	start := time.Now()
	err := fn()
	m.cfg.Metrics.RecordCheck(time.Since(start), err == nil)
	m.cfg.Metrics.RecordShape(shapeName(t), err != nil)
	if err != nil {
		sev := typematch.SeverityError
		if !IsMismatch(err) {
			sev = typematch.SeverityFatal
		}
		m.cfg.Metrics.RecordIssue(sev)
	}
	return err
}

// finish hands mismatches to the fail callback when one is configured.
func (m *Matcher) finish(err error) error {
	if err == nil || m.cfg.FailCallback == nil {
		return err
	}
	var me *MismatchError
	if errors.As(err, &me) {
		m.cfg.FailCallback(me, m)
		return nil
	}
	return err
}

// Inspect checks v against t and reports the outcome as a Result holding the
// mismatch, if any, and every warning. The fail callback is not consulted.
func Inspect(ctx context.Context, cfg *Config, v any, t *descriptor.Type) *typematch.Result {
	r := typematch.AcquireResult()
	r.Descriptor = t.Name()
	if Suppressed() {
		return r
	}

	m := NewMatcher(ctx, cfg)
	err := m.timed(t, func() error { return m.Match(v, t) })
	if err != nil {
		r.AddIssue(IssueFromError(err))
	}
	r.AddIssues(m.warnings)
	return r
}

// IssueFromError converts a check error into an Issue.
func IssueFromError(err error) typematch.Issue {
	var me *MismatchError
	var ue *UnresolvedError
	switch {
	case errors.As(err, &me):
		return typematch.Error(typematch.IssueTypeMismatch).
			Diagnostics(me.Error()).
			At(me.Path()...).
			Build()
	case errors.As(err, &ue):
		return typematch.Error(typematch.IssueTypeUnresolved).Diagnostics(err.Error()).Build()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return typematch.Error(typematch.IssueTypeTimeout).Diagnostics(err.Error()).Build()
	case errors.Is(err, ErrMalformed):
		return typematch.NewIssue(typematch.SeverityFatal, typematch.IssueTypeMalformed).Diagnostics(err.Error()).Build()
	}
	return typematch.Error(typematch.IssueTypeProcessing).Diagnostics(err.Error()).Build()
}

// shapeName is the metrics label of a descriptor.
func shapeName(t *descriptor.Type) string {
	if t == nil {
		return descriptor.KindAny.String()
	}
	if t.Kind == descriptor.KindGeneric {
		return t.Origin.String()
	}
	return t.Kind.String()
}
