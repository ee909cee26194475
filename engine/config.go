package engine

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/pkg/logger"
	"github.com/structcheck/typematch/resolve"
)

// ForwardRefPolicy decides what happens when a forward reference cannot be
// resolved.
type ForwardRefPolicy uint8

const (
	// ForwardRefWarn emits a warning and treats the value as unchecked.
	ForwardRefWarn ForwardRefPolicy = iota
	// ForwardRefError fails the check with an UnresolvedError.
	ForwardRefError
	// ForwardRefIgnore treats the value as unchecked silently.
	ForwardRefIgnore
)

func (p ForwardRefPolicy) String() string {
	switch p {
	case ForwardRefError:
		return "error"
	case ForwardRefIgnore:
		return "ignore"
	default:
		return "warn"
	}
}

// ParseForwardRefPolicy converts "error", "warn" or "ignore" to a policy.
func ParseForwardRefPolicy(s string) (ForwardRefPolicy, error) {
	switch strings.ToLower(s) {
	case "error":
		return ForwardRefError, nil
	case "warn", "":
		return ForwardRefWarn, nil
	case "ignore":
		return ForwardRefIgnore, nil
	}
	return ForwardRefWarn, fmt.Errorf("unknown forward reference policy %q", s)
}

// CollectionStrategy selects how many items of a collection are checked.
type CollectionStrategy uint8

const (
	// AllItems checks every element, entry or member.
	AllItems CollectionStrategy = iota
	// FirstItem checks only the first element or entry.
	FirstItem
)

func (s CollectionStrategy) String() string {
	if s == FirstItem {
		return "first"
	}
	return "all"
}

// ParseCollectionStrategy converts "all" or "first" to a strategy.
func ParseCollectionStrategy(s string) (CollectionStrategy, error) {
	switch strings.ToLower(s) {
	case "all", "":
		return AllItems, nil
	case "first":
		return FirstItem, nil
	}
	return AllItems, fmt.Errorf("unknown collection strategy %q", s)
}

// FailCallback receives a mismatch instead of it being returned from Check.
type FailCallback func(err *MismatchError, m *Matcher)

// WarningHandler receives non-fatal diagnostics such as unresolved forward
// references under the warn policy.
type WarningHandler func(issue typematch.Issue)

// Config holds everything a check consults. It must not be modified while
// checks that use it are running.
type Config struct {
	ForwardRefPolicy   ForwardRefPolicy
	CollectionStrategy CollectionStrategy

	// Registry is the checker lookup chain; nil means DefaultRegistry().
	Registry *Registry

	// Resolver resolves forward references; nil leaves them unresolved.
	Resolver resolve.Resolver

	// SelfType is the receiver type for Self descriptors.
	SelfType reflect.Type

	Introspector   SignatureIntrospector
	FailCallback   FailCallback
	WarningHandler WarningHandler
	Logger         *logger.Logger
	Metrics        *typematch.Metrics
}

// Option configures a Config.
type Option func(*Config)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ForwardRefPolicy:   ForwardRefWarn,
		CollectionStrategy: AllItems,
		Introspector:       ReflectIntrospector{},
	}
}

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// With returns a copy of c with opts applied.
func (c *Config) With(opts ...Option) *Config {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// WithForwardRefPolicy sets the unresolved forward reference policy.
func WithForwardRefPolicy(p ForwardRefPolicy) Option {
	return func(c *Config) {
		c.ForwardRefPolicy = p
	}
}

// WithCollectionStrategy sets how many collection items are checked.
func WithCollectionStrategy(s CollectionStrategy) Option {
	return func(c *Config) {
		c.CollectionStrategy = s
	}
}

// WithRegistry uses r instead of the default registry.
func WithRegistry(r *Registry) Option {
	return func(c *Config) {
		c.Registry = r
	}
}

// WithLookup adds lookup functions in front of the builtin lookup. The
// configured registry is copied, never modified.
func WithLookup(fns ...LookupFunc) Option {
	return func(c *Config) {
		base := c.Registry
		if base == nil {
			base = DefaultRegistry()
		}
		r := base.Clone()
		for _, fn := range fns {
			r.Register(fn)
		}
		c.Registry = r
	}
}

// WithResolver sets the forward reference resolver.
func WithResolver(r resolve.Resolver) Option {
	return func(c *Config) {
		c.Resolver = r
	}
}

// WithSelfType sets the receiver type used by Self descriptors.
func WithSelfType(t reflect.Type) Option {
	return func(c *Config) {
		c.SelfType = t
	}
}

// WithIntrospector sets how callable signatures are read.
func WithIntrospector(i SignatureIntrospector) Option {
	return func(c *Config) {
		if i != nil {
			c.Introspector = i
		}
	}
}

// WithFailCallback routes mismatches to fn instead of returning them.
func WithFailCallback(fn FailCallback) Option {
	return func(c *Config) {
		c.FailCallback = fn
	}
}

// WithWarningHandler routes warnings to fn instead of the logger.
func WithWarningHandler(fn WarningHandler) Option {
	return func(c *Config) {
		c.WarningHandler = fn
	}
}

// WithLogger sets the logger used for warnings when no handler is set.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics records checks and warnings into m.
func WithMetrics(m *typematch.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// --- Suppression ---

var suppressed atomic.Int32

// Suppress disables all checks until the returned function is called.
// Calls nest: checks resume once every returned function has been called.
func Suppress() (restore func()) {
	suppressed.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			suppressed.Add(-1)
		})
	}
}

// Suppressed reports whether checks are currently suppressed.
func Suppressed() bool {
	return suppressed.Load() > 0
}
