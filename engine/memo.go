package engine

import (
	"context"
	"reflect"

	"github.com/structcheck/typematch/descriptor"
)

// CallMemo is the read-only view of one call: its declared parameter
// types and the values bound to them. Callers build it; the engine only
// reads it.
type CallMemo interface {
	// FuncName is the qualified name of the called function.
	FuncName() string
	// Params returns the parameter names in declaration order.
	Params() []string
	// Hint returns the declared type of a parameter.
	Hint(name string) (*descriptor.Type, bool)
	// Value returns the value bound to a parameter.
	Value(name string) (any, bool)
	// ReturnHint returns the declared return type.
	ReturnHint() (*descriptor.Type, bool)
	// SelfType returns the receiver type of a method call, or nil.
	SelfType() reflect.Type
}

// StaticMemo is a CallMemo backed by plain maps.
type StaticMemo struct {
	Name     string
	Order    []string
	Hints    map[string]*descriptor.Type
	Values   map[string]any
	Return   *descriptor.Type
	Receiver reflect.Type
}

func (s *StaticMemo) FuncName() string { return s.Name }
func (s *StaticMemo) Params() []string { return s.Order }

func (s *StaticMemo) Hint(name string) (*descriptor.Type, bool) {
	t, ok := s.Hints[name]
	return t, ok
}

func (s *StaticMemo) Value(name string) (any, bool) {
	v, ok := s.Values[name]
	return v, ok
}

func (s *StaticMemo) ReturnHint() (*descriptor.Type, bool) {
	return s.Return, s.Return != nil
}

func (s *StaticMemo) SelfType() reflect.Type { return s.Receiver }

// memoConfig applies the memo's receiver type unless one is configured.
func memoConfig(memo CallMemo, opts []Option) *Config {
	cfg := NewConfig(opts...)
	if cfg.SelfType == nil {
		cfg.SelfType = memo.SelfType()
	}
	return cfg
}

// CheckArguments checks every bound argument that has a declared type.
// Failures carry an `argument "name"` path segment.
func CheckArguments(ctx context.Context, memo CallMemo, opts ...Option) error {
	if Suppressed() {
		return nil
	}
	cfg := memoConfig(memo, opts)
	m := NewMatcher(ctx, cfg)

	for _, name := range memo.Params() {
		hint, ok := memo.Hint(name)
		if !ok {
			continue
		}
		if hint.Kind == descriptor.KindNever {
			if err := m.finish(Mismatch("%s() was declared never to be called but it was", memo.FuncName())); err != nil {
				return err
			}
			continue
		}
		v, _ := memo.Value(name)
		err := m.timed(hint, func() error { return m.Match(v, hint) })
		if err != nil {
			if err = m.finish(withPath(err, `argument "`+name+`"`)); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckReturn checks a return value against the declared return type.
// Failures carry a "the return value" path segment.
func CheckReturn(ctx context.Context, memo CallMemo, retval any, opts ...Option) error {
	if Suppressed() {
		return nil
	}
	hint, ok := memo.ReturnHint()
	if !ok {
		return nil
	}
	cfg := memoConfig(memo, opts)
	m := NewMatcher(ctx, cfg)

	if hint.Kind == descriptor.KindNever {
		return m.finish(Mismatch("%s() was declared never to return but it did", memo.FuncName()))
	}
	err := m.timed(hint, func() error { return m.Match(retval, hint) })
	if err != nil {
		return m.finish(withPath(err, "the return value"))
	}
	return nil
}
