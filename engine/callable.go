package engine

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/value"
)

// SignatureIntrospector reads the declared parameters of a callable.
// It returns false when the signature cannot be determined, in which case
// the callable is accepted.
type SignatureIntrospector interface {
	Signature(fn any) (value.Signature, bool)
}

// ReflectIntrospector prefers value.Signatured and otherwise derives a
// signature from a Go func type: every parameter is a mandatory positional
// one, and the variadic parameter becomes a var-positional one.
type ReflectIntrospector struct{}

// Signature implements SignatureIntrospector.
func (ReflectIntrospector) Signature(fn any) (value.Signature, bool) {
	if s, ok := fn.(value.Signatured); ok {
		return s.Signature(), true
	}
	rt := reflect.TypeOf(fn)
	if rt == nil || rt.Kind() != reflect.Func {
		return value.Signature{}, false
	}

	n := rt.NumIn()
	params := make([]value.Param, n)
	for i := 0; i < n; i++ {
		params[i] = value.Param{Name: "arg" + strconv.Itoa(i), Kind: value.PositionalOnly}
	}
	if rt.IsVariadic() {
		params[n-1].Kind = value.VarPositional
	}
	return value.Signature{Params: params}, true
}

// isCallable reports whether v can be called.
func isCallable(v any) bool {
	if _, ok := v.(value.Signatured); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

func checkCallable(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	if !isCallable(v) {
		return Mismatch("is not callable")
	}
	if len(args) == 0 || args[0].Kind != descriptor.KindParams {
		return nil
	}

	introspector := m.cfg.Introspector
	if introspector == nil {
		introspector = ReflectIntrospector{}
	}
	sig, ok := introspector.Signature(v)
	if !ok {
		return nil
	}

	if kwonly := sig.RequiredKeywordOnly(); len(kwonly) > 0 {
		return Mismatch("has mandatory keyword-only arguments in its declaration: %s", strings.Join(kwonly, ", "))
	}

	expected := len(args[0].Args)
	mandatory := sig.Mandatory()
	if mandatory > expected {
		return Mismatch("has too many mandatory positional arguments in its declaration; expected %d but %d mandatory positional argument(s) declared",
			expected, mandatory)
	}
	if positional := sig.Positional(); !sig.HasVarPositional() && positional < expected {
		return Mismatch("has too few arguments in its declaration; expected %d but %d argument(s) declared",
			expected, positional)
	}
	return nil
}
