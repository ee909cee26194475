package engine

import (
	"bytes"
	"io"
	"reflect"
	"strings"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/value"
)

// unionFailure is one alternative that did not match.
type unionFailure struct {
	name string
	err  error
}

// unionMismatch renders the failures of every alternative in declared order.
func unionMismatch(failures []unionFailure) *MismatchError {
	var b strings.Builder
	b.WriteString("did not match any element in the union:")
	for _, f := range failures {
		b.WriteString("\n  ")
		b.WriteString(f.name)
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(f.err.Error(), "\n", "\n  "))
	}
	return Mismatch(b.String())
}

func checkUnion(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	failures := make([]unionFailure, 0, len(args))
	for _, alt := range args {
		err := m.Match(v, alt)
		if err == nil {
			return nil
		}
		if !IsMismatch(err) {
			return err
		}
		failures = append(failures, unionFailure{name: alt.Name(), err: err})
	}
	return unionMismatch(failures)
}

func checkClass(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	cls, ok := value.IsClass(v)
	if !ok {
		return Mismatch("is not a class")
	}
	if len(args) == 0 {
		return nil
	}
	return m.matchSubclass(cls, args[0])
}

// matchSubclass checks class cls against expected in subclass mode.
func (m *Matcher) matchSubclass(cls reflect.Type, expected *descriptor.Type) error {
	if expected.Kind == descriptor.KindForwardRef {
		resolved, err := m.resolveRef(expected)
		if resolved == nil {
			return err
		}
		expected = resolved
	}
	if expected.Kind == descriptor.KindAnnotated {
		expected = expected.Supertype
	}
	if expected.IsAny() {
		return nil
	}

	switch expected.Kind {
	case descriptor.KindProtocol:
		return checkProtocolClass(cls, expected, m)
	case descriptor.KindTypeVar:
		return m.matchTypeVar(cls, expected, true)
	case descriptor.KindNewType:
		return m.matchSubclass(cls, expected.Supertype)
	case descriptor.KindClass:
		if !isSubclass(cls, expected.GoType) {
			return Mismatch("is not a subclass of %s", value.TypeName(expected.GoType))
		}
		return nil
	case descriptor.KindGeneric:
		if expected.Origin == descriptor.OriginUnion {
			failures := make([]unionFailure, 0, len(expected.Args))
			for _, alt := range expected.Args {
				if alt.IsAny() {
					return nil
				}
				err := m.matchSubclass(cls, alt)
				if err == nil {
					return nil
				}
				if !IsMismatch(err) {
					return err
				}
				failures = append(failures, unionFailure{name: alt.Name(), err: err})
			}
			return unionMismatch(failures)
		}
	}
	return malformed("cannot check subclasses of %s", expected.Name())
}

func checkTypeVar(v any, origin *descriptor.Type, _ []*descriptor.Type, m *Matcher) error {
	return m.matchTypeVar(v, origin, false)
}

// matchTypeVar checks v against a type variable. In subclass mode v is a
// class and bound/constraints are checked as Type[...].
func (m *Matcher) matchTypeVar(v any, tv *descriptor.Type, subclass bool) error {
	if tv.Bound != nil && len(tv.Constraints) > 0 {
		return malformed("type variable %s has both a bound and constraints", tv.Label)
	}

	match := func(t *descriptor.Type) error {
		if subclass {
			return m.matchSubclass(v.(reflect.Type), t)
		}
		return m.Match(v, t)
	}

	if tv.Bound != nil {
		return match(tv.Bound)
	}
	if len(tv.Constraints) == 0 {
		return nil
	}
	for _, c := range tv.Constraints {
		err := match(c)
		if err == nil {
			return nil
		}
		if !IsMismatch(err) {
			return err
		}
	}
	names := make([]string, len(tv.Constraints))
	for i, c := range tv.Constraints {
		names[i] = c.Name()
	}
	return Mismatch("does not match any of the constraints (%s)", strings.Join(names, ", "))
}

func checkLiteral(v any, origin *descriptor.Type, _ []*descriptor.Type, _ *Matcher) error {
	values, err := descriptor.FlattenLiteral(origin)
	if err != nil {
		return err
	}
	for _, lit := range values {
		if literalEqual(v, lit) {
			return nil
		}
	}
	reprs := make([]string, len(values))
	for i, lit := range values {
		reprs[i] = value.Repr(lit)
	}
	return Mismatch("is not any of (%s)", strings.Join(reprs, ", "))
}

// literalEqual requires the same dynamic type as well as the same value.
func literalEqual(v, lit any) bool {
	if v == nil || lit == nil {
		return v == nil && lit == nil
	}
	if reflect.TypeOf(v) != reflect.TypeOf(lit) {
		return false
	}
	if b, ok := lit.([]byte); ok {
		return bytes.Equal(v.([]byte), b)
	}
	return v == lit
}

func checkNumber(v any, origin *descriptor.Type, _ []*descriptor.Type, _ *Matcher) error {
	kind := numericKind(v)
	switch origin.GoType.Kind() {
	case reflect.Complex64, reflect.Complex128:
		if kind == numNone {
			return Mismatch("is neither complex, float or int")
		}
	default:
		if kind == numNone || kind == numComplex {
			return Mismatch("is neither float or int")
		}
	}
	return nil
}

type numeric uint8

const (
	numNone numeric = iota
	numInt
	numFloat
	numComplex
)

func numericKind(v any) numeric {
	if v == nil {
		return numNone
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return numInt
	case reflect.Float32, reflect.Float64:
		return numFloat
	case reflect.Complex64, reflect.Complex128:
		return numComplex
	}
	return numNone
}

func checkByteLike(v any, _ *descriptor.Type, _ []*descriptor.Type, _ *Matcher) error {
	if v == nil || !value.IsByteLike(reflect.TypeOf(v)) {
		return Mismatch("is not bytes-like")
	}
	return nil
}

func checkIO(v any, origin *descriptor.Type, args []*descriptor.Type, _ *Matcher) error {
	text := origin.Origin == descriptor.OriginTextIO
	binary := origin.Origin == descriptor.OriginBinaryIO
	if origin.Origin == descriptor.OriginIO && len(args) == 1 {
		text = descriptor.Equal(args[0], descriptor.Str)
		binary = descriptor.Equal(args[0], descriptor.Bytes)
	}

	switch {
	case text:
		if !isTextStream(v) {
			return Mismatch("is not a text based I/O object")
		}
	case binary:
		if !isBinaryStream(v) {
			return Mismatch("is not a binary I/O object")
		}
	default:
		if !isBinaryStream(v) && !isTextStream(v) {
			if _, ok := v.(io.Closer); !ok {
				return Mismatch("is not an I/O object")
			}
		}
	}
	return nil
}

func isTextStream(v any) bool {
	switch v.(type) {
	case io.RuneReader, io.StringWriter:
		return true
	}
	return false
}

func isBinaryStream(v any) bool {
	switch v.(type) {
	case io.Reader, io.Writer:
		return true
	}
	return false
}

func checkProtocol(v any, origin *descriptor.Type, _ []*descriptor.Type, m *Matcher) error {
	if !origin.RuntimeCheckable {
		warnUncheckedProtocol(origin, m)
		return nil
	}
	if v == nil || !reflect.TypeOf(v).Implements(origin.GoType) {
		return Mismatch("is not compatible with the %s protocol", origin.Label)
	}
	return nil
}

func checkProtocolClass(cls reflect.Type, proto *descriptor.Type, m *Matcher) error {
	if !proto.RuntimeCheckable {
		warnUncheckedProtocol(proto, m)
		return nil
	}
	if !cls.Implements(proto.GoType) {
		return Mismatch("is not compatible with the %s protocol", proto.Label)
	}
	return nil
}

func warnUncheckedProtocol(proto *descriptor.Type, m *Matcher) {
	m.Warn(typematch.IssueTypeUnchecked,
		"cannot check the %s protocol because it is not runtime checkable", proto.Label)
}

func checkNewType(v any, origin *descriptor.Type, _ []*descriptor.Type, m *Matcher) error {
	if origin.Supertype == nil {
		return malformed("new type %s has no supertype", origin.Label)
	}
	return m.Match(v, origin.Supertype)
}

func checkSelf(v any, _ *descriptor.Type, _ []*descriptor.Type, m *Matcher) error {
	self := m.SelfType()
	if self == nil {
		return Mismatch("cannot be checked against Self outside of a method call")
	}
	if cls, ok := value.IsClass(v); ok {
		if !isSubclass(cls, self) {
			return Mismatch("is not a subclass of the self type (%s)", value.TypeName(self))
		}
		return nil
	}
	if !isInstance(v, self) {
		return Mismatch("is not an instance of the self type (%s)", value.TypeName(self))
	}
	return nil
}
