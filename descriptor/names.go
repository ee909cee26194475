package descriptor

import (
	"reflect"
	"strings"

	"github.com/structcheck/typematch/value"
)

// Name returns the display name used in diagnostics, e.g.
// "Dict[string, List[int]]".
func (t *Type) Name() string {
	if t == nil {
		return "Any"
	}
	var b strings.Builder
	t.writeName(&b)
	return b.String()
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	return t.Name()
}

func (t *Type) writeName(b *strings.Builder) {
	switch t.Kind {
	case KindAny:
		b.WriteString("Any")
	case KindNone:
		b.WriteString("None")
	case KindNever:
		b.WriteString("NoReturn")
	case KindSelf:
		b.WriteString("Self")
	case KindEllipsis:
		b.WriteString("...")
	case KindParams:
		b.WriteByte('[')
		writeList(b, t.Args)
		b.WriteByte(']')
	case KindClass:
		b.WriteString(value.TypeName(t.GoType))
	case KindGeneric:
		b.WriteString(t.Origin.String())
		if t.Parameterized {
			b.WriteByte('[')
			if len(t.Args) == 0 {
				b.WriteString("()")
			} else {
				writeList(b, t.Args)
			}
			b.WriteByte(']')
		}
	case KindLiteral:
		b.WriteString("Literal[")
		for i, v := range t.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			if lt, ok := v.(*Type); ok {
				lt.writeName(b)
				continue
			}
			b.WriteString(value.Repr(v))
		}
		b.WriteByte(']')
	case KindAnnotated:
		b.WriteString("Annotated[")
		t.Supertype.writeName(b)
		b.WriteString(", ...]")
	default:
		b.WriteString(t.Label)
	}
}

func writeList(b *strings.Builder, ts []*Type) {
	for i, a := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		if a == nil {
			b.WriteString("Any")
			continue
		}
		a.writeName(b)
	}
}

// Equal reports whether two descriptors describe the same type.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return a.IsAny() && b.IsAny()
	}
	if a.Kind != b.Kind || a.Label != b.Label || a.GoType != b.GoType ||
		a.Origin != b.Origin || a.Parameterized != b.Parameterized ||
		a.RuntimeCheckable != b.RuntimeCheckable {
		return false
	}
	if !equalList(a.Args, b.Args) || !equalList(a.Constraints, b.Constraints) {
		return false
	}
	if !Equal(a.Bound, b.Bound) || !Equal(a.Supertype, b.Supertype) {
		return false
	}
	if len(a.Fields) != len(b.Fields) || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Fields {
		fa, fb := a.Fields[i], b.Fields[i]
		if fa.Name != fb.Name || fa.Required != fb.Required || !Equal(fa.Type, fb.Type) {
			return false
		}
	}
	for i := range a.Values {
		la, aok := a.Values[i].(*Type)
		lb, bok := b.Values[i].(*Type)
		if aok || bok {
			if !aok || !bok || !Equal(la, lb) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(a.Values[i], b.Values[i]) {
			return false
		}
	}
	return true
}

func equalList(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
