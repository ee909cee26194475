package value

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Repr renders v the way it appears in mismatch messages: strings in single
// quotes, byte strings with a b prefix, nil as None.
func Repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return quote(x)
	case []byte:
		return "b" + quote(string(x))
	case bool:
		if x {
			return "True"
		}
		return "False"
	case reflect.Type:
		return "<class '" + TypeName(x) + "'>"
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return quote(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return fmt.Sprintf("%v", v)
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// TypeName returns the qualified name of a Go type, e.g. "int" or "pkg.Point".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "None"
	}
	if t == TupleType {
		return "tuple"
	}
	return t.String()
}

// QualifiedName returns the qualified name of v's dynamic type.
func QualifiedName(v any) string {
	if t, ok := IsClass(v); ok {
		return "class " + TypeName(t)
	}
	return TypeName(reflect.TypeOf(v))
}
