package descriptor

import (
	"fmt"
	"reflect"
)

var (
	anyType   = &Type{Kind: KindAny}
	noneType  = &Type{Kind: KindNone}
	neverType = &Type{Kind: KindNever}
	selfType  = &Type{Kind: KindSelf}
	ellipsis  = &Type{Kind: KindEllipsis}
)

// Builtin classes.
var (
	Int     = Of[int]()
	Str     = Of[string]()
	Float   = Of[float64]()
	Complex = Of[complex128]()
	Bool    = Of[bool]()
	Bytes   = Of[[]byte]()
)

// Any returns the wildcard descriptor.
func Any() *Type { return anyType }

// None returns the descriptor matched only by nil.
func None() *Type { return noneType }

// Never returns the descriptor of a value that must not exist.
func Never() *Type { return neverType }

// Self returns the receiver-bound descriptor.
func Self() *Type { return selfType }

// Ellipsis returns the marker used by variadic tuples and callables
// accepting any arguments.
func Ellipsis() *Type { return ellipsis }

// Class returns a descriptor for a concrete Go type.
func Class(rt reflect.Type) *Type {
	return &Type{Kind: KindClass, GoType: rt}
}

// Of returns the class descriptor of T.
func Of[T any]() *Type {
	return Class(reflect.TypeOf((*T)(nil)).Elem())
}

// Generic returns a descriptor with the given origin and arguments.
// A call with no arguments describes the unparameterized container.
func Generic(origin Origin, args ...*Type) *Type {
	return &Type{
		Kind:          KindGeneric,
		Origin:        origin,
		Args:          args,
		Parameterized: len(args) > 0,
	}
}

// Mapping returns Mapping[k, v].
func Mapping(k, v *Type) *Type { return Generic(OriginMapping, k, v) }

// MutableMapping returns MutableMapping[k, v].
func MutableMapping(k, v *Type) *Type { return Generic(OriginMutableMapping, k, v) }

// Dict returns Dict[k, v].
func Dict(k, v *Type) *Type { return Generic(OriginDict, k, v) }

// List returns List[elem].
func List(elem *Type) *Type { return Generic(OriginList, elem) }

// Sequence returns Sequence[elem].
func Sequence(elem *Type) *Type { return Generic(OriginSequence, elem) }

// Set returns Set[elem].
func Set(elem *Type) *Type { return Generic(OriginSet, elem) }

// Tuple returns a fixed-length tuple descriptor.
func Tuple(elems ...*Type) *Type {
	t := Generic(OriginTuple, elems...)
	t.Parameterized = true
	return t
}

// EmptyTuple returns Tuple[()], matched only by a tuple with no elements.
func EmptyTuple() *Type {
	return Tuple()
}

// VarTuple returns Tuple[elem, ...].
func VarTuple(elem *Type) *Type {
	return Generic(OriginTuple, elem, ellipsis)
}

// ClassOf returns Type[t], matched by classes rather than instances.
func ClassOf(t *Type) *Type { return Generic(OriginClassOf, t) }

// Callable returns Callable[[params...], result].
func Callable(params []*Type, result *Type) *Type {
	return Generic(OriginCallable, &Type{Kind: KindParams, Args: params}, result)
}

// CallableAny returns Callable[..., result].
func CallableAny(result *Type) *Type {
	return Generic(OriginCallable, ellipsis, result)
}

// IO returns the generic stream descriptor.
func IO() *Type { return Generic(OriginIO) }

// TextIO returns the text stream descriptor.
func TextIO() *Type { return Generic(OriginTextIO) }

// BinaryIO returns the binary stream descriptor.
func BinaryIO() *Type { return Generic(OriginBinaryIO) }

// Union returns Union[alts...]. Nested unions are flattened and duplicate
// alternatives dropped; a single remaining alternative is returned as is.
// A nil alternative stands for Any.
func Union(alts ...*Type) *Type {
	flat := make([]*Type, 0, len(alts))
	for _, a := range alts {
		if a == nil {
			a = anyType
		}
		if a.Kind == KindGeneric && a.Origin == OriginUnion {
			flat = appendUnique(flat, a.Args...)
			continue
		}
		flat = appendUnique(flat, a)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Generic(OriginUnion, flat...)
}

// Or is the a | b form of Union.
func Or(a, b *Type) *Type { return Union(a, b) }

// Optional returns Union[t, None].
func Optional(t *Type) *Type { return Union(t, noneType) }

func appendUnique(dst []*Type, ts ...*Type) []*Type {
outer:
	for _, t := range ts {
		for _, d := range dst {
			if Equal(d, t) {
				continue outer
			}
		}
		dst = append(dst, t)
	}
	return dst
}

// Literal returns Literal[values...]. Values may be nil, bool, string,
// []byte, integers (including named integer and string types used as enum
// members) or other literal descriptors.
func Literal(values ...any) (*Type, error) {
	for _, v := range values {
		if err := checkLiteralValue(v); err != nil {
			return nil, err
		}
	}
	return &Type{Kind: KindLiteral, Values: values}, nil
}

// MustLiteral is like Literal but panics on an illegal value.
func MustLiteral(values ...any) *Type {
	t, err := Literal(values...)
	if err != nil {
		panic(err)
	}
	return t
}

func checkLiteralValue(v any) error {
	if lt, ok := v.(*Type); ok {
		if lt.Kind != KindLiteral {
			return fmt.Errorf("%w: illegal literal value: %s", ErrMalformed, lt.Name())
		}
		return nil
	}
	if !IsLiteralKind(v) {
		return fmt.Errorf("%w: illegal literal value: %v", ErrMalformed, v)
	}
	return nil
}

// IsLiteralKind reports whether v may appear in a Literal.
func IsLiteralKind(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.([]byte); ok {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// BoundTypeVar returns a type variable whose values must match bound.
func BoundTypeVar(name string, bound *Type) *Type {
	return &Type{Kind: KindTypeVar, Label: name, Bound: bound}
}

// ConstrainedTypeVar returns a type variable restricted to constraints.
func ConstrainedTypeVar(name string, constraints ...*Type) *Type {
	return &Type{Kind: KindTypeVar, Label: name, Constraints: constraints}
}

// TypeVar returns an unrestricted type variable.
func TypeVar(name string) *Type {
	return &Type{Kind: KindTypeVar, Label: name}
}

// Protocol returns a structural interface descriptor for the interface type rt.
func Protocol(rt reflect.Type, runtimeCheckable bool) *Type {
	return &Type{Kind: KindProtocol, Label: rt.Name(), GoType: rt, RuntimeCheckable: runtimeCheckable}
}

// ProtocolOf returns the protocol descriptor of interface type T.
func ProtocolOf[T any](runtimeCheckable bool) *Type {
	return Protocol(reflect.TypeOf((*T)(nil)).Elem(), runtimeCheckable)
}

// NewType returns a transparent named wrapper around supertype.
func NewType(name string, supertype *Type) *Type {
	return &Type{Kind: KindNewType, Label: name, Supertype: supertype}
}

// TypedMapping returns a mapping descriptor with a fixed key set.
func TypedMapping(name string, fields ...Field) *Type {
	return &Type{Kind: KindTypedMapping, Label: name, Fields: fields}
}

// NamedTuple returns a descriptor for struct type rt with typed fields.
func NamedTuple(rt reflect.Type, fields ...Field) *Type {
	return &Type{Kind: KindNamedTuple, Label: rt.Name(), GoType: rt, Fields: fields}
}

// NamedTupleOf returns the named tuple descriptor of struct type T.
func NamedTupleOf[T any](fields ...Field) *Type {
	return NamedTuple(reflect.TypeOf((*T)(nil)).Elem(), fields...)
}

// ForwardRef returns a reference resolved by name at match time.
func ForwardRef(name string) *Type {
	return &Type{Kind: KindForwardRef, Label: name}
}

// Annotated wraps inner with metadata that matching ignores.
func Annotated(inner *Type, extras ...any) *Type {
	return &Type{Kind: KindAnnotated, Supertype: inner, Extras: extras}
}

// Required declares a required field.
func Required(name string, t *Type) Field {
	return Field{Name: name, Type: t, Required: true}
}

// NotRequired declares an optional field.
func NotRequired(name string, t *Type) Field {
	return Field{Name: name, Type: t}
}
