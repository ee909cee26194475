// Package descriptor provides the data representation of a declared type:
// plain classes, parameterized generics, unions, literals, type variables,
// structural protocols, new types, typed mappings, named tuples and forward
// references.
//
// A descriptor is a tree of *Type values. Descriptors are immutable once
// built; the matching engine and resolvers never modify them.
package descriptor

import (
	"errors"
	"reflect"
)

// ErrMalformed is returned when a descriptor itself is invalid, as opposed to
// a value failing to match it.
var ErrMalformed = errors.New("malformed type descriptor")

// Kind is the variant tag of a descriptor.
type Kind uint8

// Descriptor kinds.
const (
	KindAny Kind = iota
	KindNone
	KindNever
	KindClass
	KindGeneric
	KindTypeVar
	KindLiteral
	KindProtocol
	KindNewType
	KindTypedMapping
	KindNamedTuple
	KindForwardRef
	KindAnnotated
	KindSelf

	// KindEllipsis and KindParams only appear inside argument lists.
	KindEllipsis
	KindParams
)

var kindNames = [...]string{
	KindAny:          "any",
	KindNone:         "none",
	KindNever:        "never",
	KindClass:        "class",
	KindGeneric:      "generic",
	KindTypeVar:      "typevar",
	KindLiteral:      "literal",
	KindProtocol:     "protocol",
	KindNewType:      "newtype",
	KindTypedMapping: "typedmapping",
	KindNamedTuple:   "namedtuple",
	KindForwardRef:   "forwardref",
	KindAnnotated:    "annotated",
	KindSelf:         "self",
	KindEllipsis:     "ellipsis",
	KindParams:       "params",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Origin is the head constructor of a generic descriptor.
type Origin uint8

// Generic origins.
const (
	OriginNone Origin = iota
	OriginMapping
	OriginMutableMapping
	OriginDict
	OriginList
	OriginSequence
	OriginSet
	OriginTuple
	OriginUnion
	OriginClassOf
	OriginCallable
	OriginIO
	OriginTextIO
	OriginBinaryIO
)

var originNames = [...]string{
	OriginNone:           "",
	OriginMapping:        "Mapping",
	OriginMutableMapping: "MutableMapping",
	OriginDict:           "Dict",
	OriginList:           "List",
	OriginSequence:       "Sequence",
	OriginSet:            "Set",
	OriginTuple:          "Tuple",
	OriginUnion:          "Union",
	OriginClassOf:        "Type",
	OriginCallable:       "Callable",
	OriginIO:             "IO",
	OriginTextIO:         "TextIO",
	OriginBinaryIO:       "BinaryIO",
}

// String returns the origin's display name.
func (o Origin) String() string {
	if int(o) < len(originNames) {
		return originNames[o]
	}
	return "Unknown"
}

// Field is one declared entry of a typed mapping or named tuple.
type Field struct {
	Name     string
	Type     *Type
	Required bool
}

// Type is a declared type. Only the fields relevant to Kind are populated.
type Type struct {
	Kind Kind

	// Label is the declared name of type variables, new types, protocols,
	// typed mappings, forward references and named classes.
	Label string

	// GoType is the class of Class, Protocol and NamedTuple descriptors.
	GoType reflect.Type

	// Origin and Args describe Generic descriptors. Parameterized is set when
	// the generic was subscripted, even with an empty argument list.
	Origin        Origin
	Args          []*Type
	Parameterized bool

	// Extras is opaque metadata carried by Annotated descriptors.
	Extras []any

	// Bound and Constraints describe type variables; at most one is set.
	Bound       *Type
	Constraints []*Type

	// Values are the allowed literal values, possibly nested *Type literals.
	Values []any

	// RuntimeCheckable marks protocols that support structural checks.
	RuntimeCheckable bool

	// Supertype is the wrapped type of a NewType, or the inner type of Annotated.
	Supertype *Type

	// Fields are the declared keys of a TypedMapping or fields of a NamedTuple.
	Fields []Field
}

// IsAny reports whether t is the wildcard.
func (t *Type) IsAny() bool {
	return t == nil || t.Kind == KindAny
}

// Field returns the named field of a typed mapping or named tuple.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredKeys returns the required field names of a typed mapping.
func (t *Type) RequiredKeys() []string {
	var keys []string
	for _, f := range t.Fields {
		if f.Required {
			keys = append(keys, f.Name)
		}
	}
	return keys
}
