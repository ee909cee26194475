// Package value defines the runtime value model the matching engine
// understands beyond plain Go values: tuples, read-only and mutable
// mappings, sets, sequences, callable signatures and exempt test doubles.
//
// Plain Go values are classified by reflection:
//
//   - maps are dicts (and sets when their element type is struct{})
//   - slices are lists, arrays are sequences
//   - reflect.Type values are classes
//   - funcs are callables
package value

import (
	"reflect"
)

// Tuple is an ordered, fixed-length heterogeneous value.
type Tuple []any

// Exempt marks test doubles that satisfy every descriptor.
type Exempt interface {
	TypeMatchExempt()
}

// Mapping is a read-only key/value container.
type Mapping interface {
	Len() int
	// Range calls fn for every entry until fn returns false.
	Range(fn func(key, val any) bool)
	Lookup(key any) (any, bool)
}

// MutableMapping is a Mapping that accepts writes.
type MutableMapping interface {
	Mapping
	Store(key, val any)
	Delete(key any)
}

// Sequence is an indexable container.
type Sequence interface {
	Len() int
	Index(i int) any
}

// Set is an unordered collection of distinct members.
type Set interface {
	Len() int
	Range(fn func(member any) bool)
	Contains(member any) bool
}

// Signatured is implemented by callables that describe their own parameters.
type Signatured interface {
	Signature() Signature
}

// ParamKind classifies a callable parameter.
type ParamKind uint8

// Parameter kinds.
const (
	PositionalOnly ParamKind = iota
	PositionalOrKeyword
	VarPositional
	KeywordOnly
	VarKeyword
)

// Param describes one declared parameter.
type Param struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
}

// Signature is a callable's declared parameter list.
type Signature struct {
	Params []Param
}

// Mandatory returns the number of positional parameters without defaults.
func (s Signature) Mandatory() int {
	n := 0
	for _, p := range s.Params {
		if (p.Kind == PositionalOnly || p.Kind == PositionalOrKeyword) && !p.HasDefault {
			n++
		}
	}
	return n
}

// Positional returns the number of positional parameters, with or without defaults.
func (s Signature) Positional() int {
	n := 0
	for _, p := range s.Params {
		if p.Kind == PositionalOnly || p.Kind == PositionalOrKeyword {
			n++
		}
	}
	return n
}

// HasVarPositional reports whether the signature accepts extra positional arguments.
func (s Signature) HasVarPositional() bool {
	for _, p := range s.Params {
		if p.Kind == VarPositional {
			return true
		}
	}
	return false
}

// RequiredKeywordOnly returns keyword-only parameters that lack a default.
func (s Signature) RequiredKeywordOnly() []string {
	var names []string
	for _, p := range s.Params {
		if p.Kind == KeywordOnly && !p.HasDefault {
			names = append(names, p.Name)
		}
	}
	return names
}

// Common reflect types used when classifying values.
var (
	TupleType   = reflect.TypeOf(Tuple(nil))
	ClassType   = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	emptyStruct = reflect.TypeOf(struct{}{})
)

// IsClass reports whether v is a class object.
func IsClass(v any) (reflect.Type, bool) {
	t, ok := v.(reflect.Type)
	return t, ok && t != nil
}

// IsSetMap reports whether t is a map used as a set.
func IsSetMap(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Map && t.Elem() == emptyStruct
}

// IsByteLike reports whether t is a slice or array of bytes.
func IsByteLike(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}
