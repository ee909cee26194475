package engine

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/value"
)

// isInstance reports whether v's dynamic type is assignable to rt.
func isInstance(v any, rt reflect.Type) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).AssignableTo(rt)
}

// isSubclass reports whether class sub may be used where super is expected.
func isSubclass(sub, super reflect.Type) bool {
	return sub.AssignableTo(super)
}

// --- mappings ---

// mapView adapts a Go map to value.Mapping with sorted iteration.
type mapView struct {
	rv reflect.Value
}

func (m mapView) Len() int { return m.rv.Len() }

func (m mapView) Range(fn func(key, val any) bool) {
	for _, k := range sortedKeys(m.rv) {
		if !fn(k.Interface(), m.rv.MapIndex(k).Interface()) {
			return
		}
	}
}

func (m mapView) Lookup(key any) (any, bool) {
	kv, ok := keyValue(m.rv.Type().Key(), key)
	if !ok {
		return nil, false
	}
	v := m.rv.MapIndex(kv)
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func keyValue(kt reflect.Type, key any) (reflect.Value, bool) {
	if key == nil {
		if kt.Kind() == reflect.Interface {
			return reflect.Zero(kt), true
		}
		return reflect.Value{}, false
	}
	kv := reflect.ValueOf(key)
	if !kv.Type().AssignableTo(kt) {
		return reflect.Value{}, false
	}
	return kv, true
}

// goMap returns a view of v when it is a Go map that is not a set.
func goMap(v any) (mapView, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || value.IsSetMap(rv.Type()) {
		return mapView{}, false
	}
	return mapView{rv: rv}, true
}

// mappingOf classifies v for the given mapping origin.
func mappingOf(v any, origin descriptor.Origin) (value.Mapping, bool) {
	if gm, ok := goMap(v); ok {
		return gm, true
	}
	switch origin {
	case descriptor.OriginDict:
		return nil, false
	case descriptor.OriginMutableMapping:
		mm, ok := v.(value.MutableMapping)
		return mm, ok
	}
	mp, ok := v.(value.Mapping)
	return mp, ok
}

// --- sets ---

type setView struct {
	rv reflect.Value
}

func (s setView) Len() int { return s.rv.Len() }

func (s setView) Range(fn func(member any) bool) {
	for _, k := range sortedKeys(s.rv) {
		if !fn(k.Interface()) {
			return
		}
	}
}

func (s setView) Contains(member any) bool {
	kv, ok := keyValue(s.rv.Type().Key(), member)
	return ok && s.rv.MapIndex(kv).IsValid()
}

func setOf(v any) (value.Set, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && value.IsSetMap(rv.Type()) {
		return setView{rv: rv}, true
	}
	s, ok := v.(value.Set)
	return s, ok
}

// --- sequences ---

type indexed struct {
	n  int
	at func(i int) any
}

func reflectIndexed(rv reflect.Value) indexed {
	return indexed{n: rv.Len(), at: func(i int) any { return rv.Index(i).Interface() }}
}

// listOf accepts slices other than tuples and byte strings.
func listOf(v any) (indexed, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type() == value.TupleType || value.IsByteLike(rv.Type()) {
		return indexed{}, false
	}
	return reflectIndexed(rv), true
}

// sequenceOf accepts slices, arrays, strings, tuples and value.Sequence.
func sequenceOf(v any) (indexed, bool) {
	if s, ok := v.(value.Sequence); ok {
		return indexed{n: s.Len(), at: s.Index}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return reflectIndexed(rv), true
	case reflect.String:
		runes := []rune(rv.String())
		return indexed{n: len(runes), at: func(i int) any { return string(runes[i]) }}, true
	}
	return indexed{}, false
}

// --- ordering ---

// sortedKeys returns map keys in a deterministic order: numbers and strings
// by value, everything else by its formatted form.
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return lessValue(keys[i], keys[j])
	})
	return keys
}

func lessValue(a, b reflect.Value) bool {
	a, b = concrete(a), concrete(b)
	if !a.IsValid() || !b.IsValid() {
		return !a.IsValid() && b.IsValid()
	}
	if a.Kind() != b.Kind() {
		return a.Type().String() < b.Type().String()
	}
	switch a.Kind() {
	case reflect.String:
		return a.String() < b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() < b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() < b.Float()
	case reflect.Bool:
		return !a.Bool() && b.Bool()
	}
	return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
}

func concrete(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
