package engine

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/pool"
	"github.com/structcheck/typematch/value"
)

func checkMapping(v any, origin *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	mp, ok := mappingOf(v, origin.Origin)
	if !ok {
		switch origin.Origin {
		case descriptor.OriginDict:
			return Mismatch("is not a dict")
		case descriptor.OriginMutableMapping:
			return Mismatch("is not a mutable mapping")
		}
		return Mismatch("is not a mapping")
	}
	if len(args) != 2 {
		return nil
	}
	keyType, valType := args[0], args[1]
	if keyType.IsAny() && valType.IsAny() {
		return nil
	}

	var err error
	remaining := m.sample(mp.Len())
	mp.Range(func(k, val any) bool {
		if remaining == 0 {
			return false
		}
		remaining--
		if e := m.Match(k, keyType); e != nil {
			err = withPath(e, "key "+value.Repr(k))
			return false
		}
		if e := m.Match(val, valType); e != nil {
			err = withPath(e, "value of key "+value.Repr(k))
			return false
		}
		return true
	})
	return err
}

func checkTypedMapping(v any, origin *descriptor.Type, _ []*descriptor.Type, m *Matcher) error {
	mp, ok := mappingOf(v, descriptor.OriginMapping)
	if !ok {
		return Mismatch("is not a dict")
	}

	var extra []any
	present := make(map[string]bool, mp.Len())
	mp.Range(func(k, _ any) bool {
		name, isStr := k.(string)
		if !isStr {
			extra = append(extra, k)
			return true
		}
		if _, declared := origin.Field(name); !declared {
			extra = append(extra, k)
			return true
		}
		present[name] = true
		return true
	})
	if len(extra) > 0 {
		return Mismatch("has unexpected extra key(s): %s", formatKeys(extra))
	}

	var missing []any
	for _, name := range origin.RequiredKeys() {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Mismatch("is missing required key(s): %s", formatKeys(missing))
	}

	for _, f := range origin.Fields {
		if !present[f.Name] {
			continue
		}
		fv, _ := mp.Lookup(f.Name)
		if err := m.Match(fv, f.Type); err != nil {
			return withPath(err, "value of key "+value.Repr(f.Name))
		}
	}
	return nil
}

// formatKeys renders keys as "a", "b" sorted by their repr.
func formatKeys(keys []any) string {
	reprs := make([]string, len(keys))
	for i, k := range keys {
		reprs[i] = value.Repr(k)
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return reprs[order[a]] < reprs[order[b]] })

	parts := make([]string, len(keys))
	for i, idx := range order {
		parts[i] = `"` + fmt.Sprint(keys[idx]) + `"`
	}
	return strings.Join(parts, ", ")
}

func checkList(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	items, ok := listOf(v)
	if !ok {
		return Mismatch("is not a list")
	}
	return checkItems(items, args, m)
}

func checkSequence(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	items, ok := sequenceOf(v)
	if !ok {
		return Mismatch("is not a sequence")
	}
	return checkItems(items, args, m)
}

func checkItems(items indexed, args []*descriptor.Type, m *Matcher) error {
	if len(args) == 0 || args[0].IsAny() {
		return nil
	}
	n := m.sample(items.n)
	for i := 0; i < n; i++ {
		if err := m.Match(items.at(i), args[0]); err != nil {
			return withPath(err, pool.Item(i))
		}
	}
	return nil
}

func checkSet(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	s, ok := setOf(v)
	if !ok {
		return Mismatch("is not a set")
	}
	if len(args) == 0 || args[0].IsAny() {
		return nil
	}

	var err error
	remaining := m.sample(s.Len())
	s.Range(func(member any) bool {
		if remaining == 0 {
			return false
		}
		remaining--
		if e := m.Match(member, args[0]); e != nil {
			err = withPath(e, "["+fmt.Sprint(member)+"]")
			return false
		}
		return true
	})
	return err
}

func checkTuple(v any, _ *descriptor.Type, args []*descriptor.Type, m *Matcher) error {
	tup, ok := v.(value.Tuple)
	if !ok {
		return Mismatch("is not a tuple")
	}

	switch {
	case len(args) == 0:
		return nil
	case len(args) == 1 && args[0] == emptyTupleMarker:
		if len(tup) != 0 {
			return Mismatch("is not an empty tuple")
		}
		return nil
	case len(args) == 2 && args[1].Kind == descriptor.KindEllipsis:
		if args[0].IsAny() {
			return nil
		}
		n := m.sample(len(tup))
		for i := 0; i < n; i++ {
			if err := m.Match(tup[i], args[0]); err != nil {
				return withPath(err, pool.Item(i))
			}
		}
		return nil
	}

	if len(tup) != len(args) {
		return Mismatch("has wrong number of elements (expected %d, got %d instead)", len(args), len(tup))
	}
	for i, elem := range tup {
		if err := m.Match(elem, args[i]); err != nil {
			return withPath(err, pool.Item(i))
		}
	}
	return nil
}

func checkNamedTuple(v any, origin *descriptor.Type, _ []*descriptor.Type, m *Matcher) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == origin.GoType {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != origin.GoType {
		return Mismatch("is not a named tuple of type %s", value.TypeName(origin.GoType))
	}

	for _, f := range origin.Fields {
		fv := rv.FieldByName(f.Name)
		if !fv.IsValid() || !fv.CanInterface() {
			return malformed("named tuple %s has no exported field %q", value.TypeName(origin.GoType), f.Name)
		}
		if err := m.Match(fv.Interface(), f.Type); err != nil {
			return withPath(err, "attribute "+value.Repr(f.Name))
		}
	}
	return nil
}
