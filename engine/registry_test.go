package engine_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/engine"
)

type evenInt int

// evenLookup handles the evenInt class.
func evenLookup(origin *descriptor.Type, _ []*descriptor.Type, _ []any) engine.Checker {
	if origin.Kind != descriptor.KindClass || origin.GoType != reflect.TypeOf(evenInt(0)) {
		return nil
	}
	return func(v any, _ *descriptor.Type, _ []*descriptor.Type, _ *engine.Matcher) error {
		n, ok := v.(evenInt)
		if !ok {
			return engine.Mismatch("is not an evenInt")
		}
		if n%2 != 0 {
			return engine.Mismatch("is odd")
		}
		return nil
	}
}

func rejectAll(origin *descriptor.Type, _ []*descriptor.Type, _ []any) engine.Checker {
	return func(any, *descriptor.Type, []*descriptor.Type, *engine.Matcher) error {
		return engine.Mismatch("rejected by %s", origin.Name())
	}
}

func TestRegistry_Register(t *testing.T) {
	r := engine.NewRegistry()
	require.Equal(t, 1, r.Len())
	r.Register(evenLookup)
	require.Equal(t, 2, r.Len())

	d := descriptor.Of[evenInt]()
	opts := engine.WithRegistry(r)

	assert.NoError(t, engine.Check(evenInt(4), d, opts))
	assert.EqualError(t, engine.Check(evenInt(3), d, opts), "is odd")
	assert.EqualError(t, engine.Check([]evenInt{2, 5}, descriptor.List(d), opts), "item 1 is odd")

	// Without the extension the plain instance-of check applies.
	assert.NoError(t, engine.Check(evenInt(3), d))
}

func TestRegistry_BuiltinStaysLast(t *testing.T) {
	r := engine.NewRegistry()
	r.Register(evenLookup)
	r.Register(rejectAll)

	// rejectAll sits before the builtin lookup, so it sees every descriptor.
	assert.EqualError(t, engine.Check([]int{1}, descriptor.List(descriptor.Int), engine.WithRegistry(r)), "rejected by List[int]")
	// evenLookup was registered first and still wins for its class.
	assert.NoError(t, engine.Check(evenInt(2), descriptor.Of[evenInt](), engine.WithRegistry(r)))
}

func TestRegistry_Prepend(t *testing.T) {
	r := engine.NewRegistry()
	r.Register(evenLookup)
	r.Prepend(rejectAll)

	assert.EqualError(t, engine.Check(evenInt(2), descriptor.Of[evenInt](), engine.WithRegistry(r)), "rejected by engine_test.evenInt")
}

func TestRegistry_SetChain(t *testing.T) {
	r := engine.NewRegistry()
	r.SetChain(evenLookup)

	// Without the builtin lookup, lists fall back to instance-of on a generic,
	// which has no checker at all.
	err := engine.Check([]int{1}, descriptor.List(descriptor.Int), engine.WithRegistry(r))
	assert.ErrorIs(t, err, engine.ErrMalformed)

	// Plain classes still use the instance-of fallback.
	assert.NoError(t, engine.Check(1, descriptor.Int, engine.WithRegistry(r)))

	r.Register(engine.BuiltinLookup)
	assert.NoError(t, engine.Check([]int{1}, descriptor.List(descriptor.Int), engine.WithRegistry(r)))
}

func TestWithLookup_DoesNotModifyBase(t *testing.T) {
	base := engine.NewRegistry()
	cfg := engine.NewConfig(engine.WithRegistry(base), engine.WithLookup(evenLookup))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, cfg.Registry.Len())
	assert.EqualError(t, engine.CheckWith(context.Background(), cfg, evenInt(1), descriptor.Of[evenInt]()), "is odd")
}

func TestRegistry_Clone(t *testing.T) {
	r := engine.NewRegistry()
	clone := r.Clone()
	clone.Register(evenLookup)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestBuiltinLookup_Priority(t *testing.T) {
	tests := []struct {
		name string
		d    *descriptor.Type
		want bool
	}{
		{"dict", descriptor.Dict(descriptor.Str, descriptor.Int), true},
		{"literal", descriptor.MustLiteral(1), true},
		{"float class", descriptor.Float, true},
		{"bytes class", descriptor.Bytes, true},
		{"typed mapping", descriptor.TypedMapping("M"), true},
		{"named tuple", descriptor.NamedTupleOf[Point](), true},
		{"protocol", descriptor.ProtocolOf[interface{ Len() int }](true), true},
		{"type variable", descriptor.TypeVar("T"), true},
		{"new type", descriptor.NewType("ID", descriptor.Int), true},
		{"self", descriptor.Self(), true},
		{"plain class", descriptor.Int, false},
		{"none", descriptor.None(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.BuiltinLookup(tt.d, tt.d.Args, nil) != nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypedMappingBeforeNamedTuple(t *testing.T) {
	// A typed mapping never dispatches to the named tuple checker even when
	// its fields look like a struct's.
	d := descriptor.TypedMapping("Point", descriptor.Required("X", descriptor.Int), descriptor.Required("Y", descriptor.Int))
	assert.NoError(t, engine.Check(map[string]any{"X": 1, "Y": 2}, d))
	assert.EqualError(t, engine.Check(Point{1, 2}, d), "is not a dict")
}
