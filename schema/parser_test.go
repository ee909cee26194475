package schema_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/schema"
)

type Point struct {
	X, Y int
}

func TestParseType(t *testing.T) {
	tests := []struct {
		expr string
		want *descriptor.Type
	}{
		{"int", descriptor.Int},
		{"str", descriptor.Str},
		{"Any", descriptor.Any()},
		{"None", descriptor.None()},
		{"typing.NoReturn", descriptor.Never()},
		{"Dict[str, List[int]]", descriptor.Dict(descriptor.Str, descriptor.List(descriptor.Int))},
		{"dict", descriptor.Generic(descriptor.OriginDict)},
		{"int | None", descriptor.Optional(descriptor.Int)},
		{"Optional[int]", descriptor.Optional(descriptor.Int)},
		{"Union[int, str, int]", descriptor.Union(descriptor.Int, descriptor.Str)},
		{"Tuple[int, ...]", descriptor.VarTuple(descriptor.Int)},
		{"Tuple[()]", descriptor.EmptyTuple()},
		{"tuple[int, str]", descriptor.Tuple(descriptor.Int, descriptor.Str)},
		{"Callable[[int, str], Any]", descriptor.Callable([]*descriptor.Type{descriptor.Int, descriptor.Str}, descriptor.Any())},
		{"Callable[[], None]", descriptor.Callable(nil, descriptor.None())},
		{"Callable[..., int]", descriptor.CallableAny(descriptor.Int)},
		{"Literal[1, 'a', True, None, b'x', -3]", descriptor.MustLiteral(1, "a", true, nil, []byte("x"), -3)},
		{"Literal[1, Literal['a']]", descriptor.MustLiteral(1, descriptor.MustLiteral("a"))},
		{"Type[int]", descriptor.ClassOf(descriptor.Int)},
		{"Node", descriptor.ForwardRef("Node")},
		{"List['Node']", descriptor.List(descriptor.ForwardRef("Node"))},
		{"Annotated[int, 'positive']", descriptor.Annotated(descriptor.Int, "positive")},
		{"collections.abc.Sequence[bytes]", descriptor.Sequence(descriptor.Bytes)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := schema.ParseType(tt.expr, nil)
			require.NoError(t, err)
			assert.True(t, descriptor.Equal(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseType_Classes(t *testing.T) {
	classes := schema.NewClasses()
	schema.RegisterClass[Point](classes, "Point")
	schema.RegisterClass[fmt.Stringer](classes, "Stringer")

	got, err := schema.ParseType("List[Point]", classes)
	require.NoError(t, err)
	assert.True(t, descriptor.Equal(descriptor.List(descriptor.Of[Point]()), got))

	got, err = schema.ParseType("Stringer", classes)
	require.NoError(t, err)
	assert.Equal(t, descriptor.KindProtocol, got.Kind)
	assert.True(t, got.RuntimeCheckable)

	assert.Equal(t, []string{"Point", "Stringer"}, classes.Names())
}

func TestParseType_Errors(t *testing.T) {
	syntax := []string{
		"",
		"List[int",
		"Dict[str,]",
		"int |",
		"Literal[1.5]",
		"Literal[int]",
		"Tuple[...]",
		"Tuple[int, str, ...]",
		"Callable[int, str]",
		"Union",
		"int[str]",
		"List[int]]",
		"'unterminated",
		"List[int] $",
	}
	for _, expr := range syntax {
		_, err := schema.ParseType(expr, nil)
		assert.ErrorIs(t, err, schema.ErrSyntax, "%q", expr)
	}

	_, err := schema.ParseType("Dict[str]", nil)
	assert.ErrorIs(t, err, descriptor.ErrMalformed)

	_, err = schema.ParseType("List[int", nil)
	var se *schema.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "List[int", se.Expr)
	assert.Equal(t, 8, se.Offset)
}

func TestParseType_NULByte(t *testing.T) {
	_, err := schema.ParseType("int\x00garbage]]]", nil)
	var se *schema.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Offset)
	assert.Contains(t, se.Msg, "unexpected character")

	// NUL inside a quoted literal is string content.
	d, err := schema.ParseType("Literal['a\x00b']", nil)
	require.NoError(t, err)
	assert.True(t, descriptor.Equal(descriptor.MustLiteral("a\x00b"), d))
}

func TestMustParseType(t *testing.T) {
	assert.NotPanics(t, func() { schema.MustParseType("List[int]", nil) })
	assert.Panics(t, func() { schema.MustParseType("List[", nil) })
}
