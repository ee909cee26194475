package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/structcheck/typematch/descriptor"
)

var singletons = map[string]*descriptor.Type{
	"Any":      descriptor.Any(),
	"object":   descriptor.Any(),
	"None":     descriptor.None(),
	"NoneType": descriptor.None(),
	"NoReturn": descriptor.Never(),
	"Never":    descriptor.Never(),
	"Self":     descriptor.Self(),
}

var builtinClasses = map[string]*descriptor.Type{
	"int":        descriptor.Int,
	"int8":       descriptor.Of[int8](),
	"int16":      descriptor.Of[int16](),
	"int32":      descriptor.Of[int32](),
	"int64":      descriptor.Of[int64](),
	"uint":       descriptor.Of[uint](),
	"uint8":      descriptor.Of[uint8](),
	"uint16":     descriptor.Of[uint16](),
	"uint32":     descriptor.Of[uint32](),
	"uint64":     descriptor.Of[uint64](),
	"str":        descriptor.Str,
	"string":     descriptor.Str,
	"float":      descriptor.Float,
	"float32":    descriptor.Of[float32](),
	"float64":    descriptor.Float,
	"complex":    descriptor.Complex,
	"complex64":  descriptor.Of[complex64](),
	"complex128": descriptor.Complex,
	"bool":       descriptor.Bool,
	"bytes":      descriptor.Bytes,
}

var origins = map[string]descriptor.Origin{
	"Dict":           descriptor.OriginDict,
	"dict":           descriptor.OriginDict,
	"List":           descriptor.OriginList,
	"list":           descriptor.OriginList,
	"Mapping":        descriptor.OriginMapping,
	"MutableMapping": descriptor.OriginMutableMapping,
	"Sequence":       descriptor.OriginSequence,
	"Set":            descriptor.OriginSet,
	"set":            descriptor.OriginSet,
	"Tuple":          descriptor.OriginTuple,
	"tuple":          descriptor.OriginTuple,
	"Type":           descriptor.OriginClassOf,
	"type":           descriptor.OriginClassOf,
	"Callable":       descriptor.OriginCallable,
	"IO":             descriptor.OriginIO,
	"TextIO":         descriptor.OriginTextIO,
	"BinaryIO":       descriptor.OriginBinaryIO,
}

var modulePrefixes = []string{"typing.", "typing_extensions.", "collections.abc.", "builtins."}

// ParseType parses a type expression such as "Dict[str, List[int]]" or
// "int | None" into a validated descriptor. Names that are neither builtin
// nor registered in classes become forward references.
func ParseType(expr string, classes *Classes) (*descriptor.Type, error) {
	return parseType(expr, classes, nil)
}

// parseType is ParseType with a set of names that always become forward
// references, even when a class of the same name is registered.
func parseType(expr string, classes *Classes, declared map[string]bool) (*descriptor.Type, error) {
	p := &parser{lex: newLexer(expr), classes: classes, declared: declared}
	t, err := p.parse()
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Expr = expr
		}
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%q: %w", expr, err)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(expr string, classes *Classes) *descriptor.Type {
	t, err := ParseType(expr, classes)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	lex      *lexer
	tok      token
	classes  *Classes
	declared map[string]bool
}

func (p *parser) parse() (*descriptor.Type, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	t, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected()
	}
	return t, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.nextToken()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(k tokenKind) error {
	if p.tok.kind != k {
		return syntaxError(p.tok.pos, fmt.Sprintf("expected %s, found %s", k, p.tok.kind))
	}
	return p.advance()
}

func (p *parser) unexpected() error {
	return syntaxError(p.tok.pos, "unexpected "+p.tok.kind.String())
}

// parseExpr parses a | separated union of terms.
func (p *parser) parseExpr() (*descriptor.Type, error) {
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		u, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		t = descriptor.Or(t, u)
	}
	return t, nil
}

func (p *parser) parseTerm() (*descriptor.Type, error) {
	switch p.tok.kind {
	case tokString:
		// Quoted names are forward references.
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return descriptor.ForwardRef(name), nil
	case tokIdent:
	default:
		return nil, p.unexpected()
	}

	pos := p.tok.pos
	name := trimModule(p.tok.text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokLBracket {
		return p.bare(pos, name)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var (
		t   *descriptor.Type
		err error
	)
	switch name {
	case "Literal":
		t, err = p.parseLiteral()
	case "Annotated":
		t, err = p.parseAnnotated()
	case "Union":
		var args []*descriptor.Type
		if args, err = p.parseList(); err == nil {
			t = descriptor.Union(args...)
		}
	case "Optional":
		if t, err = p.parseExpr(); err == nil {
			t = descriptor.Optional(t)
		}
	case "Tuple", "tuple":
		t, err = p.parseTuple()
	case "Callable":
		t, err = p.parseCallable()
	default:
		origin, ok := origins[name]
		if !ok {
			return nil, syntaxError(pos, fmt.Sprintf("%s does not take type arguments", name))
		}
		var args []*descriptor.Type
		if args, err = p.parseList(); err == nil {
			t = descriptor.Generic(origin, args...)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return t, nil
}

// bare resolves an unsubscripted name.
func (p *parser) bare(pos int, name string) (*descriptor.Type, error) {
	if p.declared[name] {
		return descriptor.ForwardRef(name), nil
	}
	if t, ok := singletons[name]; ok {
		return t, nil
	}
	if t, ok := builtinClasses[name]; ok {
		return t, nil
	}
	if origin, ok := origins[name]; ok {
		return descriptor.Generic(origin), nil
	}
	switch name {
	case "Literal", "Annotated", "Union", "Optional":
		return nil, syntaxError(pos, name+" requires type arguments")
	}
	if rt, ok := p.classes.Lookup(name); ok {
		if rt.Kind() == reflect.Interface {
			return descriptor.Protocol(rt, true), nil
		}
		return descriptor.Class(rt), nil
	}
	return descriptor.ForwardRef(name), nil
}

// parseList parses one or more comma separated expressions.
func (p *parser) parseList() ([]*descriptor.Type, error) {
	var args []*descriptor.Type
	for {
		t, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.tok.kind != tokComma {
			return args, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseTuple() (*descriptor.Type, error) {
	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return descriptor.EmptyTuple(), nil
	}

	var elems []*descriptor.Type
	for {
		if p.tok.kind == tokEllipsis {
			if len(elems) != 1 {
				return nil, syntaxError(p.tok.pos, "'...' must follow exactly one tuple element")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return descriptor.VarTuple(elems[0]), nil
		}
		t, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		if p.tok.kind != tokComma {
			return descriptor.Tuple(elems...), nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseCallable() (*descriptor.Type, error) {
	anyArgs := false
	var params []*descriptor.Type

	switch p.tok.kind {
	case tokEllipsis:
		anyArgs = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokRBracket {
			var err error
			if params, err = p.parseList(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
	default:
		return nil, syntaxError(p.tok.pos, "Callable expects '...' or a parameter list")
	}

	if err := p.expect(tokComma); err != nil {
		return nil, err
	}
	result, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if anyArgs {
		return descriptor.CallableAny(result), nil
	}
	return descriptor.Callable(params, result), nil
}

func (p *parser) parseLiteral() (*descriptor.Type, error) {
	var values []any
	for {
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return descriptor.Literal(values...)
}

func (p *parser) parseLiteralValue() (any, error) {
	tok := p.tok
	switch tok.kind {
	case tokInt:
		n, err := strconv.Atoi(tok.text)
		if err != nil {
			return nil, syntaxError(tok.pos, "integer out of range")
		}
		return n, p.advance()
	case tokString:
		return tok.text, p.advance()
	case tokBytes:
		return []byte(tok.text), p.advance()
	case tokIdent:
		switch tok.text {
		case "True":
			return true, p.advance()
		case "False":
			return false, p.advance()
		case "None":
			return nil, p.advance()
		case "Literal", "typing.Literal":
			return p.parseTerm()
		}
	}
	return nil, syntaxError(tok.pos, "illegal literal value")
}

// parseAnnotated parses Annotated[T, meta...]. Metadata is kept as literal
// values or descriptors and never affects matching.
func (p *parser) parseAnnotated() (*descriptor.Type, error) {
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var extras []any
	for p.tok.kind == tokComma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.tok.kind {
		case tokInt, tokString, tokBytes:
			v, err := p.parseLiteralValue()
			if err != nil {
				return nil, err
			}
			extras = append(extras, v)
		default:
			t, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			extras = append(extras, t)
		}
	}
	return descriptor.Annotated(inner, extras...), nil
}

func trimModule(name string) string {
	for _, prefix := range modulePrefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return rest
		}
	}
	return name
}
