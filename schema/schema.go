// Package schema reads named type declarations from YAML documents and
// parses type expressions such as "Dict[str, List[int]]" into descriptors.
//
// A loaded Schema is a resolve.Resolver: type expressions that mention a
// declared name produce forward references, which the engine resolves
// through the schema at match time. Declarations may therefore refer to
// each other in any order, including recursively.
package schema

import (
	"context"
	"fmt"
	"reflect"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/cache"
	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/resolve"
)

// Schema is a set of named descriptors built from a Document.
type Schema struct {
	source  string
	version typematch.SchemaVersion
	classes *Classes
	types   *resolve.MapResolver

	// declared holds every name in the document so that references parse
	// as forward references regardless of declaration order.
	declared map[string]bool

	// parsed memoizes Parse. Keys carry the class table generation so that
	// registering a class after loading invalidates earlier parses.
	parsed *cache.LRU[parseKey, *descriptor.Type]
}

type parseKey struct {
	expr string
	gen  uint64
}

var _ resolve.Resolver = (*Schema)(nil)

// Load reads the schema file at path, binding named tuples and protocols
// to classes.
func Load(path string, classes *Classes) (*Schema, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Build(doc, path, classes)
}

// Read parses schema content from bytes.
func Read(data []byte, source string, classes *Classes) (*Schema, error) {
	doc, err := ParseDocument(data, source)
	if err != nil {
		return nil, err
	}
	return Build(doc, source, classes)
}

// Build turns a validated document into descriptors.
func Build(doc *Document, source string, classes *Classes) (*Schema, error) {
	if classes == nil {
		classes = NewClasses()
	}
	s := &Schema{
		source:  source,
		version: doc.SchemaVersion(),
		classes: classes,
		types:   resolve.NewMapResolver(nil),

		declared: make(map[string]bool, len(doc.Types)),
		parsed:   cache.New[parseKey, *descriptor.Type](0),
	}
	for _, d := range doc.Types {
		s.declared[d.Name] = true
	}
	for i := range doc.Types {
		d := &doc.Types[i]
		t, err := s.build(d)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", source, d.Name, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", source, d.Name, err)
		}
		s.types.Define(d.Name, t)
	}
	return s, nil
}

func (s *Schema) build(d *Declaration) (*descriptor.Type, error) {
	switch d.kind() {
	case KindAlias:
		return s.Parse(d.Type)
	case KindNewType:
		super, err := s.Parse(d.Type)
		if err != nil {
			return nil, err
		}
		return descriptor.NewType(d.Name, super), nil
	case KindTypedMapping:
		fields, err := s.fields(d.Fields)
		if err != nil {
			return nil, err
		}
		return descriptor.TypedMapping(d.Name, fields...), nil
	case KindNamedTuple:
		rt, err := s.class(d, reflect.Struct)
		if err != nil {
			return nil, err
		}
		fields, err := s.fields(d.Fields)
		if err != nil {
			return nil, err
		}
		t := descriptor.NamedTuple(rt, fields...)
		t.Label = d.Name
		return t, nil
	case KindProtocol:
		rt, err := s.class(d, reflect.Interface)
		if err != nil {
			return nil, err
		}
		checkable := d.RuntimeCheckable == nil || *d.RuntimeCheckable
		t := descriptor.Protocol(rt, checkable)
		t.Label = d.Name
		return t, nil
	case KindTypeVar:
		if d.Bound != "" {
			bound, err := s.Parse(d.Bound)
			if err != nil {
				return nil, err
			}
			return descriptor.BoundTypeVar(d.Name, bound), nil
		}
		constraints := make([]*descriptor.Type, 0, len(d.Constraints))
		for _, expr := range d.Constraints {
			c, err := s.Parse(expr)
			if err != nil {
				return nil, err
			}
			constraints = append(constraints, c)
		}
		if len(constraints) == 0 {
			return descriptor.TypeVar(d.Name), nil
		}
		return descriptor.ConstrainedTypeVar(d.Name, constraints...), nil
	case KindLiteral:
		return descriptor.Literal(d.Values...)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSchema, d.Kind)
}

func (s *Schema) fields(decls []FieldDecl) ([]descriptor.Field, error) {
	fields := make([]descriptor.Field, 0, len(decls))
	for _, f := range decls {
		t, err := s.Parse(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if f.Optional {
			fields = append(fields, descriptor.NotRequired(f.Name, t))
		} else {
			fields = append(fields, descriptor.Required(f.Name, t))
		}
	}
	return fields, nil
}

func (s *Schema) class(d *Declaration, kind reflect.Kind) (reflect.Type, error) {
	name := d.GoType
	if name == "" {
		name = d.Name
	}
	rt, ok := s.classes.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: no Go type registered as %q", ErrInvalidSchema, name)
	}
	if rt.Kind() != kind {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrInvalidSchema, name, rt.Kind(), kind)
	}
	return rt, nil
}

// Parse parses a type expression against this schema's registered classes.
// Declared names become forward references resolved through the schema.
// Results are cached; descriptors are shared and must not be modified.
func (s *Schema) Parse(expr string) (*descriptor.Type, error) {
	key := parseKey{expr: expr, gen: s.classes.generation()}
	t, _, err := s.parsed.Load(key, func(k parseKey) (*descriptor.Type, error) {
		return parseType(k.expr, s.classes, s.declared)
	})
	return t, err
}

// ParseStats reports hits and misses of the Parse cache.
func (s *Schema) ParseStats() cache.Stats {
	return s.parsed.Stats()
}

// Resolve implements resolve.Resolver.
func (s *Schema) Resolve(ctx context.Context, name string) (*descriptor.Type, error) {
	return s.types.Resolve(ctx, name)
}

// Lookup returns the declared type called name.
func (s *Schema) Lookup(name string) (*descriptor.Type, bool) {
	t, err := s.types.Resolve(context.Background(), name)
	return t, err == nil
}

// Names returns the declared names in sorted order.
func (s *Schema) Names() []string {
	return s.types.Names()
}

// Version returns the document's format version.
func (s *Schema) Version() typematch.SchemaVersion {
	return s.version
}

// Source returns the path or label the schema was read from.
func (s *Schema) Source() string {
	return s.source
}
