package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/structcheck/typematch"
)

// Declaration kinds accepted in a schema document.
const (
	KindAlias        = "alias"
	KindTypedMapping = "typed_mapping"
	KindNamedTuple   = "named_tuple"
	KindTypeVar      = "typevar"
	KindNewType      = "newtype"
	KindLiteral      = "literal"
	KindProtocol     = "protocol"
)

// Document is the on-disk form of a schema file.
type Document struct {
	// Version is the schema format version, e.g. "1.1.0".
	Version string `yaml:"version"`

	// Types lists the named declarations in order.
	Types []Declaration `yaml:"types"`
}

// Declaration declares one named type, for example:
//
//	types:
//	  - name: Scores
//	    type: Dict[str, List[int]]
//	  - name: Movie
//	    kind: typed_mapping
//	    fields:
//	      - {name: title, type: str}
//	      - {name: year, type: int, optional: true}
type Declaration struct {
	Name string `yaml:"name"`

	// Kind defaults to alias.
	Kind string `yaml:"kind,omitempty"`

	// Type is the aliased expression of an alias or the supertype of a new type.
	Type string `yaml:"type,omitempty"`

	// Fields of a typed mapping or named tuple.
	Fields []FieldDecl `yaml:"fields,omitempty"`

	// GoType names a registered class bound to a named tuple or protocol.
	// Defaults to Name.
	GoType string `yaml:"go_type,omitempty"`

	// Bound and Constraints restrict a type variable.
	Bound       string   `yaml:"bound,omitempty"`
	Constraints []string `yaml:"constraints,omitempty"`

	// Values are the members of a literal.
	Values []any `yaml:"values,omitempty"`

	// RuntimeCheckable marks a protocol as structurally checkable.
	// Defaults to true.
	RuntimeCheckable *bool `yaml:"runtime_checkable,omitempty"`
}

// FieldDecl is one field of a typed mapping or named tuple.
type FieldDecl struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional,omitempty"`
}

// kind returns the declaration kind with the default applied.
func (d *Declaration) kind() string {
	if d.Kind == "" {
		return KindAlias
	}
	return d.Kind
}

// ReadDocument reads and parses a schema file.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return ParseDocument(data, path)
}

// ParseDocument parses schema content from bytes and checks its version
// and declaration structure. The source argument is used only for error
// messages.
func ParseDocument(data []byte, source string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	if err := doc.validate(source); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SchemaVersion returns the declared format version.
func (doc *Document) SchemaVersion() typematch.SchemaVersion {
	return typematch.SchemaVersion(doc.Version)
}

func (doc *Document) validate(source string) error {
	if doc.Version == "" {
		return fmt.Errorf("%w: %s: missing version", ErrUnsupportedVersion, source)
	}
	v := doc.SchemaVersion()
	if !v.IsValid() {
		return fmt.Errorf("%w: %s: %s", ErrUnsupportedVersion, source, v)
	}
	features := v.Features()

	seen := make(map[string]bool, len(doc.Types))
	for i := range doc.Types {
		d := &doc.Types[i]
		if d.Name == "" {
			return invalidf(source, "types[%d]: name is required", i)
		}
		if seen[d.Name] {
			return invalidf(source, "%s: declared more than once", d.Name)
		}
		seen[d.Name] = true

		switch d.kind() {
		case KindAlias, KindNewType:
			if d.Type == "" {
				return invalidf(source, "%s: type is required for %s", d.Name, d.kind())
			}
		case KindTypedMapping:
		case KindNamedTuple:
			if !features.NamedTuples {
				return invalidf(source, "%s: named tuples require schema version 1.1.0 or later", d.Name)
			}
		case KindProtocol:
			if !features.Protocols {
				return invalidf(source, "%s: protocols require schema version 1.1.0 or later", d.Name)
			}
		case KindTypeVar:
			if d.Bound != "" && len(d.Constraints) > 0 {
				return invalidf(source, "%s: a type variable cannot have both a bound and constraints", d.Name)
			}
		case KindLiteral:
			if len(d.Values) == 0 {
				return invalidf(source, "%s: a literal needs at least one value", d.Name)
			}
		default:
			return invalidf(source, "%s: unknown kind %q", d.Name, d.Kind)
		}

		fieldSeen := make(map[string]bool, len(d.Fields))
		for j, f := range d.Fields {
			if f.Name == "" || f.Type == "" {
				return invalidf(source, "%s: fields[%d]: name and type are required", d.Name, j)
			}
			if fieldSeen[f.Name] {
				return invalidf(source, "%s: field %s declared more than once", d.Name, f.Name)
			}
			fieldSeen[f.Name] = true
		}
	}
	return nil
}
