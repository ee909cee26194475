package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/structcheck/typematch/value"
)

// Format is the encoding of a value file.
type Format int

const (
	// FormatAuto picks JSON or YAML from the file extension.
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "auto"
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// TupleTag marks a YAML sequence that decodes to a value.Tuple, e.g.
// "!tuple [1, a]".
const TupleTag = "!tuple"

// DecodeValue decodes a JSON or YAML document into plain Go values: maps
// become map[string]any (or map[any]any for YAML documents with non-string
// keys), sequences []any, and numbers int when they are integral and
// float64 otherwise.
//
// YAML documents can also carry the shapes JSON cannot express: a "!!set"
// mapping decodes to map[any]struct{} and a "!tuple" sequence to a
// value.Tuple.
func DecodeValue(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// DecodeFile reads and decodes the value file at path.
func DecodeFile(path string) (any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	v, err := DecodeValue(data, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return v, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return normalizeJSON(v)
}

func normalizeJSON(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n), nil
		}
		return x.Float64()
	case []any:
		for i, item := range x {
			n, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			x[i] = n
		}
		return x, nil
	case map[string]any:
		for k, item := range x {
			n, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			x[k] = n
		}
		return x, nil
	}
	return v, nil
}

func decodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return decodeNode(&doc)
}

// decodeNode walks a YAML node tree. Scalars are left to yaml.v3, which
// yields int for integer scalars.
func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if n.Tag == TupleTag {
			return value.Tuple(items), nil
		}
		return items, nil
	case yaml.MappingNode:
		if n.ShortTag() == "!!set" {
			return decodeSet(n)
		}
		return decodeMapping(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func decodeSet(n *yaml.Node) (any, error) {
	set := make(map[any]struct{}, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, err := decodeNode(n.Content[i])
		if err != nil {
			return nil, err
		}
		if k != nil && !reflect.TypeOf(k).Comparable() {
			return nil, fmt.Errorf("line %d: set member of type %T is not hashable", n.Content[i].Line, k)
		}
		set[k] = struct{}{}
	}
	return set, nil
}

// decodeMapping builds map[string]any when every key is a string and
// map[any]any otherwise. Explicit keys take precedence over "<<" merges.
func decodeMapping(n *yaml.Node) (any, error) {
	entries := make(map[any]any, len(n.Content)/2)
	var merged []map[any]any
	stringKeys := true

	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		v, err := decodeNode(vn)
		if err != nil {
			return nil, err
		}
		if kn.ShortTag() == "!!merge" {
			m, err := mergeSources(v, kn.Line)
			if err != nil {
				return nil, err
			}
			merged = append(merged, m...)
			continue
		}

		k, err := decodeNode(kn)
		if err != nil {
			return nil, err
		}
		if k != nil && !reflect.TypeOf(k).Comparable() {
			return nil, fmt.Errorf("line %d: mapping key of type %T is not hashable", kn.Line, k)
		}
		entries[k] = v
	}

	for _, m := range merged {
		for k, v := range m {
			if _, ok := entries[k]; !ok {
				entries[k] = v
			}
		}
	}

	for k := range entries {
		if _, ok := k.(string); !ok {
			stringKeys = false
			break
		}
	}
	if !stringKeys {
		return entries, nil
	}
	out := make(map[string]any, len(entries))
	for k, v := range entries {
		out[k.(string)] = v
	}
	return out, nil
}

// mergeSources returns the mappings named by a "<<" value: one mapping or
// a sequence of them.
func mergeSources(v any, line int) ([]map[any]any, error) {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[any]any, len(x))
		for k, item := range x {
			m[k] = item
		}
		return []map[any]any{m}, nil
	case map[any]any:
		return []map[any]any{x}, nil
	case []any:
		var out []map[any]any
		for _, item := range x {
			m, err := mergeSources(item, line)
			if err != nil {
				return nil, err
			}
			out = append(out, m...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: merge value of type %T is not a mapping", line, v)
}
