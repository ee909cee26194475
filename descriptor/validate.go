package descriptor

import (
	"fmt"
	"reflect"
)

// Validate reports the first malformed node in the descriptor tree.
// Forward references are not followed.
func (t *Type) Validate() error {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindTypeVar:
		if t.Bound != nil && len(t.Constraints) > 0 {
			return fmt.Errorf("%w: type variable %s has both a bound and constraints", ErrMalformed, t.Label)
		}
		if err := t.Bound.Validate(); err != nil {
			return err
		}
		return validateAll(t.Constraints)
	case KindLiteral:
		_, err := FlattenLiteral(t)
		return err
	case KindClass:
		if t.GoType == nil {
			return fmt.Errorf("%w: class descriptor without a type", ErrMalformed)
		}
	case KindProtocol:
		if t.GoType == nil || t.GoType.Kind() != reflect.Interface {
			return fmt.Errorf("%w: protocol %s is not an interface type", ErrMalformed, t.Label)
		}
	case KindNamedTuple:
		if t.GoType == nil || t.GoType.Kind() != reflect.Struct {
			return fmt.Errorf("%w: named tuple %s is not a struct type", ErrMalformed, t.Label)
		}
		for _, f := range t.Fields {
			if _, ok := t.GoType.FieldByName(f.Name); !ok {
				return fmt.Errorf("%w: named tuple %s has no field %q", ErrMalformed, t.Label, f.Name)
			}
			if err := f.Type.Validate(); err != nil {
				return err
			}
		}
	case KindTypedMapping:
		for _, f := range t.Fields {
			if err := f.Type.Validate(); err != nil {
				return err
			}
		}
	case KindGeneric:
		if err := validateArity(t); err != nil {
			return err
		}
		return validateAll(t.Args)
	case KindParams:
		return validateAll(t.Args)
	case KindNewType, KindAnnotated:
		if t.Supertype == nil {
			return fmt.Errorf("%w: %s wraps no type", ErrMalformed, t.Kind)
		}
		return t.Supertype.Validate()
	}
	return nil
}

func validateAll(ts []*Type) error {
	for _, a := range ts {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateArity(t *Type) error {
	if !t.Parameterized {
		return nil
	}
	want := -1
	switch t.Origin {
	case OriginMapping, OriginMutableMapping, OriginDict, OriginCallable:
		want = 2
	case OriginList, OriginSequence, OriginSet, OriginClassOf:
		want = 1
	}
	if want >= 0 && len(t.Args) != want {
		return fmt.Errorf("%w: %s expects %d type argument(s), got %d", ErrMalformed, t.Origin, want, len(t.Args))
	}
	return nil
}

// FlattenLiteral returns the allowed values of a literal descriptor with
// nested literals expanded in declaration order.
func FlattenLiteral(t *Type) ([]any, error) {
	out := make([]any, 0, len(t.Values))
	return flattenInto(out, t.Values)
}

func flattenInto(out []any, values []any) ([]any, error) {
	for _, v := range values {
		if lt, ok := v.(*Type); ok {
			if lt.Kind != KindLiteral {
				return nil, fmt.Errorf("%w: illegal literal value: %s", ErrMalformed, lt.Name())
			}
			var err error
			if out, err = flattenInto(out, lt.Values); err != nil {
				return nil, err
			}
			continue
		}
		if !IsLiteralKind(v) {
			return nil, fmt.Errorf("%w: illegal literal value: %v", ErrMalformed, v)
		}
		out = append(out, v)
	}
	return out, nil
}
