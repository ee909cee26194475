package engine

import (
	"reflect"
	"sync"

	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/value"
)

// Checker checks v against one structural shape. origin is the normalized
// descriptor and args its arguments. A failure is reported as a
// *MismatchError with a local message; the caller attaches path segments.
type Checker func(v any, origin *descriptor.Type, args []*descriptor.Type, m *Matcher) error

// LookupFunc returns the checker for a shape, or nil to defer to the next
// lookup in the chain.
type LookupFunc func(origin *descriptor.Type, args []*descriptor.Type, extras []any) Checker

// Registry is an ordered chain of lookup functions. The first non-nil
// checker wins.
type Registry struct {
	mu       sync.RWMutex
	chain    []LookupFunc
	explicit bool
}

// NewRegistry returns a registry holding only the builtin lookup.
func NewRegistry() *Registry {
	return &Registry{chain: []LookupFunc{BuiltinLookup}}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when a Config has none.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds fn after previously registered lookups and before the
// builtin lookup. On a registry whose chain was set with SetChain, fn is
// appended at the end.
func (r *Registry) Register(fn LookupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.explicit || len(r.chain) == 0 {
		r.chain = append(r.chain, fn)
		return
	}
	last := len(r.chain) - 1
	r.chain = append(r.chain[:last:last], fn, r.chain[last])
}

// Prepend puts fn in front of every other lookup.
func (r *Registry) Prepend(fn LookupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain = append([]LookupFunc{fn}, r.chain...)
}

// SetChain replaces the whole chain. The builtin lookup is only consulted
// if it is included in fns.
func (r *Registry) SetChain(fns ...LookupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain = append([]LookupFunc(nil), fns...)
	r.explicit = true
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Registry{
		chain:    append([]LookupFunc(nil), r.chain...),
		explicit: r.explicit,
	}
}

// Len returns the number of lookups in the chain.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chain)
}

// Lookup walks the chain front to back.
func (r *Registry) Lookup(origin *descriptor.Type, args []*descriptor.Type, extras []any) Checker {
	r.mu.RLock()
	chain := r.chain
	r.mu.RUnlock()

	for _, fn := range chain {
		if c := fn(origin, args, extras); c != nil {
			return c
		}
	}
	return nil
}

// Register adds fn to the default registry.
func Register(fn LookupFunc) {
	defaultRegistry.Register(fn)
}

var (
	originCheckers map[descriptor.Origin]Checker
	kindCheckers   map[descriptor.Kind]Checker
	classCheckers  map[reflect.Type]Checker
)

// The tables reference checkers that recurse into Match, so they are filled
// in init to keep package initialization acyclic.
func init() {
	originCheckers = map[descriptor.Origin]Checker{
		descriptor.OriginMapping:        checkMapping,
		descriptor.OriginMutableMapping: checkMapping,
		descriptor.OriginDict:           checkMapping,
		descriptor.OriginList:           checkList,
		descriptor.OriginSequence:       checkSequence,
		descriptor.OriginSet:            checkSet,
		descriptor.OriginTuple:          checkTuple,
		descriptor.OriginUnion:          checkUnion,
		descriptor.OriginClassOf:        checkClass,
		descriptor.OriginCallable:       checkCallable,
		descriptor.OriginIO:             checkIO,
		descriptor.OriginTextIO:         checkIO,
		descriptor.OriginBinaryIO:       checkIO,
	}
	kindCheckers = map[descriptor.Kind]Checker{
		descriptor.KindLiteral: checkLiteral,
	}
	classCheckers = map[reflect.Type]Checker{
		reflect.TypeOf(float32(0)):    checkNumber,
		reflect.TypeOf(float64(0)):    checkNumber,
		reflect.TypeOf(complex64(0)):  checkNumber,
		reflect.TypeOf(complex128(0)): checkNumber,
		reflect.TypeOf([]byte(nil)):   checkByteLike,
		value.TupleType:               checkTuple,
		value.ClassType:               checkClass,
	}
}

// BuiltinLookup resolves the builtin shapes in a fixed priority order:
// the exact shape tables (generic origins, literal, special classes), then
// typed mapping, named tuple, protocol, type variable, new type and self.
func BuiltinLookup(origin *descriptor.Type, _ []*descriptor.Type, _ []any) Checker {
	switch origin.Kind {
	case descriptor.KindGeneric:
		if c, ok := originCheckers[origin.Origin]; ok {
			return c
		}
	case descriptor.KindClass:
		if c, ok := classCheckers[origin.GoType]; ok {
			return c
		}
	}
	if c, ok := kindCheckers[origin.Kind]; ok {
		return c
	}

	switch origin.Kind {
	case descriptor.KindTypedMapping:
		return checkTypedMapping
	case descriptor.KindNamedTuple:
		return checkNamedTuple
	case descriptor.KindProtocol:
		return checkProtocol
	case descriptor.KindTypeVar:
		return checkTypeVar
	case descriptor.KindNewType:
		return checkNewType
	case descriptor.KindSelf:
		return checkSelf
	}
	return nil
}
