// Package typematch checks that runtime values conform to structured type
// descriptors: generics, unions, literals, typed mappings, named tuples,
// protocols, callables and forward references.
//
// This package holds the shared result types (Issue, Result, Metrics) and
// the schema versioning. Descriptors are built with the descriptor package
// and checked with the engine package.
//
// # Quick Start
//
//	import (
//	    "github.com/structcheck/typematch/descriptor"
//	    "github.com/structcheck/typematch/engine"
//	)
//
//	t := descriptor.Dict(descriptor.Of[string](), descriptor.List(descriptor.Of[int]()))
//	if err := engine.Check(map[string]any{"a": []any{1, "x"}}, t); err != nil {
//	    fmt.Println(err) // item 1 of value of key 'a' is not an instance of int
//	}
//
// Inspect reports every problem as a Result instead of stopping at the
// first one:
//
//	result := engine.Inspect(ctx, engine.DefaultConfig(), v, t)
//	defer result.Release()
//	for _, issue := range result.Errors() {
//	    fmt.Println(issue.Diagnostics)
//	}
//
// # Forward References
//
// Named types are resolved lazily through a Resolver. The schema package
// loads named declarations from YAML and parses type expressions such as
// "List[Movie] | None"; unresolved names are handled according to the
// configured ForwardRefPolicy (error, warn or ignore).
//
// # Performance Features
//
//   - Worker Pool: parallel batch checks with the worker package
//   - sync.Pool: Result and path buffers are reused across checks
//   - Generic Cache: LRU caching of resolved forward references
package typematch
