// Package gc implements a hybrid reference-counted + cycle-tracing
// collector over Lua's heap-allocated reference values (tables,
// closures, userdata, coroutines). Go's own GC ultimately owns the
// memory; this layer exists to honor Lua's `__gc` finalizer and
// `<close>` semantics, which need deterministic "this object's
// refcount just hit zero" and "this object is part of an unreachable
// cycle" events that Go's collector doesn't expose.
package gc

// Object is anything the collector tracks: a refcount, a mark bit for
// tracing, and a way to visit whatever it references.
type Object interface {
	// Traverse calls visit once for every Object this one directly
	// references (a table's keys/values/metatable, a closure's
	// upvalues, ...).
	Traverse(visit func(Object))
}

// header is embedded (conceptually; Go has no inheritance, so the
// collector keeps headers in a side table keyed by Object identity)
// per tracked object.
type header struct {
	obj      Object
	refCount int
	marked   bool
	finalize func() // __gc, run once when the object is collected
}

// GCStrategy selects how Collect() reclaims unreachable objects.
type GCStrategy int

const (
	// ReferenceCounting reclaims an object the instant its refcount
	// hits zero; never reclaims cycles.
	ReferenceCounting GCStrategy = iota
	// HybridRCTracing is refcounting as the fast path plus periodic
	// cycle detection once enough objects have accumulated.
	HybridRCTracing
	// MarkAndSweep ignores refcounts and traces reachability from
	// roots on every collection.
	MarkAndSweep
)

func (s GCStrategy) String() string {
	switch s {
	case ReferenceCounting:
		return "reference-counting"
	case HybridRCTracing:
		return "hybrid-rc-tracing"
	case MarkAndSweep:
		return "mark-and-sweep"
	}
	return "unknown"
}

// Stats mirrors what an embedder might want to report via a debug
// library (collectgarbage("count") and friends).
type Stats struct {
	CollectionsRun   int
	CyclesDetected   int
	CurrentObjects   int
	LastObjectsFreed int
}
