package value

import "github.com/lollipopkit/luacore/gc"

// Traverse implements gc.Object: tables reach every value they hold,
// the array and hash parts alike, plus their metatable.
func (t *Table) Traverse(visit func(gc.Object)) {
	for _, v := range t.arr {
		if o, ok := v.(gc.Object); ok {
			visit(o)
		}
	}
	for _, v := range t.hash {
		if o, ok := v.(gc.Object); ok {
			visit(o)
		}
	}
	if t.Metatable != nil {
		visit(t.Metatable)
	}
}

// Traverse implements gc.Object: a closure reaches whatever its
// upvalues currently hold — the only way a closure can keep a cycle of
// tables/closures alive through captured state.
func (c *Closure) Traverse(visit func(gc.Object)) {
	for _, uv := range c.Upvals {
		if uv == nil {
			continue
		}
		if o, ok := uv.Get().(gc.Object); ok {
			visit(o)
		}
	}
}

// Traverse implements gc.Object: userdata reaches only its metatable;
// Data is opaque to the collector.
func (u *Userdata) Traverse(visit func(gc.Object)) {
	if u.Metatable != nil {
		visit(u.Metatable)
	}
}

// Traverse implements gc.Object: a coroutine reaches the closure it
// was started with.
func (co *Coroutine) Traverse(visit func(gc.Object)) {
	if co.Body != nil {
		visit(co.Body)
	}
}
