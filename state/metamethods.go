package state

import "github.com/lollipopkit/luacore/value"

// metatableOf returns v's metatable: a table's own Metatable field for
// table values, StringMeta for strings, or nil otherwise — mirroring
// the teacher's getMetatable (state/lua_value.go), generalized from
// its registry-keyed per-type metatable slots to the couple of types
// this implementation actually lets carry one.
func (th *Thread) metatableOf(v any) *value.Table {
	switch x := v.(type) {
	case *value.Table:
		return x.Metatable
	case *value.Userdata:
		return x.Metatable
	case string:
		return th.StringMeta
	default:
		return nil
	}
}

func (th *Thread) metafield(v any, name string) any {
	mt := th.metatableOf(v)
	if mt == nil {
		return nil
	}
	return mt.Get(name)
}

// Metatable exposes metatableOf to embedders/stdlib — getmetatable()'s
// raw lookup before any __metatable field protection is applied.
func (th *Thread) Metatable(v any) *value.Table { return th.metatableOf(v) }

// Metamethod exposes metafield to embedders/stdlib, used by tostring,
// pairs and similar library functions that need to consult a specific
// metafield without going through a full Index chain.
func (th *Thread) Metamethod(v any, name string) any { return th.metafield(v, name) }

// ToDisplayString implements tostring()'s __tostring-aware conversion,
// grounded on the teacher's ToString2 (state/api_misc.go): consult
// __tostring first, then __name for a typed default, else fall back to
// value.ToString's plain formatting.
func (th *Thread) ToDisplayString(v any) string {
	if mm := th.metafield(v, "__tostring"); mm != nil {
		results := th.Call(mm, []any{v}, 1)
		if s, ok := results[0].(string); ok {
			return s
		}
		th.Errorf("'__tostring' must return a string")
	}
	if name := th.metafield(v, "__name"); name != nil {
		if s, ok := name.(string); ok {
			if _, isTable := v.(*value.Table); isTable {
				return s
			}
		}
	}
	return value.ToString(v)
}

func (th *Thread) metamethod(v any, name string) any {
	return th.metafield(v, name)
}

// binMetamethod looks up name on a first, then b, matching the
// teacher's callMetamethod search order.
func (th *Thread) binMetamethod(a, b any, name string) any {
	if mm := th.metafield(a, name); mm != nil {
		return mm
	}
	return th.metafield(b, name)
}

// Index implements vm.Runtime: push(t[k]), chaining through __index
// (a table or a callable) until a raw value is found or no metafield
// remains, grounded on the teacher's getTable (state/api_get.go).
func (th *Thread) Index(t, k any) any {
	for i := 0; i < maxCallDepth; i++ {
		if tbl, ok := t.(*value.Table); ok {
			v := tbl.Get(k)
			if v != nil {
				return v
			}
			mf := th.metafield(tbl, "__index")
			if mf == nil {
				return nil
			}
			if next, ok := mf.(*value.Table); ok {
				t = next
				continue
			}
			results := th.Call(mf, []any{t, k}, 1)
			return results[0]
		}

		mf := th.metafield(t, "__index")
		if mf == nil {
			th.Errorf("attempt to index a %s value", value.TypeName(t))
		}
		if next, ok := mf.(*value.Table); ok {
			t = next
			continue
		}
		results := th.Call(mf, []any{t, k}, 1)
		return results[0]
	}
	th.Errorf("'__index' chain too long; possible loop")
	return nil
}

// NewIndex implements vm.Runtime: t[k] = v, chaining through
// __newindex, grounded on the teacher's setTable (state/api_set.go).
func (th *Thread) NewIndex(t, k, v any) {
	for i := 0; i < maxCallDepth; i++ {
		if tbl, ok := t.(*value.Table); ok {
			if tbl.Get(k) != nil {
				if err := tbl.Set(k, v); err != nil {
					th.Errorf("%s", err.Error())
				}
				return
			}
			mf := th.metafield(tbl, "__newindex")
			if mf == nil {
				if err := tbl.Set(k, v); err != nil {
					th.Errorf("%s", err.Error())
				}
				return
			}
			if next, ok := mf.(*value.Table); ok {
				t = next
				continue
			}
			th.Call(mf, []any{t, k, v}, 0)
			return
		}

		mf := th.metafield(t, "__newindex")
		if mf == nil {
			th.Errorf("attempt to index a %s value", value.TypeName(t))
		}
		if next, ok := mf.(*value.Table); ok {
			t = next
			continue
		}
		th.Call(mf, []any{t, k, v}, 0)
		return
	}
	th.Errorf("'__newindex' chain too long; possible loop")
}

// Equals implements vm.Runtime, falling back to __eq only when both
// operands are tables (or both userdata) and raw equality said no —
// per Lua semantics values of different primitive types are never
// __eq-equal.
func (th *Thread) Equals(a, b any) bool {
	if value.Equal(a, b) {
		return true
	}
	ta, aok := a.(*value.Table)
	tb, bok := b.(*value.Table)
	if aok && bok {
		if mm := th.binMetamethod(ta, tb, "__eq"); mm != nil {
			results := th.Call(mm, []any{a, b}, 1)
			return value.Truthy(results[0])
		}
	}
	ua, aok := a.(*value.Userdata)
	ub, bok := b.(*value.Userdata)
	if aok && bok {
		if mm := th.binMetamethod(ua, ub, "__eq"); mm != nil {
			results := th.Call(mm, []any{a, b}, 1)
			return value.Truthy(results[0])
		}
	}
	return false
}

// Less implements vm.Runtime: a < b.
func (th *Thread) Less(a, b any) bool {
	if af, ok := value.ToFloat(a); ok {
		if ai, aIsInt := a.(int64); aIsInt {
			if bi, bIsInt := b.(int64); bIsInt {
				return ai < bi
			}
		}
		if bf, ok := value.ToFloat(b); ok {
			return af < bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as < bs
		}
	}
	if mm := th.binMetamethod(a, b, "__lt"); mm != nil {
		results := th.Call(mm, []any{a, b}, 1)
		return value.Truthy(results[0])
	}
	th.Errorf("attempt to compare %s with %s", value.TypeName(a), value.TypeName(b))
	return false
}

// LessEq implements vm.Runtime: a <= b.
func (th *Thread) LessEq(a, b any) bool {
	if ai, aIsInt := a.(int64); aIsInt {
		if bi, bIsInt := b.(int64); bIsInt {
			return ai <= bi
		}
	}
	if af, ok := value.ToFloat(a); ok {
		if bf, ok := value.ToFloat(b); ok {
			return af <= bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as <= bs
		}
	}
	if mm := th.binMetamethod(a, b, "__le"); mm != nil {
		results := th.Call(mm, []any{a, b}, 1)
		return value.Truthy(results[0])
	}
	// Lua 5.3 fallback: a <= b as not (b < a), only if no __le exists.
	if mm := th.binMetamethod(a, b, "__lt"); mm != nil {
		results := th.Call(mm, []any{b, a}, 1)
		return !value.Truthy(results[0])
	}
	th.Errorf("attempt to compare %s with %s", value.TypeName(a), value.TypeName(b))
	return false
}

// Len implements vm.Runtime: the # operator, grounded on the teacher's
// api_misc.go Len (raw length, falling back to __len).
func (th *Thread) Len(v any) any {
	switch x := v.(type) {
	case string:
		return int64(len(x))
	case *value.Table:
		if mm := th.metafield(x, "__len"); mm != nil {
			results := th.Call(mm, []any{x}, 1)
			return results[0]
		}
		return int64(x.Len())
	}
	if mm := th.metafield(v, "__len"); mm != nil {
		results := th.Call(mm, []any{v}, 1)
		return results[0]
	}
	th.Errorf("attempt to get length of a %s value", value.TypeName(v))
	return nil
}

// Concat implements vm.Runtime, folding right-to-left so any single
// __concat metamethod sees exactly the two operands adjacent to it,
// matching Lua's right-associative .. operator.
func (th *Thread) Concat(vals []any) any {
	if len(vals) == 0 {
		return ""
	}
	acc := vals[len(vals)-1]
	for i := len(vals) - 2; i >= 0; i-- {
		acc = th.concat2(vals[i], acc)
	}
	return acc
}

func (th *Thread) concat2(a, b any) any {
	as, aok := concatString(a)
	bs, bok := concatString(b)
	if aok && bok {
		return as + bs
	}
	if mm := th.binMetamethod(a, b, "__concat"); mm != nil {
		results := th.Call(mm, []any{a, b}, 1)
		return results[0]
	}
	bad := a
	if aok {
		bad = b
	}
	th.Errorf("attempt to concatenate a %s value", value.TypeName(bad))
	return nil
}

func concatString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int64, float64:
		return value.ToString(x), true
	default:
		return "", false
	}
}

// Close implements vm.Runtime: runs v's __close with the frame's
// pending error (always nil here — this VM doesn't thread an in-flight
// error into a <close> variable's handler) as its second argument.
func (th *Thread) Close(v any) {
	if v == nil || v == false {
		return
	}
	mm := th.metafield(v, "__close")
	if mm == nil {
		return
	}
	th.Call(mm, []any{v, nil}, 0)
}
