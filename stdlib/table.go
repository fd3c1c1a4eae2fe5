package stdlib

import (
	"sort"
	"strings"

	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

// openTable installs the standard table library; the teacher's own
// table library (stdlib/lib_table.go) exposes a non-standard
// keys/values/contains surface over its Go-native map-backed table, so
// this generalizes to the real Lua table.insert/remove/concat/sort/
// unpack/pack surface that this implementation's array+hash Table
// needs.
func openTable(th *state.Thread, g *value.Table) {
	lib := value.NewTable(0, 8)
	register(lib, "insert", tableInsert())
	register(lib, "remove", tableRemove())
	register(lib, "concat", tableConcat())
	register(lib, "sort", tableSort(th))
	register(lib, "unpack", tableUnpack())
	register(lib, "pack", tablePack())
	g.Set("table", lib)
	g.Set("unpack", value.NewGoClosure("unpack", tableUnpack())) // Lua 5.1-compat global alias
}

func tableInsert() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		n := t.Len()
		switch c.ArgCount() {
		case 2:
			t.Insert(n+1, c.Arg(1))
		case 3:
			pos := checkInt(c, 1)
			if pos < 1 || pos > n+1 {
				argError(c, 2, "position out of bounds")
			}
			t.Insert(pos, c.Arg(2))
		default:
			argError(c, 2, "wrong number of arguments to 'insert'")
		}
		return 0
	}
}

func tableRemove() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		n := t.Len()
		pos := optInt(c, 1, n)
		if n == 0 {
			c.PushResult(nil)
			return 1
		}
		if pos < 1 || pos > n+1 {
			argError(c, 2, "position out of bounds")
		}
		c.PushResult(t.Remove(pos))
		return 1
	}
}

func tableConcat() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		sep := optString(c, 1, "")
		i := optInt(c, 2, 1)
		j := optInt(c, 3, t.Len())
		var parts []string
		for k := i; k <= j; k++ {
			v := t.Get(k)
			s, ok := concatElem(v)
			if !ok {
				argError(c, 1, "invalid value (at index "+itoa(int(k))+") in table for 'concat'")
			}
			parts = append(parts, s)
		}
		c.PushResult(strings.Join(parts, sep))
		return 1
	}
}

func concatElem(v any) (string, bool) {
	switch v.(type) {
	case string, int64, float64:
		return value.ToString(v), true
	default:
		return "", false
	}
}

func tableSort(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		n := int(t.Len())
		elems := make([]any, n)
		for i := 0; i < n; i++ {
			elems[i] = t.Get(int64(i + 1))
		}
		var cmp any
		if c.ArgCount() > 1 {
			cmp = c.Arg(1)
		}
		sort.SliceStable(elems, func(i, j int) bool {
			if cmp != nil {
				results := th.Call(cmp, []any{elems[i], elems[j]}, 1)
				return value.Truthy(results[0])
			}
			return th.Less(elems[i], elems[j])
		})
		for i, v := range elems {
			t.Set(int64(i+1), v)
		}
		return 0
	}
}

func tableUnpack() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		i := optInt(c, 1, 1)
		j := optInt(c, 2, t.Len())
		n := 0
		for k := i; k <= j; k++ {
			c.PushResult(t.Get(k))
			n++
		}
		return n
	}
}

func tablePack() value.GoFunction {
	return func(c value.CallContext) int {
		n := c.ArgCount()
		t := value.NewTable(n, 1)
		for i := 0; i < n; i++ {
			t.Set(int64(i+1), c.Arg(i))
		}
		t.Set("n", int64(n))
		c.PushResult(t)
		return 1
	}
}
