package stdlib

import (
	"fmt"
	"os"

	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

// version reported by _VERSION, matching the language SPEC_FULL.md
// targets rather than the teacher's own fork version string.
const version = "Lua 5.5"

// Open installs every library this implementation ships into th's
// globals, mirroring the teacher's main.go sequence of OpenXLib calls
// but collapsed into one entry point.
func Open(th *state.Thread) {
	g := th.Globals
	g.Set("_G", g)
	g.Set("_VERSION", version)

	openBase(th, g)
	openString(th)
	openMath(th, g)
	openTable(th, g)
	openOS(th, g)
	openCoroutine(th, g)
	openJSON(th, g)
	openRegex(th, g)
}

func register(t *value.Table, name string, fn value.GoFunction) {
	t.Set(name, value.NewGoClosure(name, fn))
}

// openBase installs print/type/tostring/tonumber/pairs/ipairs/next/
// assert/error/pcall/xpcall/select/setmetatable/getmetatable/rawget/
// rawset/rawequal/rawlen, grounded on the teacher's lib_basic.go.
func openBase(th *state.Thread, g *value.Table) {
	register(g, "print", basePrint(th))
	register(g, "type", baseType())
	register(g, "tostring", baseToString(th))
	register(g, "tonumber", baseToNumber())
	register(g, "ipairs", baseIPairs())
	register(g, "pairs", basePairs(th))
	register(g, "next", baseNext())
	register(g, "assert", baseAssert(th))
	register(g, "error", baseError(th))
	register(g, "pcall", basePCall(th))
	register(g, "xpcall", baseXPCall(th))
	register(g, "select", baseSelect())
	register(g, "setmetatable", baseSetMetatable(th))
	register(g, "getmetatable", baseGetMetatable(th))
	register(g, "rawget", baseRawGet())
	register(g, "rawset", baseRawSet())
	register(g, "rawequal", baseRawEqual())
	register(g, "rawlen", baseRawLen())
}

func basePrint(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		n := c.ArgCount()
		parts := make([]string, n)
		for i := 0; i < n; i++ {
			parts[i] = th.ToDisplayString(c.Arg(i))
		}
		w := os.Stdout
		for i, p := range parts {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, p)
		}
		fmt.Fprintln(w)
		return 0
	}
}

func baseType() value.GoFunction {
	return func(c value.CallContext) int {
		if c.ArgCount() < 1 {
			return argError(c, 1, "value expected")
		}
		c.PushResult(value.TypeName(c.Arg(0)))
		return 1
	}
}

func baseToString(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(th.ToDisplayString(c.Arg(0)))
		return 1
	}
}

func baseToNumber() value.GoFunction {
	return func(c value.CallContext) int {
		if isNoneOrNil(c, 1) {
			switch v := c.Arg(0).(type) {
			case int64, float64:
				c.PushResult(v)
				return 1
			case string:
				if i, f, isFloat, ok := value.ParseNumber(v); ok {
					if isFloat {
						c.PushResult(f)
					} else {
						c.PushResult(i)
					}
					return 1
				}
			}
			c.PushResult(nil)
			return 1
		}
		s, ok := c.Arg(0).(string)
		base := checkInt(c, 1)
		if !ok || base < 2 || base > 36 {
			c.PushResult(nil)
			return 1
		}
		if n, err := parseIntBase(s, int(base)); err == nil {
			c.PushResult(n)
			return 1
		}
		c.PushResult(nil)
		return 1
	}
}

func parseIntBase(s string, base int) (int64, error) {
	var n int64
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, ch := range s {
		var d int64
		switch {
		case ch >= '0' && ch <= '9':
			d = int64(ch - '0')
		case ch >= 'a' && ch <= 'z':
			d = int64(ch-'a') + 10
		case ch >= 'A' && ch <= 'Z':
			d = int64(ch-'A') + 10
		default:
			return 0, fmt.Errorf("invalid digit")
		}
		if d >= int64(base) {
			return 0, fmt.Errorf("invalid digit")
		}
		n = n*int64(base) + d
	}
	if neg {
		n = -n
	}
	return n, nil
}

// ipairsIterator walks the array part by raw indexing, stopping at the
// first nil, grounded on the teacher's iPairsAux (lib_basic.go).
func ipairsIterator() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		i := checkInt(c, 1) + 1
		v := t.Get(i)
		if v == nil {
			c.PushResult(nil)
			return 1
		}
		c.PushResult(i)
		c.PushResult(v)
		return 2
	}
}

func baseIPairs() value.GoFunction {
	iter := value.NewGoClosure("ipairs_iterator", ipairsIterator())
	return func(c value.CallContext) int {
		if c.ArgCount() < 1 {
			return argError(c, 1, "table expected")
		}
		c.PushResult(iter)
		c.PushResult(c.Arg(0))
		c.PushResult(int64(0))
		return 3
	}
}

func nextIterator() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		var key any
		if c.ArgCount() > 1 {
			key = c.Arg(1)
		}
		nk, nv, ok := t.Next(key)
		if !ok || nk == nil {
			c.PushResult(nil)
			return 1
		}
		c.PushResult(nk)
		c.PushResult(nv)
		return 2
	}
}

func baseNext() value.GoFunction {
	return nextIterator()
}

// basePairs consults __pairs before falling back to next/t/nil, per
// Lua 5.2+ semantics (the teacher's basePairs checks "__range" instead,
// a fork-specific name this implementation doesn't carry forward).
func basePairs(th *state.Thread) value.GoFunction {
	nextFn := value.NewGoClosure("next", nextIterator())
	return func(c value.CallContext) int {
		t := c.Arg(0)
		if mm := th.Metamethod(t, "__pairs"); mm != nil {
			results := th.Call(mm, []any{t}, 3)
			c.PushResult(results[0])
			c.PushResult(results[1])
			c.PushResult(results[2])
			return 3
		}
		checkTable(c, 0)
		c.PushResult(nextFn)
		c.PushResult(t)
		c.PushResult(nil)
		return 3
	}
}

func baseAssert(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		if value.Truthy(c.Arg(0)) {
			n := c.ArgCount()
			for i := 0; i < n; i++ {
				c.PushResult(c.Arg(i))
			}
			return n
		}
		msg := "assertion failed!"
		if c.ArgCount() > 1 {
			if s, ok := c.Arg(1).(string); ok {
				msg = s
			} else {
				th.Errorf("%s", th.ToDisplayString(c.Arg(1)))
			}
		}
		th.Errorf("%s", msg)
		return 0
	}
}

func baseError(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		if s, ok := c.Arg(0).(string); ok {
			th.Errorf("%s", s)
		} else {
			th.Errorf("%s", th.ToDisplayString(c.Arg(0)))
		}
		return 0
	}
}

func basePCall(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		fn := c.Arg(0)
		n := c.ArgCount()
		args := make([]any, 0, n-1)
		for i := 1; i < n; i++ {
			args = append(args, c.Arg(i))
		}
		results, err := th.PCall(fn, args, -1)
		if err != nil {
			c.PushResult(false)
			c.PushResult(err.Message)
			return 2
		}
		c.PushResult(true)
		for _, r := range results {
			c.PushResult(r)
		}
		return 1 + len(results)
	}
}

// xpcall calls a message handler with the error on failure, matching
// Lua's xpcall(f, msgh, ...).
func baseXPCall(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		fn := c.Arg(0)
		handler := c.Arg(1)
		n := c.ArgCount()
		args := make([]any, 0, n-2)
		for i := 2; i < n; i++ {
			args = append(args, c.Arg(i))
		}
		results, err := th.PCall(fn, args, -1)
		if err != nil {
			handled := th.Call(handler, []any{err.Message}, 1)
			c.PushResult(false)
			c.PushResult(handled[0])
			return 2
		}
		c.PushResult(true)
		for _, r := range results {
			c.PushResult(r)
		}
		return 1 + len(results)
	}
}

func baseSelect() value.GoFunction {
	return func(c value.CallContext) int {
		if s, ok := c.Arg(0).(string); ok && s == "#" {
			c.PushResult(int64(c.ArgCount() - 1))
			return 1
		}
		n := checkInt(c, 0)
		total := c.ArgCount() - 1
		if n < 0 {
			n = int64(total) + n + 1
		}
		if n < 1 {
			argError(c, 1, "index out of range")
		}
		pushed := 0
		for i := int(n); i < c.ArgCount(); i++ {
			c.PushResult(c.Arg(i))
			pushed++
		}
		return pushed
	}
}

func baseSetMetatable(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		if isNoneOrNil(c, 1) {
			t.Metatable = nil
			c.PushResult(t)
			return 1
		}
		mt := checkTable(c, 1)
		t.Metatable = mt
		c.PushResult(t)
		return 1
	}
}

func baseGetMetatable(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		mt := th.Metatable(c.Arg(0))
		if mt == nil {
			c.PushResult(nil)
			return 1
		}
		if protected := mt.Get("__metatable"); protected != nil {
			c.PushResult(protected)
			return 1
		}
		c.PushResult(mt)
		return 1
	}
}

func baseRawGet() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		c.PushResult(t.Get(c.Arg(1)))
		return 1
	}
}

func baseRawSet() value.GoFunction {
	return func(c value.CallContext) int {
		t := checkTable(c, 0)
		if err := t.Set(c.Arg(1), c.Arg(2)); err != nil {
			return argError(c, 2, err.Error())
		}
		c.PushResult(t)
		return 1
	}
}

func baseRawEqual() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(value.Equal(c.Arg(0), c.Arg(1)))
		return 1
	}
}

func baseRawLen() value.GoFunction {
	return func(c value.CallContext) int {
		switch x := c.Arg(0).(type) {
		case *value.Table:
			c.PushResult(x.Len())
		case string:
			c.PushResult(int64(len(x)))
		default:
			return argError(c, 1, "table or string expected")
		}
		return 1
	}
}
