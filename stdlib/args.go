// Package stdlib installs the standard library into a state.Thread's
// globals table: base functions, string/math/table/os libraries, and a
// couple of small domain shims (json, regex) grounded on the teacher's
// own stdlib package, generalized from its LkState-method calling
// convention to value.CallContext's argument-list convention.
package stdlib

import "github.com/lollipopkit/luacore/value"

// checkString/checkTable/etc. raise the same "bad argument" shape the
// teacher's auxlib CheckX family does (state/auxlib.go), adapted to
// value.CallContext's positional Arg/RaiseError surface.

func argError(c value.CallContext, n int, extra string) int {
	c.RaiseError(argErrorMsg(n, extra))
	return 0
}

func argErrorMsg(n int, extra string) string {
	return "bad argument #" + itoa(n) + " (" + extra + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func checkString(c value.CallContext, n int) string {
	v := c.Arg(n)
	switch x := v.(type) {
	case string:
		return x
	case int64, float64:
		return value.ToString(x)
	}
	argError(c, n+1, "string expected, got "+value.TypeName(v))
	return ""
}

func optString(c value.CallContext, n int, def string) string {
	if n >= c.ArgCount() || c.Arg(n) == nil {
		return def
	}
	return checkString(c, n)
}

func checkNumber(c value.CallContext, n int) float64 {
	if f, ok := value.ToFloat(c.Arg(n)); ok {
		return f
	}
	argError(c, n+1, "number expected, got "+value.TypeName(c.Arg(n)))
	return 0
}

func checkInt(c value.CallContext, n int) int64 {
	if i, ok := value.ToInteger(c.Arg(n)); ok {
		return i
	}
	argError(c, n+1, "number expected, got "+value.TypeName(c.Arg(n)))
	return 0
}

func optInt(c value.CallContext, n int, def int64) int64 {
	if n >= c.ArgCount() || c.Arg(n) == nil {
		return def
	}
	return checkInt(c, n)
}

func checkTable(c value.CallContext, n int) *value.Table {
	if t, ok := c.Arg(n).(*value.Table); ok {
		return t
	}
	argError(c, n+1, "table expected, got "+value.TypeName(c.Arg(n)))
	return nil
}

func isNoneOrNil(c value.CallContext, n int) bool {
	return n >= c.ArgCount() || c.Arg(n) == nil
}
