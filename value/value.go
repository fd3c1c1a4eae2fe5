// Package value defines the runtime representation of Lua values:
// Go's own nil/bool/int64/float64/string cover the primitive types, and
// *Table/*Closure/*Userdata/*Coroutine cover the reference types. Using
// `any` rather than a hand-rolled tagged union lets small values live
// unboxed and keeps type dispatch a plain Go type switch.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TypeName returns the Lua type name of v, as `type()` would report it.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case *Table:
		return "table"
	case *Closure:
		return "function"
	case *Userdata:
		return "userdata"
	case *Coroutine:
		return "thread"
	default:
		return "userdata"
	}
}

// Truthy implements Lua's truthiness rule: everything is true except
// nil and false (0 and "" are both truthy, unlike many scripting
// languages).
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// ToFloat coerces a value to float64 per Lua's arithmetic coercion
// rules: numbers convert directly, numeric strings parse.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		return parseFloatString(x)
	}
	return 0, false
}

// ToInteger coerces a value to int64. A float converts only if it has
// no fractional part (Lua raises an error otherwise; callers decide how
// to surface that).
func ToInteger(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return FloatToInteger(x)
	case string:
		if i, f, isFloat, ok := parseNumberString(x); ok {
			if isFloat {
				return FloatToInteger(f)
			}
			return i, true
		}
	}
	return 0, false
}

// FloatToInteger converts f to an int64 only when the conversion is
// exact (no fractional part, in range).
func FloatToInteger(f float64) (int64, bool) {
	i := int64(f)
	if float64(i) == f && !math.IsInf(f, 0) {
		return i, true
	}
	return 0, false
}

func parseFloatString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if i, f, isFloat, ok := parseNumberString(s); ok {
		if isFloat {
			return f, true
		}
		return float64(i), true
	}
	return 0, false
}

// ParseNumber exposes parseNumberString for tonumber()'s single-argument
// form, which needs to know whether the literal parsed as an integer or
// a float rather than collapsing both into a float64 the way ToFloat does.
func ParseNumber(s string) (i int64, f float64, isFloat bool, ok bool) {
	return parseNumberString(s)
}

// parseNumberString parses a Lua numeric-string literal (used by
// tonumber, arithmetic coercion, and the `..`/`+` auto-coercion rules),
// returning whether it is a float and its value either way.
func parseNumberString(s string) (i int64, f float64, isFloat bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "-0x") {
		neg := false
		body := lower
		if strings.HasPrefix(body, "-") {
			neg = true
			body = body[1:]
		}
		if !strings.ContainsAny(body, ".p") {
			u, err := strconv.ParseUint(body[2:], 16, 64)
			if err != nil {
				return
			}
			i = int64(u)
			if neg {
				i = -i
			}
			return i, 0, false, true
		}
		fb := body
		if !strings.Contains(fb, "p") {
			fb += "p0"
		}
		fv, err := strconv.ParseFloat(fb, 64)
		if err != nil {
			return
		}
		if neg {
			fv = -fv
		}
		return 0, fv, true, true
	}

	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		return iv, 0, false, true
	}
	if fv, err := strconv.ParseFloat(s, 64); err == nil {
		return 0, fv, true, true
	}
	return
}

// ToString renders v the way `tostring`/string coercion in concatenation
// would, without consulting a __tostring metamethod (callers that have
// access to the metatable machinery check that first).
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case *Table:
		return fmt.Sprintf("table: %p", x)
	case *Closure:
		return fmt.Sprintf("function: %p", x)
	case *Userdata:
		return fmt.Sprintf("userdata: %p", x)
	case *Coroutine:
		return fmt.Sprintf("thread: %p", x)
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', 14, 64)
}

// Equal implements Lua's raw equality (no metamethods): numbers compare
// by mathematical value across int/float, everything else by identity
// or content for strings.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
		return false
	default:
		return a == b
	}
}
