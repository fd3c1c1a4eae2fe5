package stdlib

import (
	"math"
	"math/rand"

	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

// openMath installs the math library, grounded on the teacher's
// OpenMathLib (stdlib/lib_math.go), generalized from its fork-specific
// maxint/minint names to the standard math.maxinteger/mininteger.
func openMath(th *state.Thread, g *value.Table) {
	lib := value.NewTable(0, 24)
	lib.Set("pi", math.Pi)
	lib.Set("huge", math.Inf(1))
	lib.Set("maxinteger", int64(math.MaxInt64))
	lib.Set("mininteger", int64(math.MinInt64))

	register(lib, "abs", mathAbs())
	register(lib, "ceil", mathCeil())
	register(lib, "floor", mathFloor())
	register(lib, "sqrt", mathUnary(math.Sqrt))
	register(lib, "exp", mathUnary(math.Exp))
	register(lib, "log", mathLog())
	register(lib, "sin", mathUnary(math.Sin))
	register(lib, "cos", mathUnary(math.Cos))
	register(lib, "tan", mathUnary(math.Tan))
	register(lib, "asin", mathUnary(math.Asin))
	register(lib, "acos", mathUnary(math.Acos))
	register(lib, "atan", mathAtan())
	register(lib, "deg", mathUnary(func(x float64) float64 { return x * 180 / math.Pi }))
	register(lib, "rad", mathUnary(func(x float64) float64 { return x * math.Pi / 180 }))
	register(lib, "fmod", mathFmod())
	register(lib, "modf", mathModf())
	register(lib, "max", mathMax())
	register(lib, "min", mathMin())
	register(lib, "random", mathRandom())
	register(lib, "randomseed", mathRandomSeed())
	register(lib, "tointeger", mathToInteger())
	register(lib, "type", mathType())
	register(lib, "ult", mathUlt())

	th.Globals.Set("math", lib)
}

func mathUnary(f func(float64) float64) value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(f(checkNumber(c, 0)))
		return 1
	}
}

func mathAbs() value.GoFunction {
	return func(c value.CallContext) int {
		if i, ok := c.Arg(0).(int64); ok {
			if i < 0 {
				i = -i
			}
			c.PushResult(i)
			return 1
		}
		c.PushResult(math.Abs(checkNumber(c, 0)))
		return 1
	}
}

func mathCeil() value.GoFunction {
	return func(c value.CallContext) int {
		if i, ok := c.Arg(0).(int64); ok {
			c.PushResult(i)
			return 1
		}
		f := math.Ceil(checkNumber(c, 0))
		if i, ok := value.FloatToInteger(f); ok {
			c.PushResult(i)
		} else {
			c.PushResult(f)
		}
		return 1
	}
}

func mathFloor() value.GoFunction {
	return func(c value.CallContext) int {
		if i, ok := c.Arg(0).(int64); ok {
			c.PushResult(i)
			return 1
		}
		f := math.Floor(checkNumber(c, 0))
		if i, ok := value.FloatToInteger(f); ok {
			c.PushResult(i)
		} else {
			c.PushResult(f)
		}
		return 1
	}
}

func mathLog() value.GoFunction {
	return func(c value.CallContext) int {
		x := checkNumber(c, 0)
		if c.ArgCount() > 1 {
			base := checkNumber(c, 1)
			c.PushResult(math.Log(x) / math.Log(base))
			return 1
		}
		c.PushResult(math.Log(x))
		return 1
	}
}

func mathAtan() value.GoFunction {
	return func(c value.CallContext) int {
		y := checkNumber(c, 0)
		x := 1.0
		if c.ArgCount() > 1 {
			x = checkNumber(c, 1)
		}
		c.PushResult(math.Atan2(y, x))
		return 1
	}
}

func mathFmod() value.GoFunction {
	return func(c value.CallContext) int {
		a, aIsInt := c.Arg(0).(int64)
		b, bIsInt := c.Arg(1).(int64)
		if aIsInt && bIsInt {
			if b == 0 {
				argError(c, 2, "zero")
			}
			c.PushResult(a % b)
			return 1
		}
		c.PushResult(math.Mod(checkNumber(c, 0), checkNumber(c, 1)))
		return 1
	}
}

func mathModf() value.GoFunction {
	return func(c value.CallContext) int {
		i, f := math.Modf(checkNumber(c, 0))
		if iv, ok := value.FloatToInteger(i); ok {
			c.PushResult(float64(iv))
		} else {
			c.PushResult(i)
		}
		c.PushResult(f)
		return 2
	}
}

func mathMax() value.GoFunction {
	return func(c value.CallContext) int {
		n := c.ArgCount()
		if n < 1 {
			return argError(c, 1, "value expected")
		}
		best := c.Arg(0)
		bestF, _ := value.ToFloat(best)
		for i := 1; i < n; i++ {
			f, _ := value.ToFloat(c.Arg(i))
			if f > bestF {
				best, bestF = c.Arg(i), f
			}
		}
		c.PushResult(best)
		return 1
	}
}

func mathMin() value.GoFunction {
	return func(c value.CallContext) int {
		n := c.ArgCount()
		if n < 1 {
			return argError(c, 1, "value expected")
		}
		best := c.Arg(0)
		bestF, _ := value.ToFloat(best)
		for i := 1; i < n; i++ {
			f, _ := value.ToFloat(c.Arg(i))
			if f < bestF {
				best, bestF = c.Arg(i), f
			}
		}
		c.PushResult(best)
		return 1
	}
}

func mathRandom() value.GoFunction {
	return func(c value.CallContext) int {
		switch c.ArgCount() {
		case 0:
			c.PushResult(rand.Float64())
		case 1:
			m := checkInt(c, 0)
			c.PushResult(rand.Int63n(m) + 1)
		default:
			lo := checkInt(c, 0)
			hi := checkInt(c, 1)
			c.PushResult(lo + rand.Int63n(hi-lo+1))
		}
		return 1
	}
}

func mathRandomSeed() value.GoFunction {
	return func(c value.CallContext) int {
		if c.ArgCount() > 0 {
			rand.Seed(checkInt(c, 0))
		}
		return 0
	}
}

func mathToInteger() value.GoFunction {
	return func(c value.CallContext) int {
		switch x := c.Arg(0).(type) {
		case int64:
			c.PushResult(x)
		case float64:
			if i, ok := value.FloatToInteger(x); ok {
				c.PushResult(i)
			} else {
				c.PushResult(nil)
			}
		default:
			c.PushResult(nil)
		}
		return 1
	}
}

func mathType() value.GoFunction {
	return func(c value.CallContext) int {
		switch c.Arg(0).(type) {
		case int64:
			c.PushResult("integer")
		case float64:
			c.PushResult("float")
		default:
			c.PushResult(nil)
		}
		return 1
	}
}

func mathUlt() value.GoFunction {
	return func(c value.CallContext) int {
		a := checkInt(c, 0)
		b := checkInt(c, 1)
		c.PushResult(uint64(a) < uint64(b))
		return 1
	}
}
