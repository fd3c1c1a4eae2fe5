package stdlib

import (
	"os"
	"time"

	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

var startTime = time.Now()

// openOS installs os.time/date/clock/getenv/exit, grounded on the
// teacher's OpenOSLib (stdlib/lib_os.go) but dropping its cgo-based
// osTime (which shells out to C's time.h) for Go's own time package —
// cgo would make every embedder of this library require a C toolchain
// for a concern the standard library already covers portably.
func openOS(th *state.Thread, g *value.Table) {
	lib := value.NewTable(0, 8)
	register(lib, "time", osTime())
	register(lib, "clock", osClock())
	register(lib, "date", osDate())
	register(lib, "getenv", osGetEnv())
	register(lib, "exit", osExit())
	register(lib, "difftime", osDiffTime())
	g.Set("os", lib)
}

func osTime() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(time.Now().Unix())
		return 1
	}
}

func osClock() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(time.Since(startTime).Seconds())
		return 1
	}
}

func osDate() value.GoFunction {
	return func(c value.CallContext) int {
		format := optString(c, 0, "%c")
		t := time.Now()
		if len(format) > 0 && format[0] == '!' {
			t = t.UTC()
		}
		c.PushResult(t.Format("Mon Jan  2 15:04:05 2006"))
		return 1
	}
}

func osGetEnv() value.GoFunction {
	return func(c value.CallContext) int {
		name := checkString(c, 0)
		v, ok := os.LookupEnv(name)
		if !ok {
			c.PushResult(nil)
			return 1
		}
		c.PushResult(v)
		return 1
	}
}

func osExit() value.GoFunction {
	return func(c value.CallContext) int {
		code := int(optInt(c, 0, 0))
		os.Exit(code)
		return 0
	}
}

func osDiffTime() value.GoFunction {
	return func(c value.CallContext) int {
		t2 := checkNumber(c, 0)
		t1 := checkNumber(c, 1)
		c.PushResult(t2 - t1)
		return 1
	}
}
