package stdlib

import (
	"github.com/lollipopkit/luacore/lerrors"
	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

// openCoroutine installs coroutine.create/resume/yield/status/wrap/
// isyieldable/running, grounded on the teacher's OpenCoroutineLib
// (stdlib/lib_coroutine.go), generalized from its thread-as-LkState
// model (coroutine = a whole second C-API stack sharing a registry) to
// value.Coroutine's goroutine+channel model, where each coroutine gets
// its own lightweight state.Thread sharing only Globals and the
// collector.
func openCoroutine(th *state.Thread, g *value.Table) {
	lib := value.NewTable(0, 8)
	register(lib, "create", coCreate(th))
	register(lib, "resume", coResume())
	register(lib, "yield", coYield())
	register(lib, "status", coStatus())
	register(lib, "isyieldable", coIsYieldable())
	register(lib, "running", coRunning(th))
	register(lib, "wrap", coWrap(th))
	g.Set("coroutine", lib)
}

// callerThread recovers the Thread actually driving c, which may be a
// coroutine's own Thread rather than the one openCoroutine closed over.
func callerThread(c value.CallContext, fallback *state.Thread) *state.Thread {
	if ct, ok := c.(state.ContextThread); ok {
		return ct.Thread()
	}
	return fallback
}

func coCreate(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		cl, ok := c.Arg(0).(*value.Closure)
		if !ok {
			return argError(c, 1, "function expected")
		}
		co := value.NewCoroutine(cl)
		parent := callerThread(c, th)
		coThread := parent.NewCoroutineThread(co)
		co.Start(func(args []any) (results []any, err error) {
			defer func() {
				if r := recover(); r != nil {
					if e, ok := r.(*lerrors.Error); ok {
						err = e
					} else {
						err = lerrors.New(lerrors.Coroutine, lerrors.Location{}, "%v", r)
					}
				}
			}()
			return coThread.Call(cl, args, -1), nil
		})
		c.PushResult(co)
		return 1
	}
}

func coResume() value.GoFunction {
	return func(c value.CallContext) int {
		co, ok := c.Arg(0).(*value.Coroutine)
		if !ok {
			return argError(c, 1, "coroutine expected")
		}
		n := c.ArgCount()
		args := make([]any, 0, n-1)
		for i := 1; i < n; i++ {
			args = append(args, c.Arg(i))
		}
		var from *value.Coroutine
		if ct, ok := c.(state.ContextThread); ok {
			from = ct.Thread().Coroutine()
		}
		results, err := co.Resume(from, args)
		if err != nil {
			c.PushResult(false)
			c.PushResult(err.Error())
			return 2
		}
		c.PushResult(true)
		for _, r := range results {
			c.PushResult(r)
		}
		return 1 + len(results)
	}
}

func coYield() value.GoFunction {
	return func(c value.CallContext) int {
		ct, ok := c.(state.ContextThread)
		if !ok {
			argError(c, 1, "attempt to yield from outside a coroutine")
		}
		co := ct.Thread().Coroutine()
		if co == nil {
			argError(c, 1, "attempt to yield from outside a coroutine")
		}
		n := c.ArgCount()
		vals := make([]any, n)
		for i := 0; i < n; i++ {
			vals[i] = c.Arg(i)
		}
		results := co.Yield(vals)
		for _, r := range results {
			c.PushResult(r)
		}
		return len(results)
	}
}

func coStatus() value.GoFunction {
	return func(c value.CallContext) int {
		co, ok := c.Arg(0).(*value.Coroutine)
		if !ok {
			return argError(c, 1, "coroutine expected")
		}
		c.PushResult(co.Status.String())
		return 1
	}
}

func coIsYieldable() value.GoFunction {
	return func(c value.CallContext) int {
		ct, ok := c.(state.ContextThread)
		c.PushResult(ok && ct.Thread().Coroutine() != nil)
		return 1
	}
}

func coRunning(th *state.Thread) value.GoFunction {
	return func(c value.CallContext) int {
		t := callerThread(c, th)
		co := t.Coroutine()
		if co == nil {
			c.PushResult(nil)
		} else {
			c.PushResult(co)
		}
		c.PushResult(co == nil)
		return 2
	}
}

// coWrap returns a plain function that resumes co and either returns
// its results or propagates its error as a Lua error, rather than the
// (ok, ...) pair coroutine.resume gives — the teacher leaves this as a
// stub (stdlib/lib_coroutine.go's coWrap panics "todo").
func coWrap(th *state.Thread) value.GoFunction {
	create := coCreate(th)
	return func(c value.CallContext) int {
		ctx := &wrapCreateCtx{CallContext: c}
		create(ctx)
		co := ctx.result.(*value.Coroutine)

		resumer := func(rc value.CallContext) int {
			callingTh := callerThread(rc, th)
			n := rc.ArgCount()
			args := make([]any, n)
			for i := 0; i < n; i++ {
				args[i] = rc.Arg(i)
			}
			results, err := co.Resume(callingTh.Coroutine(), args)
			if err != nil {
				callingTh.Errorf("%s", err.Error())
			}
			for _, r := range results {
				rc.PushResult(r)
			}
			return len(results)
		}
		c.PushResult(value.NewGoClosure("coroutine.wrap", resumer))
		return 1
	}
}

// wrapCreateCtx adapts coCreate's single PushResult call so coWrap can
// capture the created coroutine without re-threading argument access.
type wrapCreateCtx struct {
	value.CallContext
	result any
}

func (w *wrapCreateCtx) PushResult(v any) { w.result = v }
