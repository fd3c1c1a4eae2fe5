package value

import "fmt"

// CoStatus is a coroutine's lifecycle state, matching Lua's
// coroutine.status() vocabulary.
type CoStatus int

const (
	CoSuspended CoStatus = iota
	CoRunning
	CoNormal // resumed another coroutine, itself still on the call stack
	CoDead
)

func (s CoStatus) String() string {
	switch s {
	case CoSuspended:
		return "suspended"
	case CoRunning:
		return "running"
	case CoNormal:
		return "normal"
	case CoDead:
		return "dead"
	}
	return "unknown"
}

// Coroutine is a cooperative fiber implemented as a goroutine that hands
// control back and forth with its resumer over an unbuffered channel:
// only one side is ever runnable at a time, so the handoff behaves like
// a context switch rather than real concurrency. The entry point (what
// actually runs the coroutine's body against a VM) is supplied by the
// state package via Start, since value must not import state.
type Coroutine struct {
	Body   *Closure
	Status CoStatus

	resumeCh chan []any    // values passed by Resume into the coroutine
	yieldCh  chan coResult // values passed back by the coroutine (yield/return/error)
	started  bool

	Caller *Coroutine
}

type coResult struct {
	values []any
	err    error
	done   bool // true on a normal return (coroutine has finished and is dead)
}

func NewCoroutine(body *Closure) *Coroutine {
	return &Coroutine{
		Body:     body,
		Status:   CoSuspended,
		resumeCh: make(chan []any),
		yieldCh:  make(chan coResult),
	}
}

// Start launches the coroutine's goroutine the first time it is resumed.
// run is invoked once, on its own goroutine, with the first Resume's
// arguments; it must eventually call co.yield (for a `coroutine.yield`)
// or return its final results (for a normal completion) and must recover
// its own panics into an error passed to co.finish, mirroring how
// state.Thread's PCall boundary turns panics into lerrors.Error values.
func (co *Coroutine) Start(run func(args []any) (results []any, err error)) {
	if co.started {
		panic("coroutine already started")
	}
	co.started = true
	go func() {
		args := <-co.resumeCh
		results, err := run(args)
		co.Status = CoDead
		co.yieldCh <- coResult{values: results, err: err, done: true}
	}()
}

// Resume transfers control into the coroutine with args, blocking the
// caller until the coroutine yields, returns, or errors. from is the
// coroutine doing the resuming (nil for the main thread), recorded so
// nested resumes can mark their caller CoNormal while suspended.
func (co *Coroutine) Resume(from *Coroutine, args []any) (results []any, err error) {
	if co.Status == CoDead {
		return nil, fmt.Errorf("cannot resume dead coroutine")
	}
	if co.Status != CoSuspended {
		return nil, fmt.Errorf("cannot resume non-suspended coroutine")
	}
	co.Caller = from
	if from != nil {
		from.Status = CoNormal
	}
	co.Status = CoRunning
	co.resumeCh <- args
	res := <-co.yieldCh
	if from != nil {
		from.Status = CoRunning
	}
	if !res.done {
		co.Status = CoSuspended
	}
	return res.values, res.err
}

// Yield is called from inside the coroutine's own goroutine (via the
// GoFunction bound to coroutine.yield) to suspend it and hand results
// back to whichever Resume call is blocked waiting on it; it blocks in
// turn until the next Resume supplies fresh arguments.
func (co *Coroutine) Yield(results []any) []any {
	co.yieldCh <- coResult{values: results}
	return <-co.resumeCh
}

func (co *Coroutine) IsYieldable() bool {
	return co.Status == CoRunning
}
