package value

// Upvalue is a captured variable cell. While open, it aliases a slot on
// some still-live stack frame; CLOSE copies the value into the cell
// itself and severs that link, which is what lets the variable outlive
// its defining call.
type Upvalue struct {
	stack *[]any // the owning frame's register slice, while open
	index int    // index into *stack, while open
	closed any    // the value, once closed
	isOpen bool
}

func NewOpenUpvalue(stack *[]any, index int) *Upvalue {
	return &Upvalue{stack: stack, index: index, isOpen: true}
}

// NewClosedUpvalue wraps v directly as an already-closed cell — used
// to seed a top-level chunk's sole _ENV upvalue, which never lived on
// any frame's register stack in the first place.
func NewClosedUpvalue(v any) *Upvalue {
	return &Upvalue{closed: v}
}

func (u *Upvalue) Get() any {
	if u.isOpen {
		return (*u.stack)[u.index]
	}
	return u.closed
}

func (u *Upvalue) Set(v any) {
	if u.isOpen {
		(*u.stack)[u.index] = v
		return
	}
	u.closed = v
}

// Close detaches the upvalue from its stack frame, freezing its current
// value. Called when the frame that owns the aliased slot is about to
// be popped (function return, or a `<close>`/scope-exit boundary below
// the slot).
func (u *Upvalue) Close() {
	if !u.isOpen {
		return
	}
	u.closed = (*u.stack)[u.index]
	u.isOpen = false
	u.stack = nil
}

func (u *Upvalue) IsOpen() bool { return u.isOpen }

// StackIndex reports the register this upvalue aliases while open; used
// by the VM to find which open upvalues a CLOSE instruction must close.
func (u *Upvalue) StackIndex() int { return u.index }
