package value

// Userdata wraps an opaque Go value so it can travel through Lua code
// and still support metamethods (used by the standard library for
// things like file handles and regexp handles).
type Userdata struct {
	Data      any
	Metatable *Table
}

func NewUserdata(data any) *Userdata {
	return &Userdata{Data: data}
}
