package value

import "errors"

var (
	errTableIndexNil = errors.New("table index is nil")
	errTableIndexNaN = errors.New("table index is NaN")
)
