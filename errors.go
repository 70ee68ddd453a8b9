package sixel

import "errors"

var (
	// ErrBadInput is returned when caller supplied dimensions, buffers or
	// palette sizes are invalid.
	ErrBadInput = errors.New("sixel: bad input")

	// ErrBadArgument is returned when an operation is requested on a pixel
	// format that does not support it.
	ErrBadArgument = errors.New("sixel: bad argument")
)
