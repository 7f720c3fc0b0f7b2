package errs

import "errors"

var (
	ErrOutOfMemory = errors.New("acheron: out of memory")
	ErrBadArgument = errors.New("acheron: bad argument")
	ErrClosed      = errors.New("acheron: closed")
)
