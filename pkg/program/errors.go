package program

import (
	"github.com/pkg/errors"
)

// Program Errors
var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrNegativeValue  = errors.New("negative repeat count")
	ErrProgramTooLong = errors.New("program is too long")
	ErrProgramFile    = errors.New("invalid program file")
)

func wrapErrorf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
