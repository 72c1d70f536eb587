package control

import (
	"github.com/pkg/errors"
)

// Controller Errors
var (
	ErrAlreadyRunning   = errors.New("controller already running")
	ErrStopped          = errors.New("controller stopped")
	ErrControlsDisabled = errors.New("manual controls are disabled while a program runs")
	ErrProgramRunning   = errors.New("a program is already running")
	ErrUnknownCommand   = errors.New("unknown command")
)
