package orchestration

import (
	"errors"
	"fmt"
)

// ErrQuit is returned by the text input task when the operator asks to end
// the session. Run treats it as a graceful shutdown.
var ErrQuit = errors.New("operator requested exit")

// DeviceError reports an unrecoverable audio device failure. It ends the
// session.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s device failed: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// TransportError reports a failed connect, read or write on the session. It
// ends the session; nothing is retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("session %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
