package libemit

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidType is returned when a call receives an argument of the wrong kind: a nil or
	// handler-less listener, an unusable event key, or a wait target without listener support.
	ErrInvalidType = errors.New("invalid argument type")
	// ErrOutOfRange is returned when a numeric setting is negative or otherwise unusable.
	ErrOutOfRange = errors.New("value out of range")
	// ErrUnhandled matches every *UnhandledError.
	ErrUnhandled = errors.New("unhandled error")
)

// UnhandledError is returned by Emit when an "error" event is raised with no listener and its
// first argument is not itself an error. Context holds that argument, nil when none was given.
type UnhandledError struct {
	Context any
}

func (e *UnhandledError) Error() string {
	if e.Context == nil {
		return "unhandled error."
	}
	return fmt.Sprintf("unhandled error. (%v)", e.Context)
}

func (e *UnhandledError) Is(target error) bool { return target == ErrUnhandled }

// errorFromArgs turns the arguments of an "error" event into an error value. An error passed as
// first argument is forwarded untouched.
func errorFromArgs(args []any) error {
	var first any
	if len(args) > 0 {
		first = args[0]
	}
	if err, ok := first.(error); ok && err != nil {
		return err
	}
	return &UnhandledError{Context: first}
}

// MaxListenersExceededWarning describes a listener list that grew past the emitter capacity.
// It is reported once per growth episode of a given event.
type MaxListenersExceededWarning struct {
	Emitter *Emitter
	Event   any
	Count   int
}

func (w *MaxListenersExceededWarning) Error() string {
	return fmt.Sprintf(
		"possible EventEmitter memory leak detected. %d %v listeners added. "+
			"Use SetMaxListeners() to increase limit",
		w.Count, w.Event,
	)
}
