package libemit

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// HandlerFunc receives the arguments an event was raised with. A non-nil error stops the
// current dispatch and is returned by Emit.
type HandlerFunc func(args ...any) error

// Listener is a registered callback. Listeners are compared by pointer, so keep the value
// returned by NewListener around to remove it later.
type Listener struct {
	fn HandlerFunc

	// origin and fired are only set on one-shot wrappers.
	origin *Listener
	fired  atomic.Bool
}

func NewListener(fn HandlerFunc) *Listener {
	return &Listener{fn: fn}
}

// Call invokes the handler. One-shot wrappers detach themselves first.
func (l *Listener) Call(args ...any) error {
	return l.fn(args...)
}

// Unwrap returns the listener a one-shot wrapper was built from, or l itself.
func (l *Listener) Unwrap() *Listener {
	if l.origin != nil {
		return l.origin
	}
	return l
}

// IsOnce reports whether l is a one-shot wrapper.
func (l *Listener) IsOnce() bool { return l.origin != nil }

func (l *Listener) matches(other *Listener) bool {
	return l == other || (l.origin != nil && l.origin == other)
}

func checkListener(l *Listener) error {
	if l == nil || l.fn == nil {
		return errors.Wrap(ErrInvalidType, "listener must be a non-nil *Listener with a handler")
	}
	return nil
}

// wrapOnce builds a listener that runs l at most once. fired flips before the wrapper removes
// itself so a reentrant raise of the same event cannot run l twice.
func wrapOnce(e *Emitter, event any, l *Listener) *Listener {
	w := &Listener{origin: l}
	w.fn = func(args ...any) error {
		if !w.fired.CompareAndSwap(false, true) {
			return nil
		}
		if err := e.RemoveListener(event, w); err != nil {
			return err
		}
		return l.fn(args...)
	}
	return w
}
