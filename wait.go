package libemit

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type (
	// Registrar is the listener surface of an Emitter. Anything embedding an *Emitter
	// satisfies it.
	Registrar interface {
		Once(event any, l *Listener) error
		RemoveListener(event any, l *Listener) error
	}

	// Subscriber is the smallest surface WaitFor accepts: subscribe a plain callback and get
	// back a function that cancels the subscription.
	Subscriber interface {
		Subscribe(event any, fn func(args ...any)) (unsubscribe func())
	}
)

type waitResult struct {
	args Args
	err  error
}

// WaitFor blocks until target raises event and returns its arguments.
//
// For a Registrar, an "error" raised first ends the wait with that error (args[0] when it is an
// error, an *UnhandledError otherwise), unless event is "error" itself, in which case the error
// arguments are the result. Subscribers get no error handling. Every listener WaitFor attached
// is removed before it returns, including on context cancellation.
func WaitFor(ctx context.Context, target any, event any) (Args, error) {
	var (
		once    sync.Once
		done    = make(chan waitResult, 1)
		cleanup func()
	)
	settle := func(r waitResult) {
		once.Do(func() { done <- r })
	}

	switch t := target.(type) {
	case Registrar:
		var errListener *Listener
		resolver := NewListener(func(args ...any) error {
			if errListener != nil {
				_ = t.RemoveListener(EventError, errListener)
			}
			settle(waitResult{args: Args(args)})
			return nil
		})
		if event != EventError {
			errListener = NewListener(func(args ...any) error {
				_ = t.RemoveListener(event, resolver)
				settle(waitResult{err: errorFromArgs(args)})
				return nil
			})
		}

		if err := t.Once(event, resolver); err != nil {
			return nil, err
		}
		if errListener != nil {
			if err := t.Once(EventError, errListener); err != nil {
				_ = t.RemoveListener(event, resolver)
				return nil, err
			}
		}
		cleanup = func() {
			_ = t.RemoveListener(event, resolver)
			if errListener != nil {
				_ = t.RemoveListener(EventError, errListener)
			}
		}
	case Subscriber:
		cleanup = t.Subscribe(event, func(args ...any) {
			settle(waitResult{args: Args(args)})
		})
	default:
		return nil, errors.Wrapf(ErrInvalidType, "wait target of type %T cannot register listeners", target)
	}

	select {
	case r := <-done:
		if cleanup != nil {
			cleanup()
		}
		return r.args, r.err
	case <-ctx.Done():
		if cleanup != nil {
			cleanup()
		}
		return nil, ctx.Err()
	}
}
