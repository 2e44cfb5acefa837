package libemit

// Emit calls every listener of event, in order, with args. It reports whether the event had
// listeners.
//
// A listener error stops the pass and is returned together with true. Panics are not
// recovered.
//
// Raising EventError with no listener is an error: Emit returns args[0] when it is an error and
// an *UnhandledError carrying args[0] otherwise. Callers raising "error" must check the result.
func (e *Emitter) Emit(event any, args ...any) (bool, error) {
	key, err := eventKey(event)
	if err != nil {
		return false, err
	}

	listeners := e.snapshot(key)
	if len(listeners) == 0 {
		if key == EventError {
			return false, errorFromArgs(args)
		}
		return false, nil
	}

	for _, l := range listeners {
		if err := l.fn(args...); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (e *Emitter) snapshot(key any) []*Listener {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.events[key]; ok {
		return s.snapshot()
	}
	return nil
}
