package libemit

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Emitter binds event keys to ordered listener lists and raises events synchronously.
//
// Listeners run on the goroutine that calls Emit, in registration order. The registry lock is
// never held while a listener runs, so listeners may register, remove or raise events on the
// same emitter. Every Emit works on a snapshot taken before the first listener runs: listeners
// added during a pass do not run in it, and listeners removed during a pass still do.
type Emitter struct {
	id string

	mu     sync.Mutex
	events map[any]*slot
	order  []any

	maxListeners    int
	maxListenersSet bool
	defaults        *Defaults

	logger    Logger
	onWarning func(*MaxListenersExceededWarning)

	// rejected collects option values New could not apply, logged once the logger is set.
	rejected []error
}

// Option configures an Emitter built with New.
type Option func(*Emitter)

// WithLogger sets the sink for leak warnings. Defaults to the zerolog global logger.
func WithLogger(l Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// WithMaxListeners sets the per-event capacity of the emitter. Negative values are logged and
// ignored; use SetMaxListeners to get an error instead.
func WithMaxListeners(n int) Option {
	return func(e *Emitter) {
		if err := checkCapacity(n); err != nil {
			e.rejected = append(e.rejected, err)
			return
		}
		e.maxListeners = n
		e.maxListenersSet = true
	}
}

// WithDefaults makes the emitter fall back to d instead of Global.
func WithDefaults(d *Defaults) Option {
	return func(e *Emitter) { e.defaults = d }
}

// WithWarningHandler registers fn to receive every leak warning after it has been logged.
func WithWarningHandler(fn func(*MaxListenersExceededWarning)) Option {
	return func(e *Emitter) { e.onWarning = fn }
}

// New builds an Emitter. The zero value is usable too: it has no ID, logs through the zerolog
// global logger and falls back to Global.
func New(opts ...Option) *Emitter {
	e := &Emitter{
		id:       uuid.NewString(),
		defaults: Global,
		logger:   DefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.defaults == nil {
		e.defaults = Global
	}
	if e.logger == nil {
		e.logger = NopLogger()
	}
	e.logger = e.logger.WithField("emitter", e.id)
	for _, err := range e.rejected {
		e.logger.Warnf("ignoring option: %s", err)
	}
	e.rejected = nil
	return e
}

// ID identifies the emitter in log records.
func (e *Emitter) ID() string { return e.id }

// AddListener appends l to the listeners of event.
func (e *Emitter) AddListener(event any, l *Listener) error {
	return e.addListener(event, l, false)
}

// On is an alias for AddListener.
func (e *Emitter) On(event any, l *Listener) error {
	return e.addListener(event, l, false)
}

// PrependListener inserts l before every listener already registered for event.
func (e *Emitter) PrependListener(event any, l *Listener) error {
	return e.addListener(event, l, true)
}

// Once appends a listener that runs l the next time event is raised and then removes itself.
// Removing l with RemoveListener also removes the pending wrapper.
func (e *Emitter) Once(event any, l *Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	return e.addListener(event, wrapOnce(e, event, l), false)
}

// PrependOnceListener is Once with PrependListener placement.
func (e *Emitter) PrependOnceListener(event any, l *Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	return e.addListener(event, wrapOnce(e, event, l), true)
}

func (e *Emitter) addListener(event any, l *Listener, prepend bool) error {
	if err := checkListener(l); err != nil {
		return err
	}
	key, err := eventKey(event)
	if err != nil {
		return err
	}

	// Observers see the registration before it takes effect.
	if e.ListenerCount(EventNewListener) > 0 {
		if _, err := e.Emit(EventNewListener, key, l.Unwrap()); err != nil {
			return err
		}
	}

	if warning := e.insert(key, l, prepend); warning != nil {
		e.warn(warning)
	}
	return nil
}

// insert stores l and returns the leak warning to report, if this insertion crossed the capacity.
func (e *Emitter) insert(key any, l *Listener, prepend bool) *MaxListenersExceededWarning {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.events == nil {
		e.events = make(map[any]*slot)
	}
	s, ok := e.events[key]
	if !ok {
		s = &slot{}
		e.events[key] = s
		e.order = append(e.order, key)
	}
	s.add(l, prepend)

	if s.kind != slotMany || s.warned {
		return nil
	}
	if m := e.maxListenersLocked(); m > 0 && s.len() > m {
		s.warned = true
		return &MaxListenersExceededWarning{Emitter: e, Event: key, Count: s.len()}
	}
	return nil
}

func (e *Emitter) warn(w *MaxListenersExceededWarning) {
	logger := e.logger
	if logger == nil {
		logger = DefaultLogger()
	}
	logger.
		WithField("event", fmt.Sprint(w.Event)).
		WithField("count", w.Count).
		Warnf("%s", w.Error())
	if e.onWarning != nil {
		e.onWarning(w)
	}
}

// RemoveListener removes the most recently added registration of l for event. A one-shot
// wrapper around l counts as a registration of l. Unknown events and listeners are ignored.
func (e *Emitter) RemoveListener(event any, l *Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	key, err := eventKey(event)
	if err != nil {
		return err
	}

	removed, notify := e.remove(key, l)
	if removed != nil && notify {
		_, err := e.Emit(EventRemoveListener, key, removed.Unwrap())
		return err
	}
	return nil
}

// remove drops the most recent registration of l and reports whether "removeListener" has
// listeners to notify.
func (e *Emitter) remove(key any, l *Listener) (*Listener, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.events[key]
	if !ok {
		return nil, false
	}
	removed, ok := s.remove(l)
	if !ok {
		return nil, false
	}
	if s.kind == slotEmpty {
		e.deleteLocked(key)
	}
	return removed, e.countLocked(EventRemoveListener) > 0
}

// Off is an alias for RemoveListener.
func (e *Emitter) Off(event any, l *Listener) error {
	return e.RemoveListener(event, l)
}

// RemoveAllListeners drops every listener of the given events, or of all events when called
// without arguments. When "removeListener" has listeners each removal is reported one by one,
// newest first, and the "removeListener" listeners themselves go last.
func (e *Emitter) RemoveAllListeners(events ...any) error {
	keys := make([]any, 0, len(events))
	for _, event := range events {
		key, err := eventKey(event)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	if e.clear(keys) {
		return nil
	}

	if len(keys) > 0 {
		for _, key := range keys {
			if err := e.removeEach(key); err != nil {
				return err
			}
		}
		return nil
	}

	for _, key := range e.EventNames() {
		if key == EventRemoveListener {
			continue
		}
		if err := e.RemoveAllListeners(key); err != nil {
			return err
		}
	}
	if err := e.removeEach(EventRemoveListener); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	return nil
}

// clear drops keys, or everything when keys is empty, unless "removeListener" has listeners
// that must see each removal. It reports whether it did the job.
func (e *Emitter) clear(keys []any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.countLocked(EventRemoveListener) > 0 {
		return false
	}
	if len(keys) == 0 {
		e.resetLocked()
		return true
	}
	for _, key := range keys {
		if _, ok := e.events[key]; ok {
			e.deleteLocked(key)
		}
	}
	return true
}

func (e *Emitter) removeEach(key any) error {
	listeners := e.RawListeners(key)
	for i := len(listeners) - 1; i >= 0; i-- {
		if err := e.RemoveListener(key, listeners[i]); err != nil {
			return err
		}
	}
	return nil
}

// Listeners returns a copy of the listeners of event, with one-shot wrappers replaced by the
// listener they wrap.
func (e *Emitter) Listeners(event any) []*Listener {
	return e.listeners(event, true)
}

// RawListeners is like Listeners but keeps one-shot wrappers as registered.
func (e *Emitter) RawListeners(event any) []*Listener {
	return e.listeners(event, false)
}

func (e *Emitter) listeners(event any, unwrap bool) []*Listener {
	key, err := eventKey(event)
	if err != nil {
		return []*Listener{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.events[key]
	if !ok {
		return []*Listener{}
	}
	if unwrap {
		return s.unwrapped()
	}
	return s.snapshot()
}

// ListenerCount returns how many listeners event has, one-shot wrappers included.
func (e *Emitter) ListenerCount(event any) int {
	key, err := eventKey(event)
	if err != nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.countLocked(key)
}

// EventNames lists the events that have listeners: other keys in the order they were first
// registered, then symbols in the same order.
func (e *Emitter) EventNames() []any {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]any, 0, len(e.order))
	for _, key := range e.order {
		if !isSymbol(key) {
			names = append(names, key)
		}
	}
	for _, key := range e.order {
		if isSymbol(key) {
			names = append(names, key)
		}
	}
	return names
}

// SetMaxListeners overrides the per-event capacity of this emitter. Zero means unlimited.
func (e *Emitter) SetMaxListeners(n int) error {
	if err := checkCapacity(n); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxListeners = n
	e.maxListenersSet = true
	return nil
}

// MaxListeners returns the override, or the value of the emitter's Defaults when none is set.
func (e *Emitter) MaxListeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxListenersLocked()
}

func (e *Emitter) maxListenersLocked() int {
	if e.maxListenersSet {
		return e.maxListeners
	}
	if e.defaults == nil {
		return Global.MaxListeners()
	}
	return e.defaults.MaxListeners()
}

func (e *Emitter) countLocked(key any) int {
	s, ok := e.events[key]
	if !ok {
		return 0
	}
	return s.len()
}

func (e *Emitter) deleteLocked(key any) {
	delete(e.events, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if len(e.events) == 0 {
		e.resetLocked()
	}
}

func (e *Emitter) resetLocked() {
	e.events = nil
	e.order = nil
}
