package libemit

import (
	"reflect"

	"github.com/pkg/errors"
)

// Reserved event names.
const (
	// EventNewListener is raised with (event, listener) before a listener is added.
	EventNewListener = "newListener"
	// EventRemoveListener is raised with (event, listener) after a listener is removed.
	EventRemoveListener = "removeListener"
	// EventError must have a listener whenever it is raised, otherwise Emit returns an error.
	EventError = "error"
)

// Symbol is an event key that is only equal to itself. Two symbols built from the same
// description are still distinct keys.
type Symbol struct {
	desc string
}

// NewSymbol returns a new unique key labelled desc.
func NewSymbol(desc string) *Symbol {
	return &Symbol{desc: desc}
}

func (s *Symbol) Description() string { return s.desc }

func (s *Symbol) String() string { return "Symbol(" + s.desc + ")" }

// eventKey checks that event can be used as a map key.
func eventKey(event any) (any, error) {
	if event == nil {
		return nil, errors.Wrap(ErrInvalidType, "event must not be nil")
	}
	if s, ok := event.(*Symbol); ok && s == nil {
		return nil, errors.Wrap(ErrInvalidType, "event symbol must not be nil")
	}
	t := reflect.TypeOf(event)
	if !t.Comparable() || !hashable(event) {
		return nil, errors.Wrapf(ErrInvalidType, "event of type %s is not comparable", t)
	}
	return event, nil
}

// hashable catches comparable types holding an uncomparable dynamic value, such as an
// interface field set to a slice, which only fail when hashed.
func hashable(event any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{event: {}}
	return true
}

func isSymbol(key any) bool {
	_, ok := key.(*Symbol)
	return ok
}
