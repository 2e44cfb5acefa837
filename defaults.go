package libemit

import (
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// DefaultMaxListeners is the per-event capacity every Defaults starts with. Emitters warn when
// an event collects more listeners than this.
const DefaultMaxListeners = 10

var validate = validator.New()

// Defaults holds the settings an Emitter falls back to when it has no override of its own.
// The zero value is not usable; build one with NewDefaults.
type Defaults struct {
	maxListeners atomic.Int64
}

// Global is consulted by every Emitter created without WithDefaults. It starts with
// DefaultMaxListeners and can be changed at runtime with SetMaxListeners or Config.Apply.
var Global = NewDefaults()

func NewDefaults() *Defaults {
	d := &Defaults{}
	d.maxListeners.Store(DefaultMaxListeners)
	return d
}

func (d *Defaults) MaxListeners() int {
	return int(d.maxListeners.Load())
}

// SetMaxListeners changes the capacity for emitters without an override. Zero disables the
// leak warning.
func (d *Defaults) SetMaxListeners(n int) error {
	if err := checkCapacity(n); err != nil {
		return err
	}
	d.maxListeners.Store(int64(n))
	return nil
}

func checkCapacity(n int) error {
	if err := validate.Var(n, "gte=0"); err != nil {
		return errors.Wrapf(ErrOutOfRange, "max listeners must be a non-negative number, got %d", n)
	}
	return nil
}
