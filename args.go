package libemit

import (
	"github.com/spf13/cast"
)

// Args is the argument list of a raised event. Accessors return the zero value for indexes
// out of range or values that cannot be converted.
type Args []any

func (a Args) Len() int { return len(a) }

func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func (a Args) String(i int) string { return cast.ToString(a.At(i)) }

func (a Args) Int(i int) int { return cast.ToInt(a.At(i)) }

func (a Args) Int64(i int) int64 { return cast.ToInt64(a.At(i)) }

func (a Args) Float64(i int) float64 { return cast.ToFloat64(a.At(i)) }

func (a Args) Bool(i int) bool { return cast.ToBool(a.At(i)) }

// IntE is like Int but reports conversion failures.
func (a Args) IntE(i int) (int, error) { return cast.ToIntE(a.At(i)) }

func (a Args) Error(i int) error {
	err, _ := a.At(i).(error)
	return err
}
