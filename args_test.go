package libemit

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	fault := errors.New("fault")
	args := Args{"42", 7, true, 1.5, fault}

	assert.Equal(t, 5, args.Len())
	assert.Equal(t, 42, args.Int(0))
	assert.Equal(t, "7", args.String(1))
	assert.Equal(t, int64(7), args.Int64(1))
	assert.True(t, args.Bool(2))
	assert.Equal(t, 1.5, args.Float64(3))
	assert.Same(t, fault, args.Error(4))

	assert.Nil(t, args.At(10))
	assert.Nil(t, args.At(-1))
	assert.Equal(t, "", args.String(10))
	assert.Nil(t, args.Error(0))

	_, err := Args{"nope"}.IntE(0)
	require.Error(t, err)
}
