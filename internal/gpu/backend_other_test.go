//go:build !windows

package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unavailable(t *testing.T) {
	b, err := New()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, b)
	assert.False(t, IsAvailable())

	_, err = b.Reduce([]float32{1}, Sum)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, b.InclusiveScan([]float32{1}, make([]float32, 1), Sum), ErrUnavailable)
}
