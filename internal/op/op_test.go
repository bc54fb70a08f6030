package op

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	concat := Monoid[string]{Combine: func(a, b string) string { return a + b }}
	assert.Equal(t, "abc", concat.Fold([]string{"a", "b", "c"}))
	assert.Equal(t, "", concat.Fold(nil))
	assert.Equal(t, 10, Sum.Fold([]int{1, 2, 3, 4}))
}

func TestLift(t *testing.T) {
	m := Lift(func(a, b int) int { return a - b })

	assert.Equal(t, Partial[int]{}, m.Identity)
	assert.Equal(t, Some(3), m.Combine(Partial[int]{}, Some(3)))
	assert.Equal(t, Some(3), m.Combine(Some(3), Partial[int]{}))
	assert.Equal(t, Some(-1), m.Combine(Some(2), Some(3)))
	assert.False(t, m.Combine(Partial[int]{}, Partial[int]{}).OK)

	// Left fold keeps operand order.
	assert.Equal(t, Some(10-1-2-3), m.Fold([]Partial[int]{Some(10), {}, Some(1), Some(2), {}, Some(3)}))
}

func TestBookkeepingMonoids(t *testing.T) {
	assert.Equal(t, 7, Max.Fold([]int{3, 7, -4}))
	assert.Equal(t, -1, Max.Fold(nil))
	assert.Equal(t, -4, Min.Fold([]int{3, 7, -4}))
	assert.Equal(t, math.MaxInt, Min.Fold(nil))
	assert.True(t, Or.Fold([]bool{false, true, false}))
	assert.False(t, Or.Fold([]bool{false, false}))
}

func TestCodecs(t *testing.T) {
	id := Identity[float32]()
	assert.Equal(t, float32(1.5), id.Store(id.Load(1.5)))

	lifted := Lifted[string]()
	assert.Equal(t, Some("x"), lifted.Load("x"))
	assert.Equal(t, "x", lifted.Store(Some("x")))

	square := Transform(func(x int) int64 { return int64(x) * int64(x) })
	assert.Equal(t, int64(81), square.Load(9))
	assert.Nil(t, square.Store)
}
