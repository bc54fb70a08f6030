package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEach_VisitsEveryIndexOnce(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), {Enabled: false}, {Enabled: true, NumWorkers: 3}} {
		seen := make([]int32, 517)
		err := ForEach(len(seen), func(i int) error {
			atomic.AddInt32(&seen[i], 1)
			return nil
		}, cfg)
		require.NoError(t, err)
		for i, c := range seen {
			assert.Equal(t, int32(1), c, "index %d", i)
		}
	}
}

func TestForEach_ReturnsErrorAfterRunningAll(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32
	err := ForEach(64, func(i int) error {
		ran.Add(1)
		if i == 7 {
			return boom
		}
		return nil
	}, Config{Enabled: true, NumWorkers: 4})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(64), ran.Load())
}

func TestForEach_RecoversPanic(t *testing.T) {
	err := ForEach(8, func(i int) error {
		if i == 5 {
			panic("lane fault")
		}
		return nil
	}, DefaultConfig())
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 5, pe.Task)
	assert.Equal(t, "lane fault", pe.Value)
}

func TestForEach_Empty(t *testing.T) {
	assert.NoError(t, ForEach(0, func(int) error { panic("unreachable") }, DefaultConfig()))
}

func BenchmarkForEach(b *testing.B) {
	cfg := DefaultConfig()
	for i := 0; i < b.N; i++ {
		var sum int64
		_ = ForEach(1024, func(i int) error {
			atomic.AddInt64(&sum, int64(i))
			return nil
		}, cfg)
	}
}
