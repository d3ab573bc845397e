package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}

	var counter int64
	For(cfg.MinChunkSize-1, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(cfg.MinChunkSize-1), counter)
}

func TestFor_EveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	seen := make([]int32, 100)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, c := range seen {
		require.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestForErr(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	errOdd := errors.New("odd")

	var ran int64
	err := ForErr(10, func(i int) error {
		atomic.AddInt64(&ran, 1)
		if i%2 == 1 {
			return fmt.Errorf("item %d: %w", i, errOdd)
		}
		return nil
	}, cfg)

	assert.Equal(t, int64(10), ran, "every index runs even after a failure")
	require.ErrorIs(t, err, errOdd)
	assert.Contains(t, err.Error(), "item 1")
	assert.Contains(t, err.Error(), "item 9")

	assert.NoError(t, ForErr(10, func(int) error { return nil }, cfg))
	assert.NoError(t, ForErr(0, func(int) error { return errOdd }, cfg))
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
