package pool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	for _, pl := range []*Pool{nil, NewPool(1), NewPool(4)} {
		var calls int64
		results, err := Search(context.Background(), pl, 3, func() (int64, bool) {
			c := atomic.AddInt64(&calls, 1)
			// only even attempts succeed
			return c, c%2 == 0
		})
		require.NoError(t, err)
		require.Len(t, results, 3)
		for _, r := range results {
			assert.Zero(t, r%2, "search returned a failed candidate")
		}
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, pl := range []*Pool{nil, NewPool(2)} {
		_, err := Search(ctx, pl, 1, func() (int, bool) { return 0, false })
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestParallelize(t *testing.T) {
	for _, pl := range []*Pool{nil, NewPool(3)} {
		results, err := Parallelize(context.Background(), pl, 10, func(_ context.Context, i int) (int, error) {
			return i * i, nil
		})
		require.NoError(t, err)
		for i, r := range results {
			assert.Equal(t, i*i, r)
		}
	}
}

func TestParallelizeError(t *testing.T) {
	errBoom := errors.New("boom")
	_, err := Parallelize(context.Background(), NewPool(2), 8, func(_ context.Context, i int) (int, error) {
		if i == 5 {
			return 0, errBoom
		}
		return i, nil
	})
	assert.ErrorIs(t, err, errBoom)
}

func TestLockedReader(t *testing.T) {
	src := bytes.Repeat([]byte{7}, 64*16)
	r := NewLockedReader(bytes.NewReader(src))
	assert.Same(t, r, NewLockedReader(r), "wrapping twice should not nest locks")

	var wg sync.WaitGroup
	var total int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 64)
			n, err := io.ReadFull(r, buf)
			if err == nil {
				atomic.AddInt64(&total, int64(n))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(len(src)), total)
}
