package pool

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
type Pool struct {
	// This holds the number of workers we run concurrently
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	return &Pool{workerCount: count}
}

// Workers returns the number of goroutines the pool runs at once.
// A nil pool has exactly one, the caller's.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// searchAlone runs f until count successes are found, or ctx is done.
func searchAlone[T any](ctx context.Context, count int, f func() (T, bool)) ([]T, error) {
	results := make([]T, count)
	for i := 0; i < count; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res, ok := f(); ok {
			results[i] = res
			i++
		}
	}
	return results, nil
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning false if that candidate isn't
// successful. Every worker keeps trying candidates until enough have been found,
// or until ctx is cancelled, in which case ctx.Err() is returned.
//
// The result will be a slice containing the first count successes.
func Search[T any](ctx context.Context, p *Pool, count int, f func() (T, bool)) ([]T, error) {
	if p == nil {
		return searchAlone(ctx, count, f)
	}

	results := make([]T, count)
	// This counter indicates the number of results that still need to be produced.
	remaining := int64(count)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < p.workerCount; w++ {
		g.Go(func() error {
			for atomic.LoadInt64(&remaining) > 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, ok := f()
				if !ok {
					continue
				}
				i := atomic.AddInt64(&remaining, -1)
				if i < 0 {
					break
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
// The first error returned by f cancels the remaining calls and is returned.
func Parallelize[T any](ctx context.Context, p *Pool, count int, f func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, count)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers())
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := f(ctx, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This type implements io.Reader, returning the same output.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
//
// Wrapping a reader that is already a *LockedReader returns it unchanged.
func NewLockedReader(r io.Reader) *LockedReader {
	if l, ok := r.(*LockedReader); ok {
		return l
	}
	// Intentionally not initializing m, since the zero value is ok
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader
//
// The behavior is to return the same output as the underlying reader. The difference
// is that it's safe to call this function concurrently.
//
// Naturally, when calling this function concurrently, what value ends up getting
// read is raced, but you won't end up reading the same value twice, or otherwise
// messing up the state of the reader.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
