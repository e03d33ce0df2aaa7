package pipeline

import (
	"context"
	"sync"
)

// MaxWorkers bounds the per-request worker pool.
const MaxWorkers = 4

// runIndexed fans the index range [0, n) over at most `workers` goroutines
// and collects one result per index. Completion is unordered; the returned
// slice restores index order. The context is checked before each task;
// cancelled slots keep their zero value.
func runIndexed[T any](ctx context.Context, n, workers int, fn func(i int) T) []T {
	if workers <= 0 || workers > MaxWorkers {
		workers = MaxWorkers
	}
	if workers > n {
		workers = n
	}
	results := make([]T, n)
	if n == 0 {
		return results
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					continue // drain without working
				}
				results[i] = fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return results
}
