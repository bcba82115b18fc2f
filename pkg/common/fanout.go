package common

import (
	"context"
	"sync"
)

// BestEffort issues the given writes concurrently and waits for all of them,
// collecting every outcome instead of failing fast. It returns the number
// that succeeded plus the individual failures. Callers use it for the
// deliberately non-transactional fan-outs: tag-association items,
// mark-all-notifications-read, and parallel object deletion.
func BestEffort(ctx context.Context, ops []func(context.Context) error) (int, []error) {
	if len(ops) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)

	wg.Add(len(ops))
	for _, op := range ops {
		go func(op func(context.Context) error) {
			defer wg.Done()
			if err := op(ctx); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(op)
	}
	wg.Wait()

	return succeeded, failures
}
