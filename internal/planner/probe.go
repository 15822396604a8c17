package planner

import "sync"

// maxProbeWorkers bounds the fan-out used for both Phase A geocoding and
// the inner loop's per-cursor candidate evaluation.
const maxProbeWorkers = 8

// probeBounded runs fn(i, items[i]) across a worker pool capped at
// min(len(items), maxProbeWorkers) and returns results indexed identically
// to items, so callers can apply a deterministic tie-break over the
// gathered results without parallelism perturbing order.
func probeBounded[T any, R any](items []T, fn func(idx int, item T) R) []R {
	n := len(items)
	results := make([]R, n)
	if n == 0 {
		return results
	}

	workers := maxProbeWorkers
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = fn(idx, items[idx])
			}
		}()
	}

	for idx := range items {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}
