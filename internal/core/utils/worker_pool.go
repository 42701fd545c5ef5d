package utils

import "sync"

type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

// RunInPool applies worker to every input using at most maxWorkers goroutines
// and returns the results in input order.
func RunInPool[In any, Out any](worker func(In) (Out, error), inputs []In, maxWorkers int) []CompletedTask[Out] {
	results := make([]CompletedTask[Out], len(inputs))
	if len(inputs) == 0 {
		return results
	}

	workers := max(1, min(len(inputs), maxWorkers))

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	wg := sync.WaitGroup{}
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			for idx := range queue {
				res, err := worker(inputs[idx])
				// each index is written by exactly one goroutine
				results[idx] = CompletedTask[Out]{Index: idx, Result: res, Error: err}
			}
		}()
	}

	wg.Wait()

	return results
}
