// Package workers runs independent per-item computations on a bounded set of
// goroutines and collects the results in input order.
package workers

import (
	"sync"
)

// DefaultWorkers is used when a pool is created with a non-positive size.
const DefaultWorkers = 10

// WorkerPool manages a pool of worker goroutines for parallel evaluation
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the configured number of workers.
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Result is the outcome of one item. Err is per item: a failing item never
// affects the others.
type Result[T any] struct {
	Value T
	Err   error
}

// Map applies fn to every item in parallel.
//
// Args:
//   - wp: pool that bounds the number of goroutines
//   - items: inputs, evaluated independently
//   - fn: evaluation function; must not share mutable state across items
//
// Returns:
//   - One result per item, in the same order as items
func Map[In, Out any](wp *WorkerPool, items []In, fn func(In) (Out, error)) []Result[Out] {
	numItems := len(items)
	if numItems == 0 {
		return []Result[Out]{}
	}

	jobs := make(chan jobItem[In], numItems)
	results := make(chan resultItem[Out], numItems)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numItems < numActualWorkers {
		numActualWorkers = numItems // Don't spawn more workers than items
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(jobs, results, fn)
		}()
	}

	for idx, item := range items {
		jobs <- jobItem[In]{index: idx, item: item}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultSlice := make([]Result[Out], numItems)
	for result := range results {
		resultSlice[result.index] = result.result
	}

	return resultSlice
}

type jobItem[In any] struct {
	index int
	item  In
}

type resultItem[Out any] struct {
	index  int
	result Result[Out]
}

func worker[In, Out any](jobs <-chan jobItem[In], results chan<- resultItem[Out], fn func(In) (Out, error)) {
	for job := range jobs {
		results <- resultItem[Out]{index: job.index, result: call(fn, job.item)}
	}
}

// call turns a panic inside fn into an item error.
func call[In, Out any](fn func(In) (Out, error), item In) (res Result[Out]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[Out]{Err: &PanicError{Value: r}}
		}
	}()
	v, err := fn(item)
	return Result[Out]{Value: v, Err: err}
}
