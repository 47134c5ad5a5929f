package matte

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerWorker keeps tiny images on the calling goroutine.
const minRowsPerWorker = 16

// parallelRows calls fn over contiguous row ranges [y0, y1) covering
// [0, rows) and returns once every range is done.
func parallelRows(rows, workers int, fn func(y0, y1 int)) {
	if rows <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, (rows+minRowsPerWorker-1)/minRowsPerWorker)
	if workers <= 1 {
		fn(0, rows)
		return
	}

	chunk := (rows + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
