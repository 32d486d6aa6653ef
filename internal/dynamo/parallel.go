package dynamo

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers returns how many chunks ParallelFor splits [0, n) into. A
// non-positive workers value means GOMAXPROCS.
func Workers(n, minChunk, workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		return 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// ParallelFor executes fn over [0, n) split into Workers(n, minChunk, workers)
// contiguous chunks. worker is the chunk index, so callers can keep one
// accumulator per worker and merge after the call returns.
func ParallelFor(n, minChunk, workers int, fn func(worker, start, end int)) {
	w := Workers(n, minChunk, workers)
	if w == 1 {
		fn(0, 0, n)
		return
	}
	size := (n + w - 1) / w
	cuts := make([]int, w+1)
	for k := range cuts {
		cuts[k] = min(k*size, n)
	}
	run(cuts, fn)
}

// ParallelPairs is ParallelFor for triangular loops where row i visits the
// pairs (i, j) with j > i. Rows are cut so each chunk holds about the same
// number of pairs rather than the same number of rows.
func ParallelPairs(n, minChunk, workers int, fn func(worker, start, end int)) {
	w := Workers(n, minChunk, workers)
	if w == 1 {
		fn(0, 0, n)
		return
	}
	run(PairCuts(n, w), fn)
}

// PairCuts returns w+1 row boundaries over [0, n) balancing the pair count of
// a triangular loop across w chunks. A chunk may be empty.
func PairCuts(n, w int) []int {
	cuts := make([]int, w+1)
	cuts[w] = n
	total := n * (n - 1) / 2
	row, done := 0, 0
	for k := 1; k < w; k++ {
		target := total * k / w
		for row < n && done < target {
			done += n - 1 - row
			row++
		}
		cuts[k] = row
	}
	return cuts
}

func run(cuts []int, fn func(worker, start, end int)) {
	// fn cannot fail; the group only joins the chunks.
	var g errgroup.Group
	for k := 0; k+1 < len(cuts); k++ {
		start, end := cuts[k], cuts[k+1]
		if start >= end {
			continue
		}
		g.Go(func() error {
			fn(k, start, end)
			return nil
		})
	}
	_ = g.Wait()
}
