// Package batch partitions work into fixed-size chunks and runs them
// sequentially, isolating per-chunk failures so one bad batch never
// aborts the rest.
package batch

import (
	"context"
	"fmt"
)

// Outcome aggregates the results of a batched run. Errors holds one entry
// per failed batch; results from failed batches are dropped.
type Outcome[R any] struct {
	Results []R
	Errors  []string
}

// Chunk splits items into consecutive chunks of at most size elements.
// The last chunk may be smaller. A size larger than the input yields a
// single chunk; empty input yields nil.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 || size < 1 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// ProcessInBatches chunks items and invokes process once per chunk,
// batch by batch. Batches never run concurrently, which bounds load on
// the downstream call. A failed batch contributes an error string with
// its 1-based index and processing continues with the next batch.
//
// The optional onBatch callback is invoked with the 1-based batch index
// and batch size after each successful batch.
func ProcessInBatches[T any, R any](
	ctx context.Context,
	items []T,
	size int,
	process func(ctx context.Context, chunk []T) ([]R, error),
	onBatch func(index, size int),
) Outcome[R] {
	var out Outcome[R]
	for i, chunk := range Chunk(items, size) {
		results, err := process(ctx, chunk)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("Batch %d failed: %v", i+1, err))
			continue
		}
		out.Results = append(out.Results, results...)
		if onBatch != nil {
			onBatch(i+1, len(chunk))
		}
	}
	return out
}
