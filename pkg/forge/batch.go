// File: pkg/forge/batch.go
package forge

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds how many tasks run at the same time.
const DefaultBatchSize = 10

// Task produces the blocks of one walk.
type Task func(ctx context.Context) []string

// RunBatches runs tasks in consecutive groups of size. The tasks of a group
// run concurrently and the next group starts once the whole group finished.
// Each result is collected exactly once and the returned slice keeps the
// order of tasks. Groups are no longer started once ctx is done; their
// slots stay nil.
func RunBatches(ctx context.Context, tasks []Task, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	results := make([][]string, len(tasks))

	for start := 0; start < len(tasks); start += size {
		if ctx.Err() != nil {
			break
		}
		end := min(start+size, len(tasks))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = tasks[i](ctx)
				return nil
			})
		}
		_ = g.Wait() // tasks report failures as blocks, never as errors
	}

	return results
}

// Flatten concatenates per-task results in order.
func Flatten(results [][]string) []string {
	n := 0
	for _, r := range results {
		n += len(r)
	}
	blocks := make([]string, 0, n)
	for _, r := range results {
		blocks = append(blocks, r...)
	}
	return blocks
}
