package forge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchesPreservesOrder(t *testing.T) {
	expansions := [][]string{
		{"a1", "a2"},
		{"b1"},
		{"c1", "c2", "c3"},
	}

	for _, size := range []int{1, 2, 3, 10} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			tasks := make([]Task, len(expansions))
			for i, blocks := range expansions {
				delay := time.Duration(len(expansions)-i) * 5 * time.Millisecond
				tasks[i] = func(context.Context) []string {
					time.Sleep(delay)
					return blocks
				}
			}

			got := Flatten(RunBatches(context.Background(), tasks, size))
			assert.Equal(t, []string{"a1", "a2", "b1", "c1", "c2", "c3"}, got)
		})
	}
}

func TestRunBatchesBoundsConcurrency(t *testing.T) {
	const size = 3
	var inFlight, peak int32
	var mu sync.Mutex
	var finished []int
	var startedEarly bool

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(context.Context) []string {
			mu.Lock()
			// Every task of the previous batches must be done.
			if len(finished) < (i/size)*size {
				startedEarly = true
			}
			mu.Unlock()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)

			mu.Lock()
			finished = append(finished, i)
			mu.Unlock()
			return []string{fmt.Sprint(i)}
		}
	}

	got := Flatten(RunBatches(context.Background(), tasks, size))
	require.Len(t, got, 10)
	assert.Equal(t, "0", got[0])
	assert.Equal(t, "9", got[9])
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(size))
	assert.False(t, startedEarly, "a batch started before the previous one finished")
}

func TestRunBatchesInvokesEachTaskOnce(t *testing.T) {
	var calls [25]int32
	tasks := make([]Task, len(calls))
	for i := range tasks {
		tasks[i] = func(context.Context) []string {
			atomic.AddInt32(&calls[i], 1)
			return nil
		}
	}

	RunBatches(context.Background(), tasks, 0)
	for i := range calls {
		assert.Equal(t, int32(1), calls[i], "task %d", i)
	}
}

func TestRunBatchesStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls int32
	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = func(context.Context) []string {
			atomic.AddInt32(&calls, 1)
			cancel()
			return []string{"x"}
		}
	}

	results := RunBatches(ctx, tasks, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Nil(t, results[2])
	assert.Nil(t, results[3])
}
