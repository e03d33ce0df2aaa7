package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRunIndexedOrder checks that results land by index regardless of
// completion order.
func TestRunIndexedOrder(t *testing.T) {
	out := runIndexed(context.Background(), 50, 4, func(i int) int {
		return i * i
	})
	require.Len(t, out, 50)
	for i, v := range out {
		require.Equal(t, i*i, v)
	}
}

// TestRunIndexedWorkerCap never runs more than MaxWorkers tasks at once.
func TestRunIndexedWorkerCap(t *testing.T) {
	var active, peak atomic.Int32
	runIndexed(context.Background(), 64, 99, func(i int) struct{} {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		active.Add(-1)

		return struct{}{}
	})
	require.LessOrEqual(t, peak.Load(), int32(MaxWorkers))
}

// TestRunIndexedCancelled leaves zero values for drained slots.
func TestRunIndexedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := runIndexed(ctx, 8, 2, func(i int) int { return 1 })
	for _, v := range out {
		require.Zero(t, v)
	}
}

// TestRunIndexedEmpty handles a zero-length range.
func TestRunIndexedEmpty(t *testing.T) {
	out := runIndexed(context.Background(), 0, 4, func(i int) int { return 1 })
	require.Empty(t, out)
}
