package throttle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) apply(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

func TestBurstCoalescesToLastArguments(t *testing.T) {
	rec := &recorder{}
	th := New(rec.apply, 50*time.Millisecond)
	defer th.Stop()

	// Prime the throttle so the burst lands inside an open window
	th.Dispatch(0)
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, time.Millisecond)

	for i := 1; i <= 10; i++ {
		th.Dispatch(i)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	// Exactly one application for the whole burst, carrying the last args
	assert.Equal(t, []int{0, 10}, rec.snapshot())
}

func TestSustainedDispatchIsRateLimited(t *testing.T) {
	rec := &recorder{}
	window := 40 * time.Millisecond
	th := New(rec.apply, window)
	defer th.Stop()

	deadline := time.Now().Add(4 * window)
	i := 0
	for time.Now().Before(deadline) {
		i++
		th.Dispatch(i)
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(2 * window)

	applied := rec.snapshot()
	require.NotEmpty(t, applied)
	// At most one application per window, with headroom for timer slack
	assert.LessOrEqual(t, len(applied), 6)
	// The final application carries the most recent input
	assert.Equal(t, i, applied[len(applied)-1])
	// Applications are ordered, never a stale intermediate after a newer one
	for j := 1; j < len(applied); j++ {
		assert.Greater(t, applied[j], applied[j-1])
	}
}

func TestStopCancelsPending(t *testing.T) {
	rec := &recorder{}
	th := New(rec.apply, 30*time.Millisecond)

	th.Dispatch(1)
	// First dispatch fires immediately; wait for it
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 2*time.Millisecond)

	th.Dispatch(2)
	th.Stop()
	time.Sleep(3 * 30 * time.Millisecond)

	assert.Equal(t, []int{1}, rec.snapshot())
}

func TestDispatchAfterStopIsIgnored(t *testing.T) {
	rec := &recorder{}
	th := New(rec.apply, 10*time.Millisecond)
	th.Stop()

	th.Dispatch(1)
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, rec.snapshot())
}

func TestIdleDispatchAppliesImmediately(t *testing.T) {
	rec := &recorder{}
	th := New(rec.apply, 500*time.Millisecond)
	defer th.Stop()

	start := time.Now()
	th.Dispatch(42)
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, time.Millisecond)

	// A dispatch with no recent application does not wait the full window
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}
