package infra

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikidot-gateway/middleware/ratelimit/domain"
)

// manualScheduler só dispara expirações quando o teste manda.
type manualScheduler struct {
	mu        sync.Mutex
	evictions []*manualEviction
}

type manualEviction struct {
	s        *manualScheduler
	d        time.Duration
	f        func()
	canceled bool
	fired    bool
	cancels  int
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) domain.Eviction {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &manualEviction{s: s, d: d, f: f}
	s.evictions = append(s.evictions, e)
	return e
}

func (e *manualEviction) Cancel() {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.cancels++
	e.canceled = true
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.evictions {
		if !e.canceled && !e.fired {
			n++
		}
	}
	return n
}

func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	var due []func()
	for _, e := range s.evictions {
		if !e.canceled && !e.fired {
			e.fired = true
			due = append(due, e.f)
		}
	}
	s.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func newManualWindow(t *testing.T, interval time.Duration, opts ...WindowOption) (*WindowStore, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	opts = append([]WindowOption{WithScheduler(sched)}, opts...)
	return NewWindowStore(interval, opts...), sched
}

func TestWindowStore_AdmitsUpToLimitInOrder(t *testing.T) {
	w, _ := newManualWindow(t, time.Minute)

	for i := 1; i <= 10; i++ {
		count, ok := w.Hit("1.2.3.4", 10)
		require.True(t, ok, "request %d should be admitted", i)
		assert.Equal(t, i, count)
	}
}

func TestWindowStore_RejectsLimitPlusOne(t *testing.T) {
	w, _ := newManualWindow(t, time.Minute)

	for i := 0; i < 3; i++ {
		_, ok := w.Hit("1.2.3.4", 3)
		require.True(t, ok)
	}

	count, ok := w.Hit("1.2.3.4", 3)
	assert.False(t, ok)
	assert.Equal(t, 4, count)
}

func TestWindowStore_ArmsSingleEvictionPerClient(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute)

	for i := 0; i < 5; i++ {
		_, _ = w.Hit("1.2.3.4", 10)
	}
	assert.Equal(t, 1, sched.pending())
	assert.Equal(t, time.Minute, sched.evictions[0].d)

	rec, ok := w.Record("1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, 5, rec.Count)
	assert.NotNil(t, rec.Reset)
}

func TestWindowStore_EvictionStartsFreshWindow(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute)

	_, _ = w.Hit("1.2.3.4", 2)
	_, _ = w.Hit("1.2.3.4", 2)

	sched.fireAll()
	_, ok := w.Record("1.2.3.4")
	require.False(t, ok, "record should be removed by its eviction")

	count, ok := w.Hit("1.2.3.4", 2)
	assert.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestWindowStore_OverflowCancelsEvictionAndKeepsRecord(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute)

	_, _ = w.Hit("1.2.3.4", 1)
	_, ok := w.Hit("1.2.3.4", 1)
	require.False(t, ok)
	_, ok = w.Hit("1.2.3.4", 1)
	require.False(t, ok)

	assert.Equal(t, 0, sched.pending())
	assert.Equal(t, 1, sched.evictions[0].cancels)

	sched.fireAll()
	rec, ok := w.Record("1.2.3.4")
	require.True(t, ok, "over-quota record has no eviction left and persists")
	assert.Equal(t, 3, rec.Count)
	assert.Nil(t, rec.Reset)
}

func TestWindowStore_CancelIsIdempotent(t *testing.T) {
	w := NewWindowStore(time.Hour)

	_, _ = w.Hit("1.2.3.4", 1)
	rec, ok := w.Record("1.2.3.4")
	require.True(t, ok)

	assert.NotPanics(t, func() {
		rec.Reset.Cancel()
		rec.Reset.Cancel()
	})
	assert.NotPanics(t, func() {
		_, _ = w.Hit("1.2.3.4", 1)
		_, _ = w.Hit("1.2.3.4", 1)
	})
}

func TestWindowStore_RearmPolicyReleasesClient(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute, WithOverflowPolicy(domain.OverflowRearm))

	_, _ = w.Hit("1.2.3.4", 1)
	_, ok := w.Hit("1.2.3.4", 1)
	require.False(t, ok)
	assert.Equal(t, 1, sched.pending(), "overflow should re-arm a single eviction")

	_, ok = w.Hit("1.2.3.4", 1)
	require.False(t, ok)
	assert.Equal(t, 1, sched.pending())

	sched.fireAll()
	count, ok := w.Hit("1.2.3.4", 1)
	assert.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestWindowStore_StaleEvictionDoesNotRemoveRearmedRecord(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute, WithOverflowPolicy(domain.OverflowRearm))

	_, _ = w.Hit("1.2.3.4", 1)
	_, _ = w.Hit("1.2.3.4", 1)
	require.Len(t, sched.evictions, 2)

	// primeira expiração já estava em voo quando foi cancelada
	sched.evictions[0].f()

	rec, ok := w.Record("1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, 2, rec.Count)
}

func TestWindowStore_ClientsAreIndependent(t *testing.T) {
	w, _ := newManualWindow(t, time.Minute)

	_, _ = w.Hit("1.1.1.1", 1)
	_, ok := w.Hit("1.1.1.1", 1)
	require.False(t, ok)

	count, ok := w.Hit("2.2.2.2", 1)
	assert.True(t, ok)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, w.Len())
}

func TestWindowStore_ConcurrentHitsDoNotLoseUpdates(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute)

	const workers = 100
	var admitted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, ok := w.Hit("1.2.3.4", 50); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, admitted.Load())
	rec, ok := w.Record("1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, workers, rec.Count)
	assert.Len(t, sched.evictions, 1)
}

func TestWindowStore_TimerSchedulerEvicts(t *testing.T) {
	w := NewWindowStore(20 * time.Millisecond)

	_, _ = w.Hit("1.2.3.4", 5)
	require.Equal(t, 1, w.Len())

	require.Eventually(t, func() bool { return w.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWindowStore_CloseCancelsPendingEvictions(t *testing.T) {
	w, sched := newManualWindow(t, time.Minute)

	_, _ = w.Hit("1.1.1.1", 5)
	_, _ = w.Hit("2.2.2.2", 5)
	require.Equal(t, 2, sched.pending())

	w.Close()
	assert.Equal(t, 0, sched.pending())
	assert.Equal(t, 0, w.Len())
}
