package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDebounceCollapsesRapidChanges(t *testing.T) {
	// given
	f := newFixture(t, 10)
	f.onList("abc", "Tools", numbered(1)).Once()
	q := f.console.Coordinator()

	// when
	q.SetQuery("a")
	f.sched.Advance(100 * time.Millisecond)
	q.SetQuery("ab")
	f.sched.Advance(100 * time.Millisecond)
	q.SetCategory("Tools")
	q.SetQuery("abc")
	f.sched.Advance(DefaultDebounce - time.Millisecond)

	// then
	f.svc.AssertNumberOfCalls(t, "List", 0)

	f.sched.Advance(time.Millisecond)
	f.svc.AssertNumberOfCalls(t, "List", 1)
	f.svc.AssertExpectations(t)
	assert.Equal(t, Query{Text: "abc", Category: "Tools"}, f.console.Store().Query())
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.debounced))
}

func TestQueryChangeResetsPage(t *testing.T) {
	// given
	f := newFixture(t, 5)
	f.load(t, numbered(12))
	require.NoError(t, f.console.Pager().GoTo(3))
	f.onList("Item", "", numbered(12)).Once()

	// when
	f.console.Coordinator().SetQuery("Item")
	f.sched.Advance(DefaultDebounce)

	// then
	assert.Equal(t, 1, f.console.Pager().Current())
}

func TestQueryChangeResetsPageWhenResyncWinsTheRace(t *testing.T) {
	// given page 3 of the unfiltered list
	f := newFixture(t, 5)
	f.load(t, numbered(12))
	require.NoError(t, f.console.Pager().GoTo(3))

	started := make(chan struct{})
	release := make(chan struct{})
	f.onList("Item", "", numbered(12)).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Once()
	f.onList("Item", "", numbered(12)).Once()

	// when the debounced query load is still in flight and a resync overtakes it
	f.console.Coordinator().SetQuery("Item")
	fired := make(chan struct{})
	go func() {
		f.sched.Advance(DefaultDebounce)
		close(fired)
	}()
	<-started
	applied, err := f.console.Store().Resync(context.Background())
	require.NoError(t, err)
	require.True(t, applied)
	close(release)
	<-fired

	// then the new query is shown from page 1
	assert.Equal(t, Query{Text: "Item"}, f.console.Store().Query())
	assert.Equal(t, 1, f.console.Pager().Current())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.loads.WithLabelValues(loadStale)))
}

func TestFailedQueryLoadKeepsPage(t *testing.T) {
	// given
	f := newFixture(t, 5)
	f.load(t, numbered(12))
	require.NoError(t, f.console.Pager().GoTo(2))
	f.svc.On("List", anyCtx, "x", "").Return(nil, errFetch).Once()

	// when
	f.console.Coordinator().SetQuery("x")
	f.sched.Advance(DefaultDebounce)

	// then
	assert.Equal(t, 2, f.console.Pager().Current())
	assert.Len(t, f.console.Store().Snapshot(), 12)
}

// leakyScheduler never stops a timer, as if every callback had already begun
// firing when it was superseded.
type leakyScheduler struct {
	mu    sync.Mutex
	funcs []func()
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (s *leakyScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs = append(s.funcs, f)
	return leakyTimer{}
}

func (s *leakyScheduler) fireAll() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

func TestSupersededCallbackIsNoop(t *testing.T) {
	// given
	f := newFixture(t, 10)
	sched := &leakyScheduler{}
	pager := NewPager(10)
	q := NewCoordinator(context.Background(), f.console.Store(), pager, sched, DefaultDebounce, nil)
	f.onList("third", "", numbered(1)).Once()

	// when
	q.SetQuery("first")
	q.SetQuery("second")
	q.SetQuery("third")
	sched.fireAll()

	// then
	f.svc.AssertNumberOfCalls(t, "List", 1)
	f.svc.AssertExpectations(t)
}

func TestRefreshLoadsImmediatelyAndDropsPendingChange(t *testing.T) {
	// given
	f := newFixture(t, 10)
	q := f.console.Coordinator()
	q.SetQuery("wid")
	f.onList("wid", "", numbered(2)).Once()

	// when
	err := q.Refresh(context.Background())
	f.sched.Advance(DefaultDebounce)

	// then
	require.NoError(t, err)
	f.svc.AssertNumberOfCalls(t, "List", 1)
	assert.Len(t, f.console.Store().Snapshot(), 2)
}
