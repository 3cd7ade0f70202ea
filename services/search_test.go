package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCalls struct {
	list   atomic.Int32
	search atomic.Int32
}

func newTestSearcher(calls *searchCalls, after func(time.Duration) <-chan time.Time) *Searcher[string] {
	s := NewSearcher(
		func(context.Context) ([]string, error) {
			calls.list.Add(1)
			return []string{"all"}, nil
		},
		func(_ context.Context, q string) ([]string, error) {
			calls.search.Add(1)
			return []string{"hit:" + q}, nil
		},
		300*time.Millisecond, 2,
	)
	s.after = after
	return s
}

func TestSearcher_ShortQueryReturnsUnfilteredSet(t *testing.T) {
	calls := &searchCalls{}
	s := newTestSearcher(calls, func(time.Duration) <-chan time.Time {
		t.Fatal("short queries must not wait")
		return nil
	})

	for _, q := range []string{"", "   ", "a"} {
		res, err := s.Query(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, []string{"all"}, res)
	}
	assert.Zero(t, calls.search.Load())
}

func TestSearcher_DebouncesBeforeSearching(t *testing.T) {
	calls := &searchCalls{}
	var waited time.Duration
	s := newTestSearcher(calls, func(d time.Duration) <-chan time.Time {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	})

	res, err := s.Query(context.Background(), " cl ")
	require.NoError(t, err)
	assert.Equal(t, []string{"hit:cl"}, res)
	assert.Equal(t, 300*time.Millisecond, waited)
	assert.EqualValues(t, 1, calls.search.Load())
}

func TestSearcher_LatestQueryWins(t *testing.T) {
	calls := &searchCalls{}
	release := make(chan time.Time)
	waiting := make(chan struct{})
	var n atomic.Int32
	s := newTestSearcher(calls, func(time.Duration) <-chan time.Time {
		if n.Add(1) == 1 {
			close(waiting)
			return release
		}
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	})

	first := make(chan error, 1)
	go func() {
		_, err := s.Query(context.Background(), "pe")
		first <- err
	}()
	<-waiting

	res, err := s.Query(context.Background(), "peu")
	require.NoError(t, err)
	assert.Equal(t, []string{"hit:peu"}, res)

	close(release)
	assert.True(t, errors.Is(<-first, ErrSuperseded))
	assert.EqualValues(t, 1, calls.search.Load())
}

func TestSearcher_ContextCancelled(t *testing.T) {
	calls := &searchCalls{}
	s := newTestSearcher(calls, func(time.Duration) <-chan time.Time { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Query(ctx, "peugeot")
	assert.ErrorIs(t, err, context.Canceled)
}
