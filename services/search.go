package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrSuperseded is returned to a query overtaken by a newer one.
var ErrSuperseded = errors.New("search superseded by a newer query")

// Searcher debounces free-text search over one resource. Queries shorter than
// minChars return the unfiltered set without a search request; longer ones
// wait for the debounce window and only the latest query is answered.
type Searcher[T any] struct {
	list     func(ctx context.Context) ([]T, error)
	search   func(ctx context.Context, query string) ([]T, error)
	debounce time.Duration
	minChars int
	after    func(time.Duration) <-chan time.Time

	mu  sync.Mutex
	seq uint64
}

func NewSearcher[T any](
	list func(ctx context.Context) ([]T, error),
	search func(ctx context.Context, query string) ([]T, error),
	debounce time.Duration,
	minChars int,
) *Searcher[T] {
	if minChars < 1 {
		minChars = 1
	}
	return &Searcher[T]{list: list, search: search, debounce: debounce, minChars: minChars, after: time.After}
}

func (s *Searcher[T]) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Searcher[T]) latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == seq
}

func (s *Searcher[T]) Query(ctx context.Context, query string) ([]T, error) {
	query = strings.TrimSpace(query)
	seq := s.next()
	if utf8.RuneCountInString(query) < s.minChars {
		return s.list(ctx)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.after(s.debounce):
	}
	if !s.latest(seq) {
		return nil, ErrSuperseded
	}
	res, err := s.search(ctx, query)
	if !s.latest(seq) {
		return nil, ErrSuperseded
	}
	return res, err
}
