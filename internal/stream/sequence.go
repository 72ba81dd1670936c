// Package stream provides a lazy, single-pass sequence that pulls elements
// from a backing source in batches and releases the source exactly once.
package stream

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
)

const DefaultBatchSize = 100

// Fetcher returns up to size elements. An empty batch with a nil error marks
// the end of the source.
type Fetcher[T any] func(ctx context.Context, size int) ([]T, error)

type Option func(*options)

type options struct {
	batchSize int
	length    int
}

func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLen sets the total element count reported by Len.
func WithLen(n int) Option {
	return func(o *options) { o.length = n }
}

// Sequence is a forward-only view over a fetched source. It is not safe for
// concurrent use and cannot be restarted.
type Sequence[T any] struct {
	fetch     Fetcher[T]
	release   func() error
	batchSize int
	length    int

	buf  []T
	done bool
	err  error

	closeOnce sync.Once
	closeErr  error
}

func New[T any](fetch Fetcher[T], release func() error, opts ...Option) *Sequence[T] {
	o := options{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sequence[T]{
		fetch:     fetch,
		release:   release,
		batchSize: o.batchSize,
		length:    o.length,
	}
}

// FromSlice serves items from memory. Len reports len(items).
func FromSlice[T any](items []T, opts ...Option) *Sequence[T] {
	rest := items
	fetch := func(_ context.Context, size int) ([]T, error) {
		n := min(size, len(rest))
		batch := rest[:n]
		rest = rest[n:]
		return batch, nil
	}
	opts = append([]Option{WithLen(len(items))}, opts...)
	return New(fetch, nil, opts...)
}

// Len is the total number of elements the source will produce, known before
// the sequence is drained.
func (s *Sequence[T]) Len() int {
	return s.length
}

func (s *Sequence[T]) BatchSize() int {
	return s.batchSize
}

// Err returns the error that terminated the sequence, if any.
func (s *Sequence[T]) Err() error {
	return s.err
}

// Peek returns the next element without consuming it.
func (s *Sequence[T]) Peek(ctx context.Context) (T, bool, error) {
	var zero T
	if err := s.fill(ctx); err != nil {
		return zero, false, err
	}
	if len(s.buf) == 0 {
		return zero, false, nil
	}
	return s.buf[0], true, nil
}

// Next consumes and returns the next element. It returns false once the
// source is exhausted, at which point the source has been released.
func (s *Sequence[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := s.fill(ctx); err != nil {
		return zero, false, err
	}
	if len(s.buf) == 0 {
		return zero, false, nil
	}
	item := s.buf[0]
	s.buf = s.buf[1:]
	return item, true, nil
}

// Close releases the underlying source. It is safe to call more than once;
// only the first call reaches the source.
func (s *Sequence[T]) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.buf = nil
		if s.release != nil {
			s.closeErr = s.release()
		}
	})
	return s.closeErr
}

// ForEach calls fn for every remaining element and always closes the
// sequence before returning.
func (s *Sequence[T]) ForEach(ctx context.Context, fn func(T) error) (err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("ForEach: close: %w", cerr)
		}
	}()
	for {
		item, ok, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(item); err != nil {
			return err
		}
	}
}

// Collect drains the sequence into memory.
func (s *Sequence[T]) Collect(ctx context.Context) ([]T, error) {
	items := make([]T, 0, s.length)
	err := s.ForEach(ctx, func(item T) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// All adapts the sequence to a range-over-func loop. A release error met
// while draining arrives as the last element. Breaking out of the loop
// closes the sequence; a release error from that close is kept in Err.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			item, ok, err := s.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(item, nil) {
				if cerr := s.Close(); cerr != nil && s.err == nil {
					s.err = fmt.Errorf("release: %w", cerr)
				}
				return
			}
		}
	}
}

func (s *Sequence[T]) fill(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	for len(s.buf) == 0 && !s.done {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		batch, err := s.fetch(ctx, s.batchSize)
		if err != nil {
			return s.fail(err)
		}
		if len(batch) == 0 {
			if err := s.Close(); err != nil {
				s.err = fmt.Errorf("release: %w", err)
				return s.err
			}
			return nil
		}
		s.buf = batch
	}
	return nil
}

func (s *Sequence[T]) fail(err error) error {
	s.err = err
	if cerr := s.Close(); cerr != nil {
		s.err = errors.Join(err, fmt.Errorf("release: %w", cerr))
	}
	return s.err
}

// nextBatch hands over whatever is buffered, fetching a new batch if needed.
func (s *Sequence[T]) nextBatch(ctx context.Context) ([]T, error) {
	if err := s.fill(ctx); err != nil {
		return nil, err
	}
	batch := s.buf
	s.buf = nil
	return batch, nil
}

// Map returns a sequence applying fn to each element of s in order. The
// result owns s: closing it closes s. fn may carry state across calls since
// elements arrive strictly in order.
func Map[T, U any](s *Sequence[T], fn func(T) (U, error)) *Sequence[U] {
	fetch := func(ctx context.Context, _ int) ([]U, error) {
		batch, err := s.nextBatch(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]U, 0, len(batch))
		for _, item := range batch {
			u, err := fn(item)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		return out, nil
	}
	return New(fetch, s.Close, WithBatchSize(s.batchSize), WithLen(s.length))
}

// Counted is a row paired with the total row count of its result set, as
// produced by a query selecting count(*) OVER ().
type Counted[T any] struct {
	Item  T
	Total int
}

// Measure peeks the first row of s to learn the total count and returns a
// sequence of the bare items with that length.
func Measure[T any](ctx context.Context, s *Sequence[Counted[T]]) (*Sequence[T], error) {
	first, ok, err := s.Peek(ctx)
	if err != nil {
		return nil, fmt.Errorf("Measure: %w", err)
	}
	total := 0
	if ok {
		total = first.Total
	}
	out := Map(s, func(c Counted[T]) (T, error) { return c.Item, nil })
	out.length = total
	return out, nil
}
