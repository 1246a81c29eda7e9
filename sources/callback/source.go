package exportcallback

import (
	"context"
	"io"

	"github.com/goliatone/go-flexcell/export"
)

// SourceFunc builds a RowIterator on demand.
type SourceFunc func(ctx context.Context) (export.RowIterator, error)

// Source wraps a callback function as a dataset source.
type Source struct {
	fn SourceFunc
}

// NewSource creates a callback-based source.
func NewSource(fn SourceFunc) *Source {
	return &Source{fn: fn}
}

// Open delegates to the configured callback.
func (s *Source) Open(ctx context.Context) (export.RowIterator, error) {
	if s == nil || s.fn == nil {
		return nil, export.NewError(export.KindValidation, "callback source requires a function", nil)
	}
	return s.fn(ctx)
}

// IteratorFunc yields an item or io.EOF.
type IteratorFunc func(ctx context.Context) (any, error)

// FuncIterator wraps a function into a RowIterator.
type FuncIterator struct {
	NextFunc  IteratorFunc
	CloseFunc func() error
}

func (it *FuncIterator) Next(ctx context.Context) (any, error) {
	if it == nil || it.NextFunc == nil {
		return nil, export.NewError(export.KindValidation, "iterator requires NextFunc", nil)
	}
	return it.NextFunc(ctx)
}

func (it *FuncIterator) Close() error {
	if it == nil || it.CloseFunc == nil {
		return nil
	}
	return it.CloseFunc()
}

// Generate returns an iterator producing n items from fn, indexed from zero.
func Generate(n int, fn func(i int) any) *FuncIterator {
	i := 0
	return &FuncIterator{NextFunc: func(ctx context.Context) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i >= n {
			return nil, io.EOF
		}
		item := fn(i)
		i++
		return item, nil
	}}
}
