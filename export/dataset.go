package export

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
)

const defaultChunkSize = 1000

// NewSliceIterator streams items from an in-memory slice.
func NewSliceIterator(items []any) RowIterator {
	return &sliceIterator{items: items}
}

type sliceIterator struct {
	items []any
	index int
}

func (it *sliceIterator) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.index >= len(it.items) {
		return nil, io.EOF
	}
	item := it.items[it.index]
	it.items[it.index] = nil
	it.index++
	return item, nil
}

func (it *sliceIterator) Close() error { return nil }

// openDataset coerces supported dataset shapes into a RowIterator.
func openDataset(data any) (RowIterator, error) {
	switch v := data.(type) {
	case nil:
		return NewSliceIterator(nil), nil
	case RowIterator:
		return v, nil
	case RowsConverter:
		items, err := v.ToRows()
		if err != nil {
			return nil, NewError(KindInternal, "convert dataset to rows", err)
		}
		return NewSliceIterator(items), nil
	case []any:
		return NewSliceIterator(append([]any(nil), v...)), nil
	case []Row:
		items := make([]any, len(v))
		for i, row := range v {
			items[i] = row
		}
		return NewSliceIterator(items), nil
	case []map[string]any:
		items := make([]any, len(v))
		for i, row := range v {
			items[i] = row
		}
		return NewSliceIterator(items), nil
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return NewSliceIterator(items), nil
	}
	return nil, NewError(KindValidation, fmt.Sprintf("unsupported dataset type %T", data), nil)
}

// nextBatch pulls up to size items. It returns io.EOF only with an empty batch.
func nextBatch(ctx context.Context, rows RowIterator, buf []any, size int) ([]any, error) {
	buf = buf[:0]
	for len(buf) < size {
		item, err := rows.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return buf, err
		}
		buf = append(buf, item)
	}
	if len(buf) == 0 {
		return buf, io.EOF
	}
	return buf, nil
}

// firstItemKeys returns the keys of the first map-like item, used to derive a default mapping.
func firstItemKeys(data any) []string {
	var first any
	switch v := data.(type) {
	case []any:
		if len(v) > 0 {
			first = v[0]
		}
	case []Row:
		if len(v) > 0 {
			first = v[0]
		}
	case []map[string]any:
		if len(v) > 0 {
			first = v[0]
		}
	default:
		rv := reflect.ValueOf(data)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() > 0 {
			first = rv.Index(0).Interface()
		}
	}
	return itemKeys(first)
}

func itemKeys(item any) []string {
	switch v := item.(type) {
	case Row:
		return sortedKeys(v)
	case map[string]any:
		return sortedKeys(v)
	}
	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	keys := []string{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := tagName(sf, "flexcell")
		if name == "" {
			name = tagName(sf, "json")
		}
		if name == "" {
			name = sf.Name
		}
		keys = append(keys, name)
	}
	return keys
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
