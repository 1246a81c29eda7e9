package export

import (
	"context"
	"errors"
	"testing"

	errorslib "github.com/goliatone/go-errors"
)

func TestAsGoErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		category errorslib.Category
		code     string
	}{
		{NewError(KindValidation, "bad rule", nil), errorslib.CategoryValidation, "validation"},
		{NewError(KindNotFound, "missing", nil), errorslib.CategoryNotFound, "not_found"},
		{NewError(KindNotImpl, "xls", nil), errorslib.CategoryOperation, "not_implemented"},
		{context.Canceled, errorslib.CategoryOperation, "canceled"},
		{context.DeadlineExceeded, errorslib.CategoryOperation, "canceled"},
		{NewError(KindInternal, "boom", nil), errorslib.CategoryInternal, "internal"},
		{errors.New("plain"), errorslib.CategoryInternal, "internal"},
	}

	for _, tc := range cases {
		mapped := AsGoError(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapping for %v", tc.err)
		}
		if mapped.Category != tc.category {
			t.Fatalf("expected category %s, got %s", tc.category, mapped.Category)
		}
		if mapped.TextCode != tc.code {
			t.Fatalf("expected text code %s, got %s", tc.code, mapped.TextCode)
		}
	}
}

func TestExportError_Unwrap(t *testing.T) {
	base := errors.New("disk full")
	err := NewError(KindInternal, "write cell", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to match")
	}
	if err.Error() != "write cell: disk full" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if KindFromError(err) != KindInternal {
		t.Fatalf("expected internal kind")
	}
}
