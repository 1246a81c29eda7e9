package query

import (
	"context"

	"github.com/goliatone/go-flexcell/export"
)

// DescribeLayoutHandler resolves a layout without writing a sheet.
type DescribeLayoutHandler struct {
	FormatterTypes *export.FormatterTypes
	AttributeHost  any
}

func NewDescribeLayoutHandler(types *export.FormatterTypes) *DescribeLayoutHandler {
	return &DescribeLayoutHandler{FormatterTypes: types}
}

func (h *DescribeLayoutHandler) Query(ctx context.Context, msg DescribeLayout) (export.LayoutInfo, error) {
	if err := ctx.Err(); err != nil {
		return export.LayoutInfo{}, export.AsGoError(export.NewError(export.KindCanceled, "describe canceled", err))
	}
	if err := msg.Validate(); err != nil {
		return export.LayoutInfo{}, err
	}
	e := export.New()
	if h != nil {
		if h.FormatterTypes != nil {
			e.SetFormatterTypes(h.FormatterTypes)
		}
		if h.AttributeHost != nil {
			e.SetAttributeFormatters(h.AttributeHost)
		}
	}
	info, err := msg.Layout.Apply(e).SetData(msg.Sample).Describe()
	if err != nil {
		return export.LayoutInfo{}, export.AsGoError(err)
	}
	return info, nil
}

// FormatterNamesHandler lists registered formatter type names.
type FormatterNamesHandler struct {
	FormatterTypes *export.FormatterTypes
}

func NewFormatterNamesHandler(types *export.FormatterTypes) *FormatterNamesHandler {
	return &FormatterNamesHandler{FormatterTypes: types}
}

func (h *FormatterNamesHandler) Query(ctx context.Context, _ FormatterNames) ([]string, error) {
	if h == nil || h.FormatterTypes == nil {
		return export.DefaultFormatterTypes().Names(), nil
	}
	return h.FormatterTypes.Names(), nil
}
