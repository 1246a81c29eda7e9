package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-flexcell/export"
	"github.com/goliatone/go-flexcell/layout"
)

// ExportSheetHandler handles ExportSheet messages.
type ExportSheetHandler struct {
	Logger         export.Logger
	FormatterTypes *export.FormatterTypes
	AttributeHost  any
}

func NewExportSheetHandler(logger export.Logger) *ExportSheetHandler {
	return &ExportSheetHandler{Logger: logger}
}

func (h *ExportSheetHandler) exporter(cfg layout.Config, data any) *export.Exporter {
	e := export.New()
	if h != nil {
		e.SetLogger(h.Logger)
		if h.FormatterTypes != nil {
			e.SetFormatterTypes(h.FormatterTypes)
		}
		if h.AttributeHost != nil {
			e.SetAttributeFormatters(h.AttributeHost)
		}
	}
	return cfg.Apply(e).SetData(data)
}

func (h *ExportSheetHandler) Execute(ctx context.Context, msg ExportSheet) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	result, err := h.exporter(msg.Layout, msg.Data).ExportFile(ctx, msg.Filename)
	if err != nil {
		return export.AsGoError(err)
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	if res := gcmd.ResultFromContext[export.Result](ctx); res != nil {
		res.Store(result)
	}
	if !result.Valid {
		return errors.Wrap(result.ValidationErr, errors.CategoryInternal, "written workbook failed validation").
			WithTextCode("EXPORT_INVALID")
	}
	return nil
}

// PreviewSheetHandler renders PreviewSheet messages onto a Grid.
type PreviewSheetHandler struct {
	Export *ExportSheetHandler
}

func NewPreviewSheetHandler(exporter *ExportSheetHandler) *PreviewSheetHandler {
	return &PreviewSheetHandler{Export: exporter}
}

func (h *PreviewSheetHandler) Execute(ctx context.Context, msg PreviewSheet) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	grid := msg.Grid
	if grid == nil {
		grid = export.NewGrid()
	}
	var base *ExportSheetHandler
	if h != nil {
		base = h.Export
	}
	state, err := base.exporter(msg.Layout, msg.Data).ExportSheet(ctx, grid)
	if err != nil {
		return export.AsGoError(err)
	}
	if res := gcmd.ResultFromContext[*export.Grid](ctx); res != nil {
		res.Store(grid)
	}
	if res := gcmd.ResultFromContext[export.ExportState](ctx); res != nil {
		res.Store(state)
	}
	return nil
}
