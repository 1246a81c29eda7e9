package command

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-flexcell/export"
	"github.com/goliatone/go-flexcell/layout"
)

// ExportSheet writes a dataset to a workbook file using a layout.
type ExportSheet struct {
	Filename string
	Layout   layout.Config
	Data     any
	Result   *export.Result
}

func (ExportSheet) Type() string { return "flexcell:export" }

func (msg ExportSheet) Validate() error {
	if strings.TrimSpace(msg.Filename) == "" {
		return errors.New("filename is required", errors.CategoryValidation).
			WithTextCode("FILENAME_REQUIRED")
	}
	if strings.EqualFold(filepath.Ext(msg.Filename), ".xls") {
		return errors.New(export.LegacyFormatMessage, errors.CategoryValidation).
			WithTextCode("FORMAT_UNSUPPORTED")
	}
	if err := msg.Layout.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "layout is invalid").
			WithTextCode("LAYOUT_INVALID")
	}
	return nil
}

// PreviewSheet renders a dataset onto an in-memory grid.
type PreviewSheet struct {
	Layout layout.Config
	Data   any
	Grid   *export.Grid
}

func (PreviewSheet) Type() string { return "flexcell:preview" }

func (msg PreviewSheet) Validate() error {
	if err := msg.Layout.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "layout is invalid").
			WithTextCode("LAYOUT_INVALID")
	}
	return nil
}
