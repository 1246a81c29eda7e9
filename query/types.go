package query

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-flexcell/layout"
)

// DescribeLayout requests the resolved column layout for a layout file.
// Sample rows are only used when the layout has no mapping.
type DescribeLayout struct {
	Layout layout.Config
	Sample any
}

func (DescribeLayout) Type() string { return "flexcell:describe" }

func (msg DescribeLayout) Validate() error {
	if err := msg.Layout.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "layout is invalid").
			WithTextCode("LAYOUT_INVALID")
	}
	return nil
}

// FormatterNames lists the named formatter types a layout may reference.
type FormatterNames struct{}

func (FormatterNames) Type() string { return "flexcell:formatters" }
