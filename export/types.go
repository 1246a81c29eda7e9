package export

import (
	"context"
	"time"
)

// Row is a keyed dataset record. Nested values are addressed with dot paths.
type Row map[string]any

// Field pairs a data field path with its display header label.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Mapping is the ordered list of exported fields; its order defines column order.
type Mapping []Field

// Keys returns the field keys in column order.
func (m Mapping) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

// Labels returns the header labels in column order.
func (m Mapping) Labels() []string {
	labels := make([]string, len(m))
	for i, f := range m {
		labels[i] = f.Label
	}
	return labels
}

// MappingFromPairs builds a mapping from alternating key/label strings.
func MappingFromPairs(pairs ...string) Mapping {
	mapping := make(Mapping, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		mapping = append(mapping, Field{Key: pairs[i], Label: pairs[i+1]})
	}
	return mapping
}

// ColumnMergeRule groups header columns [Start..End] under Label.
// Start and End are column letters or mapping keys.
type ColumnMergeRule struct {
	Start     string `json:"start" yaml:"start"`
	End       string `json:"end" yaml:"end"`
	Label     string `json:"label" yaml:"label"`
	ShiftDown bool   `json:"shiftDown" yaml:"shiftDown"`
}

// RowMergeRule collapses vertical runs of equal values in one column.
// Column takes precedence over Field when both are set.
type RowMergeRule struct {
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	Field  string `json:"field,omitempty" yaml:"field,omitempty"`
}

// MetaSettings are written to the workbook document properties.
type MetaSettings struct {
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Subject     string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ExportState is threaded through the export stages.
type ExportState struct {
	// HeaderRowIndex is the row acting as the primary header row.
	HeaderRowIndex int
	// FirstDataRow is the first row written by this call.
	FirstDataRow   int
	LastRow        int
	RowsWritten    int64
	Columns        int
	HeadersWritten bool
	Appended       bool
}

// DataStartRow is the first row below the header block.
func (s ExportState) DataStartRow() int {
	return s.HeaderRowIndex + 1
}

// Result describes a completed file export.
type Result struct {
	Filename      string
	Valid         bool
	ValidationErr error
	State         ExportState
	Duration      time.Duration
}

// RowIterator streams dataset items. Next returns io.EOF when exhausted.
type RowIterator interface {
	Next(ctx context.Context) (any, error)
	Close() error
}

// RowsConverter is implemented by collections that can convert themselves to items.
type RowsConverter interface {
	ToRows() ([]any, error)
}

// CellRange addresses a rectangular block of cells using 1-based coordinates.
type CellRange struct {
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// Sheet is the grid collaborator mutated by the engine.
type Sheet interface {
	SetCellValue(col, row int, value any) error
	CellValue(col, row int) (any, error)
	MergeCells(r CellRange) error
	InsertRowBefore(row int) error
	HighestRow() (int, error)
	SetBold(r CellRange) error
	FreezePane(col, row int) error
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
