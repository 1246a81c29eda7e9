package export

import (
	"context"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Exporter collects layout directives and writes a dataset onto a sheet.
// Setters return the exporter for chaining; configuration errors surface from
// Validate and the Export methods before any cell is written.
type Exporter struct {
	data           any
	headers        []string
	subHeaders     map[string]string
	mapping        Mapping
	hiddens        []string
	formatters     map[string]any
	formatterTypes *FormatterTypes
	attributeHost  any
	columnRules    []ColumnMergeRule
	rowRules       []RowMergeRule
	meta           MetaSettings
	chunkSize      int
	appendMode     bool
	skipUnlisted   bool
	freezeHeader   bool
	sheetName      string
	logger         Logger
	now            func() time.Time
}

// New creates an exporter with default settings.
func New() *Exporter {
	return &Exporter{
		subHeaders:     map[string]string{},
		formatters:     map[string]any{},
		formatterTypes: DefaultFormatterTypes(),
		chunkSize:      defaultChunkSize,
		freezeHeader:   true,
		logger:         NopLogger{},
		now:            time.Now,
	}
}

// SetData sets the dataset: a slice of items, a RowsConverter or a RowIterator.
func (e *Exporter) SetData(data any) *Exporter {
	e.data = data
	return e
}

// SetHeaders sets the declared header labels. Defaults to the mapping labels.
func (e *Exporter) SetHeaders(headers []string) *Exporter {
	e.headers = append([]string(nil), headers...)
	return e
}

// SetSubHeaders sets secondary labels, rendered on row 2, keyed by header label.
func (e *Exporter) SetSubHeaders(subHeaders map[string]string) *Exporter {
	e.subHeaders = make(map[string]string, len(subHeaders))
	for label, sub := range subHeaders {
		e.subHeaders[label] = sub
	}
	return e
}

// SetMapping sets the ordered field to label mapping.
func (e *Exporter) SetMapping(mapping Mapping) *Exporter {
	e.mapping = append(Mapping(nil), mapping...)
	return e
}

// SetHiddens sets header labels excluded from the output.
func (e *Exporter) SetHiddens(hiddens []string) *Exporter {
	e.hiddens = append([]string(nil), hiddens...)
	return e
}

// SetFormatters registers formatters per mapping key. See FormatterRegistry.Set
// for accepted entry shapes.
func (e *Exporter) SetFormatters(formatters map[string]any) *Exporter {
	for key, f := range formatters {
		e.formatters[key] = f
	}
	return e
}

// SetFormatterTypes replaces the named formatter types used to resolve string entries.
func (e *Exporter) SetFormatterTypes(types *FormatterTypes) *Exporter {
	e.formatterTypes = types
	return e
}

// SetAttributeFormatters sets the host whose Format<Key>Attribute methods act as
// convention formatters.
func (e *Exporter) SetAttributeFormatters(host any) *Exporter {
	e.attributeHost = host
	return e
}

// SetColumnMergeRules sets the header column grouping rules.
func (e *Exporter) SetColumnMergeRules(rules []ColumnMergeRule) *Exporter {
	e.columnRules = append([]ColumnMergeRule(nil), rules...)
	return e
}

// SetRowMergeRules sets the vertical merge rules.
func (e *Exporter) SetRowMergeRules(rules []RowMergeRule) *Exporter {
	e.rowRules = append([]RowMergeRule(nil), rules...)
	return e
}

// MergeRowsOn adds a row merge rule per field key.
func (e *Exporter) MergeRowsOn(fields ...string) *Exporter {
	for _, field := range fields {
		e.rowRules = append(e.rowRules, RowMergeRule{Field: field})
	}
	return e
}

// SetMetaSettings sets workbook document properties.
func (e *Exporter) SetMetaSettings(meta MetaSettings) *Exporter {
	e.meta = meta
	return e
}

// SetChunkSize sets how many dataset items are held in memory at once.
func (e *Exporter) SetChunkSize(size int) *Exporter {
	e.chunkSize = size
	return e
}

// SetAppendMode continues after the last row of an existing sheet without
// re-emitting headers.
func (e *Exporter) SetAppendMode(appendMode bool) *Exporter {
	e.appendMode = appendMode
	return e
}

// SetSkipUnlistedHeaders drops mapped columns whose label is not in the declared headers.
func (e *Exporter) SetSkipUnlistedHeaders(skip bool) *Exporter {
	e.skipUnlisted = skip
	return e
}

// SetFreezeHeader toggles freezing the header rows. Enabled by default.
func (e *Exporter) SetFreezeHeader(freeze bool) *Exporter {
	e.freezeHeader = freeze
	return e
}

// SetSheetName sets the target worksheet name.
func (e *Exporter) SetSheetName(name string) *Exporter {
	e.sheetName = name
	return e
}

// SetLogger sets the logger.
func (e *Exporter) SetLogger(logger Logger) *Exporter {
	if logger == nil {
		logger = NopLogger{}
	}
	e.logger = logger
	return e
}

// Validate compiles the configuration and reports the first configuration error.
func (e *Exporter) Validate() error {
	_, err := e.compile()
	return err
}

// ExportSheet runs the engine against sheet and returns the final state.
func (e *Exporter) ExportSheet(ctx context.Context, sheet Sheet) (ExportState, error) {
	p, err := e.compile()
	if err != nil {
		return ExportState{}, err
	}
	return e.run(ctx, p, sheet)
}

func (e *Exporter) run(ctx context.Context, p *plan, sheet Sheet) (ExportState, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if sheet == nil {
		return ExportState{}, NewError(KindInternal, "sheet is nil", nil)
	}

	rows, err := openDataset(e.data)
	if err != nil {
		return ExportState{}, err
	}
	defer rows.Close()

	highest := 0
	if p.appendMode {
		if highest, err = sheet.HighestRow(); err != nil {
			return ExportState{}, err
		}
	}

	var state ExportState
	startRow := 0
	if p.appendMode && highest > 0 {
		state = ExportState{HeaderRowIndex: 1, Columns: len(p.columns), LastRow: highest, Appended: true}
		startRow = highest + 1
	} else {
		if state, err = writeHeaders(sheet, p); err != nil {
			return state, err
		}
		startRow = state.DataStartRow()
	}
	e.logger.Debugf("header row index %d, first data row %d", state.HeaderRowIndex, startRow)

	if state, err = writeRows(ctx, sheet, p, rows, state, startRow, e.logger); err != nil {
		return state, err
	}

	if state.HeadersWritten {
		if state, err = applyColumnMerges(sheet, p, state); err != nil {
			return state, err
		}
	}
	if err := applyRowMerges(sheet, p, state); err != nil {
		return state, err
	}
	return state, nil
}

// Export writes the dataset to filename and reports whether the written file
// could be parsed back.
func (e *Exporter) Export(ctx context.Context, filename string) (bool, error) {
	result, err := e.ExportFile(ctx, filename)
	if err != nil {
		return false, err
	}
	return result.Valid, nil
}

// ExportFile writes the dataset to filename. Write and re-parse failures are
// reported through Result.Valid and Result.ValidationErr.
func (e *Exporter) ExportFile(ctx context.Context, filename string) (Result, error) {
	started := e.now()
	p, err := e.compile()
	if err != nil {
		return Result{}, err
	}
	if filename == "" {
		return Result{}, configError("filename is required")
	}
	if err := checkTargetExtension(filename); err != nil {
		return Result{}, err
	}

	file, existed, err := openWorkbook(filename, p.appendMode)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = file.Close()
	}()

	state, sheetName, err := e.populate(ctx, p, file, existed)
	if err != nil {
		return Result{}, err
	}

	result := Result{Filename: filename, State: state}
	if err := saveWorkbook(file, filename); err != nil {
		e.logger.Errorf("save %s: %v", filename, err)
		result.ValidationErr = err
	} else if err := validateWorkbook(filename, sheetName); err != nil {
		e.logger.Errorf("validate %s: %v", filename, err)
		result.ValidationErr = err
	} else {
		result.Valid = true
	}
	result.Duration = e.now().Sub(started)
	e.logger.Infof("exported %d rows to %s (valid=%t)", state.RowsWritten, filename, result.Valid)
	return result, nil
}

// ExportTo writes a fresh workbook to w after validating it in memory.
// Append mode does not apply.
func (e *Exporter) ExportTo(ctx context.Context, w io.Writer) (ExportState, int64, error) {
	p, err := e.compile()
	if err != nil {
		return ExportState{}, 0, err
	}
	p.appendMode = false

	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	state, sheetName, err := e.populate(ctx, p, file, false)
	if err != nil {
		return state, 0, err
	}
	n, err := writeWorkbook(file, sheetName, w)
	if err != nil {
		return state, n, err
	}
	e.logger.Infof("streamed %d rows (%d bytes)", state.RowsWritten, n)
	return state, n, nil
}

func (e *Exporter) populate(ctx context.Context, p *plan, file *excelize.File, existed bool) (ExportState, string, error) {
	sheetName, err := prepareSheet(file, p.sheetName, existed)
	if err != nil {
		return ExportState{}, "", err
	}
	sheet, err := NewXLSXSheet(file, sheetName)
	if err != nil {
		return ExportState{}, "", err
	}
	state, err := e.run(ctx, p, sheet)
	if err != nil {
		return state, sheetName, err
	}
	if err := applyMetaSettings(file, p.meta); err != nil {
		return state, sheetName, err
	}
	return state, sheetName, nil
}

// Options configures ExportData.
type Options struct {
	Headers          []string
	Mapping          Mapping
	Formatters       map[string]any
	ColumnMergeRules []ColumnMergeRule
	RowMergeRules    []RowMergeRule
	MergeRowsOn      []string
	Meta             MetaSettings
	Logger           Logger
}

// ExportData is a one-call export. Headers default to the mapping labels and the
// mapping defaults to the keys of the first item.
func ExportData(ctx context.Context, data any, filename string, opts Options) (bool, error) {
	return New().
		SetData(data).
		SetHeaders(opts.Headers).
		SetMapping(opts.Mapping).
		SetFormatters(opts.Formatters).
		SetColumnMergeRules(opts.ColumnMergeRules).
		SetRowMergeRules(opts.RowMergeRules).
		MergeRowsOn(opts.MergeRowsOn...).
		SetMetaSettings(opts.Meta).
		SetLogger(opts.Logger).
		Export(ctx, filename)
}
