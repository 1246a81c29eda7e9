package export

import (
	"fmt"
)

type column struct {
	Key    string
	Label  string
	Number int
}

type columnMerge struct {
	start     int
	end       int
	label     string
	shiftDown bool
}

// plan is the immutable, validated form of an Exporter configuration.
// It is built per export call and discarded afterwards.
type plan struct {
	columns      []column
	index        *ColumnIndex
	subHeaders   map[string]string
	formatters   *FormatterRegistry
	columnMerges []columnMerge
	rowMerges    []int
	chunkSize    int
	appendMode   bool
	freezeHeader bool
	sheetName    string
	meta         MetaSettings
}

func (e *Exporter) compile() (*plan, error) {
	if e.chunkSize <= 0 {
		return nil, configError(fmt.Sprintf("chunk size must be positive, got %d", e.chunkSize))
	}

	mapping := e.mapping
	if len(mapping) == 0 {
		for _, key := range firstItemKeys(e.data) {
			mapping = append(mapping, Field{Key: key, Label: key})
		}
	}
	if len(mapping) == 0 {
		return nil, configError("mapping is required")
	}

	seen := make(map[string]struct{}, len(mapping))
	for _, f := range mapping {
		if f.Key == "" {
			return nil, configError("mapping key is required")
		}
		if _, dup := seen[f.Key]; dup {
			return nil, configError(fmt.Sprintf("duplicate mapping key %q", f.Key))
		}
		seen[f.Key] = struct{}{}
	}

	hidden := toSet(e.hiddens)
	headers := e.headers
	if len(headers) == 0 {
		headers = mapping.Labels()
	}
	listed := toSet(headers)

	p := &plan{
		subHeaders:   e.subHeaders,
		chunkSize:    e.chunkSize,
		appendMode:   e.appendMode,
		freezeHeader: e.freezeHeader,
		sheetName:    e.sheetName,
		meta:         e.meta,
	}
	for _, f := range mapping {
		if _, skip := hidden[f.Label]; skip {
			continue
		}
		if _, ok := listed[f.Label]; e.skipUnlisted && !ok {
			continue
		}
		p.columns = append(p.columns, column{Key: f.Key, Label: f.Label, Number: len(p.columns) + 1})
	}

	keys := make([]string, len(p.columns))
	for i, col := range p.columns {
		keys[i] = col.Key
	}
	p.index = NewColumnIndex(keys)

	for i, rule := range e.columnRules {
		merge, err := p.resolveColumnMerge(rule)
		if err != nil {
			return nil, NewError(KindValidation, fmt.Sprintf("column merge rule %d", i), err)
		}
		p.columnMerges = append(p.columnMerges, merge)
	}

	seenCols := map[int]struct{}{}
	for i, rule := range e.rowRules {
		col, err := p.resolveRowMerge(rule)
		if err != nil {
			return nil, NewError(KindValidation, fmt.Sprintf("row merge rule %d", i), err)
		}
		if _, dup := seenCols[col]; dup {
			continue
		}
		seenCols[col] = struct{}{}
		p.rowMerges = append(p.rowMerges, col)
	}

	p.formatters = NewFormatterRegistry(e.formatterTypes)
	p.formatters.Set(e.formatters)
	p.formatters.BindConventions(e.attributeHost, keys)

	return p, nil
}

func (p *plan) resolveColumnMerge(rule ColumnMergeRule) (columnMerge, error) {
	start, err := p.resolveColumn(rule.Start)
	if err != nil {
		return columnMerge{}, err
	}
	end, err := p.resolveColumn(rule.End)
	if err != nil {
		return columnMerge{}, err
	}
	if start > end {
		return columnMerge{}, configError(fmt.Sprintf("start %q is after end %q", rule.Start, rule.End))
	}
	return columnMerge{start: start, end: end, label: rule.Label, shiftDown: rule.ShiftDown}, nil
}

func (p *plan) resolveRowMerge(rule RowMergeRule) (int, error) {
	switch {
	case rule.Column != "":
		return p.resolveColumn(rule.Column)
	case rule.Field != "":
		n, ok := p.index.Number(rule.Field)
		if !ok {
			return 0, configError(fmt.Sprintf("field %q is not a visible mapped column", rule.Field))
		}
		return n, nil
	default:
		return 0, configError("column or field is required")
	}
}

func (p *plan) resolveColumn(ref string) (int, error) {
	n, err := p.index.resolveColumnRef(ref)
	if err != nil {
		return 0, err
	}
	if n > len(p.columns) {
		return 0, configError(fmt.Sprintf("column %q is outside the %d exported columns", ref, len(p.columns)))
	}
	return n, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
