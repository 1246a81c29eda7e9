package export

import (
	"context"
	"io"
	"reflect"
)

// writeHeaders emits the header row and optional sub-header row and returns the
// resulting header row index.
func writeHeaders(sheet Sheet, p *plan) (ExportState, error) {
	state := ExportState{HeaderRowIndex: 1, Columns: len(p.columns)}
	for _, col := range p.columns {
		if err := sheet.SetCellValue(col.Number, 1, col.Label); err != nil {
			return state, err
		}
		sub, ok := p.subHeaders[col.Label]
		if !ok {
			continue
		}
		if err := sheet.SetCellValue(col.Number, 2, sub); err != nil {
			return state, err
		}
		state.HeaderRowIndex = 2
	}
	state.HeadersWritten = true
	state.LastRow = state.HeaderRowIndex

	if len(p.columns) > 0 {
		if err := sheet.SetBold(CellRange{StartCol: 1, StartRow: 1, EndCol: len(p.columns), EndRow: state.HeaderRowIndex}); err != nil {
			return state, err
		}
	}
	if p.freezeHeader {
		if err := sheet.FreezePane(1, state.HeaderRowIndex+1); err != nil {
			return state, err
		}
	}
	return state, nil
}

// writeRows streams items in batches of p.chunkSize starting at startRow.
// Output row order always follows dataset order.
func writeRows(ctx context.Context, sheet Sheet, p *plan, rows RowIterator, state ExportState, startRow int, logger Logger) (ExportState, error) {
	state.FirstDataRow = startRow
	rowIndex := startRow
	batch := make([]any, 0, p.chunkSize)
	for {
		var err error
		batch, err = nextBatch(ctx, rows, batch, p.chunkSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return state, NewError(KindFromError(err), "read dataset", err)
		}
		for i, item := range batch {
			if err := writeItem(sheet, p, item, rowIndex); err != nil {
				return state, err
			}
			batch[i] = nil
			rowIndex++
			state.RowsWritten++
		}
		logger.Debugf("wrote batch of %d rows, next row %d", len(batch), rowIndex)
		if err := ctx.Err(); err != nil {
			return state, NewError(KindCanceled, "export canceled", err)
		}
	}
	if rowIndex-1 > state.LastRow {
		state.LastRow = rowIndex - 1
	}
	return state, nil
}

func writeItem(sheet Sheet, p *plan, item any, row int) error {
	for _, col := range p.columns {
		value := Resolve(item, col.Key)
		value = p.formatters.Format(col.Key, value, item)
		if err := sheet.SetCellValue(col.Number, row, cellValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// applyColumnMerges groups header columns. The first shift-down rule inserts a
// group row above the header row; later shift-down rules reuse it.
func applyColumnMerges(sheet Sheet, p *plan, state ExportState) (ExportState, error) {
	if len(p.columnMerges) == 0 {
		return state, nil
	}

	shifted := false
	groupRow := 0
	covered := map[int]bool{}
	for _, rule := range p.columnMerges {
		if !rule.shiftDown {
			r := CellRange{StartCol: rule.start, StartRow: state.HeaderRowIndex, EndCol: rule.end, EndRow: state.HeaderRowIndex}
			if err := sheet.MergeCells(r); err != nil {
				return state, err
			}
			if err := sheet.SetCellValue(rule.start, state.HeaderRowIndex, rule.label); err != nil {
				return state, err
			}
			continue
		}

		if !shifted {
			if err := sheet.InsertRowBefore(state.HeaderRowIndex); err != nil {
				return state, err
			}
			groupRow = state.HeaderRowIndex
			state.HeaderRowIndex++
			if state.FirstDataRow >= groupRow {
				state.FirstDataRow++
			}
			state.LastRow++
			shifted = true
		}
		if err := sheet.SetCellValue(rule.start, groupRow, rule.label); err != nil {
			return state, err
		}
		if err := sheet.MergeCells(CellRange{StartCol: rule.start, StartRow: groupRow, EndCol: rule.end, EndRow: groupRow}); err != nil {
			return state, err
		}
		for c := rule.start; c <= rule.end; c++ {
			covered[c] = true
		}
	}

	if !shifted {
		return state, nil
	}

	for _, col := range p.columns {
		if covered[col.Number] {
			continue
		}
		label, err := sheet.CellValue(col.Number, state.HeaderRowIndex)
		if err != nil {
			return state, err
		}
		if label != nil {
			if err := sheet.SetCellValue(col.Number, groupRow, label); err != nil {
				return state, err
			}
		}
		if err := sheet.MergeCells(CellRange{StartCol: col.Number, StartRow: groupRow, EndCol: col.Number, EndRow: state.HeaderRowIndex}); err != nil {
			return state, err
		}
	}
	if len(p.columns) > 0 {
		if err := sheet.SetBold(CellRange{StartCol: 1, StartRow: groupRow, EndCol: len(p.columns), EndRow: groupRow}); err != nil {
			return state, err
		}
	}
	if p.freezeHeader {
		if err := sheet.FreezePane(1, state.HeaderRowIndex+1); err != nil {
			return state, err
		}
	}
	return state, nil
}

// applyRowMerges merges vertical runs of equal values below the header block.
func applyRowMerges(sheet Sheet, p *plan, state ExportState) error {
	if len(p.rowMerges) == 0 {
		return nil
	}
	lastRow, err := sheet.HighestRow()
	if err != nil {
		return err
	}
	for _, col := range p.rowMerges {
		if err := mergeRuns(sheet, col, state.DataStartRow(), lastRow); err != nil {
			return err
		}
	}
	return nil
}

// mergeRuns merges every run of two or more equal, non-empty values in col
// between rows from and to inclusive.
func mergeRuns(sheet Sheet, col, from, to int) error {
	if to <= from {
		return nil
	}
	current, err := sheet.CellValue(col, from)
	if err != nil {
		return err
	}
	runStart := from
	for row := from + 1; row <= to; row++ {
		value, err := sheet.CellValue(col, row)
		if err != nil {
			return err
		}
		if sameCellValue(value, current) {
			continue
		}
		if err := mergeRun(sheet, col, runStart, row-1, current); err != nil {
			return err
		}
		current = value
		runStart = row
	}
	return mergeRun(sheet, col, runStart, to, current)
}

func mergeRun(sheet Sheet, col, start, end int, value any) error {
	if end <= start || value == nil {
		return nil
	}
	return sheet.MergeCells(CellRange{StartCol: col, StartRow: start, EndCol: col, EndRow: end})
}

// sameCellValue is exact equality: values of different types never match.
func sameCellValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
