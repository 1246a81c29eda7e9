package export

// ColumnInfo is one exported column as laid out on the sheet.
type ColumnInfo struct {
	Letter    string `json:"letter"`
	Key       string `json:"key"`
	Label     string `json:"label"`
	SubHeader string `json:"sub_header,omitempty"`
	Formatter string `json:"formatter"`
}

// ColumnMergeInfo is a resolved column merge rule.
type ColumnMergeInfo struct {
	Range     string `json:"range"`
	Label     string `json:"label"`
	ShiftDown bool   `json:"shift_down"`
}

// LayoutInfo summarizes what an export would produce without writing anything.
type LayoutInfo struct {
	Columns         []ColumnInfo      `json:"columns"`
	ColumnMerges    []ColumnMergeInfo `json:"column_merges,omitempty"`
	RowMergeColumns []string          `json:"row_merge_columns,omitempty"`
	HeaderRows      int               `json:"header_rows"`
	SheetName       string            `json:"sheet_name"`
	ChunkSize       int               `json:"chunk_size"`
}

// Describe validates the configuration and reports the resolved layout.
// HeaderRows assumes a fresh sheet; appends never write headers.
func (e *Exporter) Describe() (LayoutInfo, error) {
	p, err := e.compile()
	if err != nil {
		return LayoutInfo{}, err
	}

	info := LayoutInfo{
		HeaderRows: 1,
		SheetName:  p.sheetName,
		ChunkSize:  p.chunkSize,
	}
	if info.SheetName == "" {
		info.SheetName = defaultSheetName
	}
	for _, col := range p.columns {
		letter, _ := p.index.Letter(col.Key)
		ci := ColumnInfo{
			Letter:    letter,
			Key:       col.Key,
			Label:     col.Label,
			Formatter: p.formatters.Kind(col.Key),
		}
		if sub, ok := p.subHeaders[col.Label]; ok {
			ci.SubHeader = sub
			info.HeaderRows = 2
		}
		info.Columns = append(info.Columns, ci)
	}

	shifted := false
	for _, m := range p.columnMerges {
		info.ColumnMerges = append(info.ColumnMerges, ColumnMergeInfo{
			Range:     letterOf(m.start) + ":" + letterOf(m.end),
			Label:     m.label,
			ShiftDown: m.shiftDown,
		})
		shifted = shifted || m.shiftDown
	}
	if shifted {
		info.HeaderRows++
	}
	for _, n := range p.rowMerges {
		info.RowMergeColumns = append(info.RowMergeColumns, letterOf(n))
	}
	return info, nil
}

// letterOf is only called with compiled, positive column numbers.
func letterOf(n int) string {
	letter, _ := ColumnLetter(n)
	return letter
}
