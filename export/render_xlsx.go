package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	excelMaxRows     = 1048576
	defaultSheetName = "Sheet1"
	contentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// XLSXSheet adapts one excelize worksheet to the Sheet collaborator.
type XLSXSheet struct {
	file   *excelize.File
	name   string
	boldID int
}

// NewXLSXSheet wraps the named worksheet of file.
func NewXLSXSheet(file *excelize.File, name string) (*XLSXSheet, error) {
	if file == nil {
		return nil, NewError(KindInternal, "workbook is nil", nil)
	}
	idx, err := file.GetSheetIndex(name)
	if err != nil {
		return nil, NewError(KindValidation, fmt.Sprintf("invalid sheet name %q", name), err)
	}
	if idx < 0 {
		return nil, NewError(KindNotFound, fmt.Sprintf("sheet %q not found", name), nil)
	}
	return &XLSXSheet{file: file, name: name}, nil
}

// Name returns the worksheet name.
func (s *XLSXSheet) Name() string {
	return s.name
}

func (s *XLSXSheet) SetCellValue(col, row int, value any) error {
	if row > excelMaxRows {
		return NewError(KindValidation, "xlsx row limit exceeded", nil)
	}
	cell, err := cellName(col, row)
	if err != nil {
		return NewError(KindValidation, "invalid cell coordinates", err)
	}
	return sheetError("set cell "+cell, s.file.SetCellValue(s.name, cell, value))
}

// CellValue reads the stored value back with its cell type: numbers as float64,
// booleans as bool, text as string and empty cells as nil.
func (s *XLSXSheet) CellValue(col, row int) (any, error) {
	cell, err := cellName(col, row)
	if err != nil {
		return nil, NewError(KindValidation, "invalid cell coordinates", err)
	}
	raw, err := s.file.GetCellValue(s.name, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sheetError("get cell "+cell, err)
	}
	if raw == "" {
		return nil, nil
	}
	cellType, err := s.file.GetCellType(s.name, cell)
	if err != nil {
		return nil, sheetError("get cell type "+cell, err)
	}
	return decodeCellValue(cellType, raw), nil
}

func decodeCellValue(cellType excelize.CellType, raw string) any {
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if number, err := strconv.ParseFloat(raw, 64); err == nil {
			return number
		}
		return raw
	default:
		return raw
	}
}

func (s *XLSXSheet) MergeCells(r CellRange) error {
	r = r.normalized()
	start, err := cellName(r.StartCol, r.StartRow)
	if err != nil {
		return NewError(KindValidation, "invalid merge range", err)
	}
	end, err := cellName(r.EndCol, r.EndRow)
	if err != nil {
		return NewError(KindValidation, "invalid merge range", err)
	}
	return sheetError("merge "+r.String(), s.file.MergeCell(s.name, start, end))
}

func (s *XLSXSheet) InsertRowBefore(row int) error {
	return sheetError(fmt.Sprintf("insert row %d", row), s.file.InsertRows(s.name, row, 1))
}

// HighestRow returns the last row holding a value or covered by a merge.
// GetRows stops short of cells hidden under a trailing merged run.
func (s *XLSXSheet) HighestRow() (int, error) {
	rows, err := s.file.GetRows(s.name)
	if err != nil {
		return 0, sheetError("read rows", err)
	}
	highest := len(rows)
	merges, err := s.file.GetMergeCells(s.name)
	if err != nil {
		return 0, sheetError("read merges", err)
	}
	for _, m := range merges {
		_, row, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return 0, sheetError("parse merge "+m.GetStartAxis()+":"+m.GetEndAxis(), err)
		}
		if row > highest {
			highest = row
		}
	}
	return highest, nil
}

func (s *XLSXSheet) SetBold(r CellRange) error {
	if s.boldID == 0 {
		styleID, err := s.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return sheetError("create header style", err)
		}
		s.boldID = styleID
	}
	r = r.normalized()
	start, err := cellName(r.StartCol, r.StartRow)
	if err != nil {
		return NewError(KindValidation, "invalid style range", err)
	}
	end, err := cellName(r.EndCol, r.EndRow)
	if err != nil {
		return NewError(KindValidation, "invalid style range", err)
	}
	return sheetError("style "+r.String(), s.file.SetCellStyle(s.name, start, end, s.boldID))
}

// FreezePane keeps everything above row and left of col visible while scrolling.
func (s *XLSXSheet) FreezePane(col, row int) error {
	topLeft, err := cellName(col, row)
	if err != nil {
		return NewError(KindValidation, "invalid freeze cell", err)
	}
	activePane := "bottomLeft"
	switch {
	case col > 1 && row > 1:
		activePane = "bottomRight"
	case col > 1:
		activePane = "topRight"
	}
	return sheetError("freeze panes", s.file.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		XSplit:      col - 1,
		YSplit:      row - 1,
		TopLeftCell: topLeft,
		ActivePane:  activePane,
	}))
}

// openWorkbook returns a fresh workbook, or the existing file when appending.
func openWorkbook(filename string, appendMode bool) (*excelize.File, bool, error) {
	if appendMode && filename != "" {
		if _, err := os.Stat(filename); err == nil {
			file, err := excelize.OpenFile(filename)
			if err != nil {
				return nil, false, NewError(KindInternal, "open workbook for append", err)
			}
			return file, true, nil
		}
	}
	return excelize.NewFile(), false, nil
}

// prepareSheet resolves the target worksheet, renaming the default sheet of a
// new workbook or creating a missing sheet in an existing one.
func prepareSheet(file *excelize.File, sheetName string, existing bool) (string, error) {
	defaultSheet := file.GetSheetName(0)
	if sheetName == "" {
		if existing && defaultSheet != "" {
			return defaultSheet, nil
		}
		sheetName = defaultSheetName
	}
	idx, err := file.GetSheetIndex(sheetName)
	if err != nil {
		return "", NewError(KindValidation, fmt.Sprintf("invalid sheet name %q", sheetName), err)
	}
	if idx >= 0 {
		return sheetName, nil
	}
	if !existing && defaultSheet != "" {
		file.SetSheetName(defaultSheet, sheetName)
		if idx, err := file.GetSheetIndex(sheetName); err != nil || idx < 0 {
			return "", NewError(KindValidation, fmt.Sprintf("invalid sheet name %q", sheetName), err)
		}
		return sheetName, nil
	}
	if _, err := file.NewSheet(sheetName); err != nil {
		return "", NewError(KindValidation, fmt.Sprintf("invalid sheet name %q", sheetName), err)
	}
	return sheetName, nil
}

func applyMetaSettings(file *excelize.File, meta MetaSettings) error {
	if meta == (MetaSettings{}) {
		return nil
	}
	return sheetError("set document properties", file.SetDocProps(&excelize.DocProperties{
		Creator:     meta.Author,
		Title:       meta.Title,
		Subject:     meta.Subject,
		Description: meta.Description,
		Keywords:    meta.Keywords,
	}))
}

// LegacyFormatMessage is the error text for .xls targets across every surface.
const LegacyFormatMessage = "legacy .xls output is not supported; use .xlsx"

func checkTargetExtension(filename string) error {
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		return configError(LegacyFormatMessage)
	}
	return nil
}

// saveWorkbook writes to a temp file next to filename and renames it into place.
func saveWorkbook(file *excelize.File, filename string) error {
	if err := checkTargetExtension(filename); err != nil {
		return err
	}
	dir := filepath.Dir(filename)
	tmpPath := filepath.Join(dir, "."+filepath.Base(filename)+"."+uuid.NewString()+".tmp")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return NewError(KindInternal, "create temp workbook", err)
	}
	if _, err := file.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return NewError(KindInternal, "write workbook", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return NewError(KindInternal, "close workbook", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		_ = os.Remove(tmpPath)
		return NewError(KindInternal, "move workbook into place", err)
	}
	return nil
}

// validateWorkbook re-parses a written file and reads the target sheet.
func validateWorkbook(filename, sheetName string) error {
	file, err := excelize.OpenFile(filename)
	if err != nil {
		return NewError(KindInternal, "re-open workbook", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return validateSheet(file, sheetName)
}

func validateBytes(data []byte, sheetName string) error {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return NewError(KindInternal, "re-open workbook", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return validateSheet(file, sheetName)
}

func validateSheet(file *excelize.File, sheetName string) error {
	idx, err := file.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return NewError(KindInternal, fmt.Sprintf("sheet %q missing after write", sheetName), err)
	}
	if _, err := file.GetRows(sheetName); err != nil {
		return NewError(KindInternal, "read back rows", err)
	}
	return nil
}

func writeWorkbook(file *excelize.File, sheetName string, w io.Writer) (int64, error) {
	buf := &bytes.Buffer{}
	if _, err := file.WriteTo(buf); err != nil {
		return 0, NewError(KindInternal, "write workbook", err)
	}
	if err := validateBytes(buf.Bytes(), sheetName); err != nil {
		return 0, err
	}
	n, err := io.Copy(w, buf)
	if err != nil {
		return n, NewError(KindInternal, "copy workbook", err)
	}
	return n, nil
}

// ContentType is the MIME type of produced workbooks.
func ContentType() string {
	return contentTypeXLSX
}
