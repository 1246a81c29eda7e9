package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ColumnIndex maps field keys to stable 1-based column numbers and letters.
// Letters are computed lazily and memoized.
type ColumnIndex struct {
	ordinals map[string]int
	letters  map[string]string
}

// NewColumnIndex builds an index over keys in column order.
func NewColumnIndex(keys []string) *ColumnIndex {
	ordinals := make(map[string]int, len(keys))
	for i, key := range keys {
		if _, exists := ordinals[key]; !exists {
			ordinals[key] = i + 1
		}
	}
	return &ColumnIndex{ordinals: ordinals, letters: make(map[string]string, len(keys))}
}

// Number returns the 1-based column number for key.
func (c *ColumnIndex) Number(key string) (int, bool) {
	n, ok := c.ordinals[key]
	return n, ok
}

// Letter returns the column letter for key.
func (c *ColumnIndex) Letter(key string) (string, bool) {
	if letter, ok := c.letters[key]; ok {
		return letter, true
	}
	n, ok := c.ordinals[key]
	if !ok {
		return "", false
	}
	letter, err := ColumnLetter(n)
	if err != nil {
		return "", false
	}
	c.letters[key] = letter
	return letter, true
}

// Len returns the number of indexed columns.
func (c *ColumnIndex) Len() int {
	return len(c.ordinals)
}

// ColumnLetter converts a 1-based column number to letters (1 -> A, 27 -> AA).
func ColumnLetter(n int) (string, error) {
	return excelize.ColumnNumberToName(n)
}

// ColumnNumber converts column letters to a 1-based column number.
func ColumnNumber(letter string) (int, error) {
	return excelize.ColumnNameToNumber(letter)
}

// resolveColumnRef resolves a mapping key first, then a column letter.
func (c *ColumnIndex) resolveColumnRef(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, configError("column reference is required")
	}
	if n, ok := c.Number(ref); ok {
		return n, nil
	}
	if isColumnLetters(ref) {
		n, err := ColumnNumber(ref)
		if err != nil {
			return 0, NewError(KindValidation, fmt.Sprintf("invalid column %q", ref), err)
		}
		return n, nil
	}
	return 0, configError(fmt.Sprintf("column %q is neither a mapped key nor a column letter", ref))
}

func isColumnLetters(ref string) bool {
	if ref == "" {
		return false
	}
	for _, r := range ref {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// String renders the range as an A1 reference.
func (r CellRange) String() string {
	start, err := excelize.CoordinatesToCellName(r.StartCol, r.StartRow)
	if err != nil {
		return ""
	}
	end, err := excelize.CoordinatesToCellName(r.EndCol, r.EndRow)
	if err != nil {
		return ""
	}
	return start + ":" + end
}

// Contains reports whether the cell lies within the range.
func (r CellRange) Contains(col, row int) bool {
	return col >= r.StartCol && col <= r.EndCol && row >= r.StartRow && row <= r.EndRow
}

// Overlaps reports whether two ranges share at least one cell.
func (r CellRange) Overlaps(other CellRange) bool {
	return r.StartCol <= other.EndCol && other.StartCol <= r.EndCol &&
		r.StartRow <= other.EndRow && other.StartRow <= r.EndRow
}

func (r CellRange) normalized() CellRange {
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	return r
}

func cellName(col, row int) (string, error) {
	return excelize.CoordinatesToCellName(col, row)
}
