// Package workbook reads tabular price-list resources into an in-memory grid
// of typed cells. Three encodings are accepted: Office Open XML (xlsx), the
// legacy BIFF format (xls), and HTML tables saved with an .xls extension.
package workbook

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatHTML Format = "html"
)

type Workbook struct {
	Format Format
	Sheets []*Sheet
}

// Sheet is a sparse grid: Rows[i] is row i (0-based) and may be shorter than
// other rows or nil for a gap.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// LastRow returns the index of the last row, or -1 for an empty sheet.
func (s *Sheet) LastRow() int {
	return len(s.Rows) - 1
}

func (s *Sheet) Row(i int) []Cell {
	if i < 0 || i >= len(s.Rows) {
		return nil
	}
	return s.Rows[i]
}

// Cell returns the cell at (row, col); out-of-range positions are empty.
func (s *Sheet) Cell(row, col int) Cell {
	r := s.Row(row)
	if col < 0 || col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// RowBlank reports whether every cell of the row renders as empty text.
func RowBlank(row []Cell) bool {
	for _, c := range row {
		if c.Text() != "" {
			return false
		}
	}
	return true
}
