package workbook

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// BIFF8 sheets have at most 256 columns.
const xlsMaxCols = 256

// readXLS reads the legacy BIFF format. The decoder only exposes display
// strings, so cells are re-typed from their text.
func readXLS(blob []byte) (wb *Workbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("xls decoder: %v", r)
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(blob), "utf-8")
	if err != nil {
		return nil, err
	}
	if book == nil || book.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	wb = &Workbook{Format: FormatXLS}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		sheet := &Sheet{Name: ws.Name}
		wb.Sheets = append(wb.Sheets, sheet)

		rows := make([][]Cell, int(ws.MaxRow)+1)
		found := false
		for r := range rows {
			row := xlsRow(ws, r)
			if row == nil {
				continue
			}
			rows[r] = xlsCells(row)
			found = found || rows[r] != nil
		}
		if found {
			sheet.Rows = rows
		}
	}
	return wb, nil
}

// xlsRow returns nil for rows the sheet does not hold; the decoder
// dereferences a missing row instead of reporting it.
func xlsRow(ws *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(r)
}

// xlsCells reads one row. The ROW record bound is exclusive; cells written
// without a ROW record report no bound and are scanned up to the last
// non-empty column.
func xlsCells(row *xls.Row) []Cell {
	last := row.LastCol()
	if last <= 0 {
		last = xlsMaxCols
	}
	cells := make([]Cell, last)
	used := 0
	for c := row.FirstCol(); c < last; c++ {
		cells[c] = textCell(row.Col(c))
		if cells[c].Kind != KindEmpty {
			used = c + 1
		}
	}
	if used == 0 {
		return nil
	}
	return cells[:used]
}
