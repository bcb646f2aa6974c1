package pipeline

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"pricecatalog/internal/workbook"
)

type sheetFixture struct {
	name string
	rows [][]any
}

func mkXLSX(t *testing.T, sheets ...sheetFixture) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatal(err)
		}
		for r, row := range s.rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				_ = f.SetCellValue(s.name, cell, v)
			}
		}
	}
	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mkSheet(name string, rows ...[]any) *workbook.Sheet {
	s := &workbook.Sheet{Name: name}
	for _, row := range rows {
		cells := make([]workbook.Cell, 0, len(row))
		for _, v := range row {
			switch x := v.(type) {
			case nil:
				cells = append(cells, workbook.Cell{})
			case string:
				cells = append(cells, workbook.StringCell(x))
			case int:
				cells = append(cells, workbook.NumberCell(float64(x)))
			case float64:
				cells = append(cells, workbook.NumberCell(x))
			case bool:
				cells = append(cells, workbook.BoolCell(x))
			}
		}
		s.Rows = append(s.Rows, cells)
	}
	return s
}
