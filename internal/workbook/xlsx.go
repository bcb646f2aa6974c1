package workbook

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	reFmtQuoted  = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)
	isoDateForms = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}
)

func readXLSX(blob []byte) (wb *Workbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("xlsx decoder: %v", r)
		}
	}()

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb = &Workbook{Format: FormatXLSX}
	for _, name := range f.GetSheetList() {
		sheet := &Sheet{Name: name}
		wb.Sheets = append(wb.Sheets, sheet)

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		sheet.Rows = make([][]Cell, len(rows))
		for r, row := range rows {
			cells := make([]Cell, len(row))
			for c, raw := range row {
				cells[c] = readXLSXCell(f, name, r, c, raw)
			}
			sheet.Rows[r] = cells
		}
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return wb, nil
}

// readXLSXCell types one cell. Malformed cells come back empty.
func readXLSXCell(f *excelize.File, sheet string, r, c int, raw string) (cell Cell) {
	defer func() {
		if recover() != nil {
			cell = Cell{}
		}
	}()

	ref, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return Cell{}
	}

	if formula, _ := f.GetCellFormula(sheet, ref); formula != "" {
		cell = Cell{Kind: KindFormula, Formula: formula}
		cell.Cached, _ = f.GetCellValue(sheet, ref)
		if v, err := f.CalcCellValue(sheet, ref, excelize.Options{RawCellValue: true}); err == nil {
			cell.Result = v
			cell.Evaluated = true
		}
		return cell
	}

	if raw == "" {
		return Cell{}
	}

	typ, _ := f.GetCellType(sheet, ref)
	switch typ {
	case excelize.CellTypeBool:
		return Cell{Kind: KindBool, Value: boolText(raw)}
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return StringCell(raw)
	case excelize.CellTypeError:
		return Cell{Kind: KindError, Value: raw}
	case excelize.CellTypeDate:
		return Cell{Kind: KindDate, Value: raw, Time: parseISODate(raw)}
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return StringCell(raw)
	}
	if dateStyled(f, sheet, ref) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return DateCell(t)
		}
	}
	return NumberCell(n)
}

func boolText(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return "true"
	default:
		return "false"
	}
}

func parseISODate(raw string) time.Time {
	for _, layout := range isoDateForms {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// dateStyled reports whether the cell's number format renders a date or time.
func dateStyled(f *excelize.File, sheet, ref string) bool {
	styleID, err := f.GetCellStyle(sheet, ref)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return dateFormatCode(*style.CustomNumFmt)
	}
	return builtinDateFormat(style.NumFmt)
}

func builtinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	default:
		return false
	}
}

func dateFormatCode(code string) bool {
	s := strings.ToLower(reFmtQuoted.ReplaceAllString(code, ""))
	if s == "" || s == "general" {
		return false
	}
	return strings.ContainsAny(s, "ydh")
}
