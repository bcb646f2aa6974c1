package workbook

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// readHTML reads spreadsheets saved as HTML (many ERP "Excel" exports are
// HTML tables with an .xls name). Each <table> becomes one sheet.
func readHTML(blob []byte) (*Workbook, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}

	wb := &Workbook{Format: FormatHTML}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		sheet := &Sheet{Name: tableName(table, i)}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// nested tables are read on their own
			if tr.ParentsFiltered("table").First().Get(0) != table.Get(0) {
				return
			}
			row := []Cell{}
			tr.ChildrenFiltered("th,td").Each(func(_ int, td *goquery.Selection) {
				row = append(row, textCell(td.Text()))
				span, _ := strconv.Atoi(td.AttrOr("colspan", "1"))
				for k := 1; k < span; k++ {
					row = append(row, Cell{})
				}
			})
			sheet.Rows = append(sheet.Rows, row)
		})
		if len(sheet.Rows) > 0 {
			wb.Sheets = append(wb.Sheets, sheet)
		}
	})

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("no html table found")
	}
	return wb, nil
}

func tableName(table *goquery.Selection, i int) string {
	if caption := strings.TrimSpace(table.Find("caption").First().Text()); caption != "" {
		return caption
	}
	if id, ok := table.Attr("id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return fmt.Sprintf("Table%d", i+1)
}
