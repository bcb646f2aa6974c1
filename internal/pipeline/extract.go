package pipeline

import (
	"regexp"
	"strings"

	"pricecatalog/internal/util"
	"pricecatalog/internal/workbook"
)

var reUnitToken = regexp.MustCompile(`(?i)(?:^|[^\pL])(st|kg|l|dag)(?:[^\pL]|$)`)

// Candidate is one row's worth of extracted fields before key synthesis and
// merging. Price is nil when the row carried no usable number.
type Candidate struct {
	Row        int
	Identifier string
	Name       string
	Unit       string
	Price      *float64
}

// extractStructured reads every row below the header through the column map.
// Blank rows and repeated header rows are skipped, as are rows without an
// identifier, article number, name or price.
func extractStructured(sheet *workbook.Sheet, headerRow int, cols ColumnMap) ([]Candidate, int) {
	out := []Candidate{}
	considered := 0
	for r := headerRow + 1; r <= sheet.LastRow(); r++ {
		row := sheet.Row(r)
		if workbook.RowBlank(row) || looksLikeRepeatedHeader(row) {
			continue
		}
		considered++

		text := func(role Role) string {
			return sheet.Cell(r, cols.Index(role)).Text()
		}
		material := text(RoleName)
		identifier := text(RoleIdentifier)
		article := text(RoleArticle)
		unit := text(RoleUnit)
		price := pickPrice(sheet.Cell(r, cols.Index(RoleCustomerPrice)), sheet.Cell(r, cols.Index(RolePurchasePrice)))

		if identifier == "" && article == "" && material == "" && price == nil {
			continue
		}

		name := material
		if name == "" {
			name = article
		}
		out = append(out, Candidate{Row: r, Identifier: identifier, Name: name, Unit: unit, Price: price})
	}
	return out, considered
}

// pickPrice prefers a positive customer price and otherwise falls back to
// the purchase price.
// pickPrice relies on Cell.Number never yielding NaN or an infinity.
func pickPrice(customer, purchase workbook.Cell) *float64 {
	if v, ok := customer.Number(); ok && v > 0 {
		return util.FloatPtr(v)
	}
	if v, ok := purchase.Number(); ok {
		return util.FloatPtr(v)
	}
	return nil
}

// extractHeuristic scans rows of a sheet without a usable header. Per row the
// first name-like cell, the first code-like cell, the first positive number
// and the first unit token are taken. Rows without a price, or without both
// name and identifier, are dropped.
func extractHeuristic(sheet *workbook.Sheet) ([]Candidate, int) {
	out := []Candidate{}
	considered := 0
	for r := 0; r <= sheet.LastRow(); r++ {
		row := sheet.Row(r)
		if workbook.RowBlank(row) {
			continue
		}
		considered++

		var c Candidate
		c.Row = r
		for _, cell := range row {
			txt := cell.Text()
			if c.Name == "" && util.LooksLikeName(txt) {
				c.Name = txt
			}
			if c.Identifier == "" && util.LooksLikeCode(txt) {
				c.Identifier = txt
			}
			if c.Price == nil {
				if v, ok := cell.Number(); ok && v > 0 {
					c.Price = util.FloatPtr(v)
				}
			}
			if c.Unit == "" {
				c.Unit = unitToken(txt)
			}
		}

		if c.Price == nil || (c.Identifier == "" && c.Name == "") {
			continue
		}
		out = append(out, c)
	}
	return out, considered
}

func unitToken(text string) string {
	m := reUnitToken.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	return m[1]
}
