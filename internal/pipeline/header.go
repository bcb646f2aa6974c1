package pipeline

import (
	"strings"

	"pricecatalog/internal/util"
	"pricecatalog/internal/workbook"
)

// headerFamilies score a candidate header row: each non-empty cell earns one
// point per family it hits.
var headerFamilies = [][]string{
	{"em"},
	{"art", "benämning"},
	{"pris"},
	{"enhet", "st", "kg"},
	{"material", "benämning"},
}

// headerKeywords is the narrower set used by the secondary scan. One hit is
// enough to accept a row.
var headerKeywords = [][]string{
	{"material"},
	{"pris inköp", "pris/inköp"},
	{"pris till"},
	{"em nr"},
	{"art"},
}

// repeatedHeaderKeywords mark a data row that is really a repeated section
// header.
var repeatedHeaderKeywords = []string{"material", "pris inköp", "pris till kund", "em nr", "art nr"}

const minHeaderScore = 2

type HeaderResult struct {
	Row   int
	Score int
	// Keyword is true when the row was found by the secondary scan.
	Keyword bool
}

// DetectHeader locates the header row of a sheet. The primary pass scores
// rows 0..scanRows and keeps the first row with the highest score of at
// least two. Failing that, rows 0..keywordRows are searched for the first
// row with any header keyword. ok is false when neither pass finds a row.
func DetectHeader(sheet *workbook.Sheet, scanRows, keywordRows int) (HeaderResult, bool) {
	last := sheet.LastRow()
	if last < 0 {
		return HeaderResult{}, false
	}

	best := HeaderResult{Row: -1}
	for r := 0; r <= min(scanRows, last); r++ {
		score := scoreRow(sheet.Row(r))
		if score >= minHeaderScore && score > best.Score {
			best = HeaderResult{Row: r, Score: score}
		}
	}
	if best.Row >= 0 {
		return best, true
	}

	for r := 0; r <= min(keywordRows, last); r++ {
		if hits := keywordHits(sheet.Row(r)); hits > 0 {
			return HeaderResult{Row: r, Score: hits, Keyword: true}, true
		}
	}
	return HeaderResult{}, false
}

func scoreRow(row []workbook.Cell) int {
	return countFamilies(row, headerFamilies)
}

func keywordHits(row []workbook.Cell) int {
	return countFamilies(row, headerKeywords)
}

func countFamilies(row []workbook.Cell, families [][]string) int {
	score := 0
	for _, c := range row {
		txt := strings.ToLower(c.Text())
		if txt == "" {
			continue
		}
		for _, fam := range families {
			if util.ContainsAny(txt, fam...) {
				score++
			}
		}
	}
	return score
}

// looksLikeRepeatedHeader reports a row inside the data block that carries
// header wording.
func looksLikeRepeatedHeader(row []workbook.Cell) bool {
	for _, c := range row {
		if util.ContainsAny(strings.ToLower(c.Text()), repeatedHeaderKeywords...) {
			return true
		}
	}
	return false
}
