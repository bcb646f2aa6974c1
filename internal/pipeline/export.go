package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricecatalog/internal"
)

// ExportItemsToXLSX writes the catalog as a single-sheet workbook whose header
// row is recognized again on ingestion.
func ExportItemsToXLSX(items []internal.PriceItem, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"EM nr", "Material", "Pris till kund", "Enhet", "Blad"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range items {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, item.Identifier)
		set(2, item.Name)
		set(3, item.Price.InexactFloat64())
		set(4, item.Unit)
		set(5, item.SourceSheet)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
