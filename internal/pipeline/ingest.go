package pipeline

import (
	"context"
	"log/slog"

	"pricecatalog/internal"
	"pricecatalog/internal/catalog"
	"pricecatalog/internal/config"
	"pricecatalog/internal/workbook"
)

type Options struct {
	HeaderScanRows  int
	KeywordScanRows int
	NameKeyMaxLen   int
}

func DefaultOptions() Options {
	return Options{HeaderScanRows: 12, KeywordScanRows: 40, NameKeyMaxLen: 60}
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		HeaderScanRows:  cfg.HeaderScanRows,
		KeywordScanRows: cfg.KeywordScanRows,
		NameKeyMaxLen:   cfg.NameKeyMaxLen,
	}
}

// Ingest builds a catalog from every sheet of wb, in sheet order and top to
// bottom within a sheet.
func Ingest(wb *workbook.Workbook, opts Options) (*catalog.Snapshot, []internal.SheetStats) {
	b := catalog.NewBuilder()
	stats := make([]internal.SheetStats, 0, len(wb.Sheets))
	for _, sheet := range wb.Sheets {
		stats = append(stats, ingestSheet(b, sheet, opts))
	}
	return b.Build(), stats
}

func ingestSheet(b *catalog.Builder, sheet *workbook.Sheet, opts Options) internal.SheetStats {
	candidates, st := ExtractSheet(sheet, opts)
	for _, c := range candidates {
		item, ok := catalog.NewItem(c.Identifier, c.Name, c.Price, c.Unit, sheet.Name, opts.NameKeyMaxLen)
		if !ok {
			continue
		}
		st.Extracted++
		switch b.Add(item) {
		case catalog.Added:
			st.Added++
		case catalog.Replaced:
			st.Replaced++
		case catalog.Kept:
			st.Kept++
		}
	}
	return st
}

// ExtractSheet picks the extraction path for one sheet and returns its
// candidates in row order.
func ExtractSheet(sheet *workbook.Sheet, opts Options) ([]Candidate, internal.SheetStats) {
	st := internal.SheetStats{Sheet: sheet.Name, Path: internal.PathEmpty, HeaderRow: -1}
	if sheet.LastRow() < 0 {
		return nil, st
	}

	var (
		candidates []Candidate
		considered int
	)
	header, found := DetectHeader(sheet, opts.HeaderScanRows, opts.KeywordScanRows)
	cols := ColumnMap{}
	if found {
		cols = MapColumns(sheet.Row(header.Row))
	}

	if len(cols) > 0 {
		st.HeaderRow = header.Row
		st.Path = internal.PathStructured
		if header.Keyword {
			st.Path = internal.PathKeyword
		}
		candidates, considered = extractStructured(sheet, header.Row, cols)
	} else {
		st.Path = internal.PathHeuristic
		candidates, considered = extractHeuristic(sheet)
	}
	st.Rows = considered
	return candidates, st
}

// FileLoader ingests the price list at Path. It satisfies catalog.Loader.
type FileLoader struct {
	Path    string
	Options Options
	Logger  *slog.Logger
}

func NewFileLoader(cfg config.Config, logger *slog.Logger) *FileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLoader{Path: cfg.PriceListPath, Options: OptionsFromConfig(cfg), Logger: logger}
}

func (l *FileLoader) Load(ctx context.Context) (*catalog.Snapshot, catalog.LoadReport, error) {
	report := catalog.LoadReport{Source: l.Path}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	wb, err := workbook.OpenFile(l.Path)
	if err != nil {
		return nil, report, err
	}
	report.Format = string(wb.Format)

	snap, stats := Ingest(wb, l.Options)
	report.Sheets = stats
	for _, st := range stats {
		report.Extracted += st.Extracted
		l.Logger.Debug("sheet ingested",
			slog.String("sheet", st.Sheet),
			slog.String("path", string(st.Path)),
			slog.Int("headerRow", st.HeaderRow),
			slog.Int("rows", st.Rows),
			slog.Int("extracted", st.Extracted),
			slog.Int("added", st.Added),
			slog.Int("replaced", st.Replaced),
			slog.Int("kept", st.Kept),
		)
	}
	return snap, report, nil
}
