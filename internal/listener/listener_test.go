package listener

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"pricecatalog/internal/catalog"
	"pricecatalog/internal/config"
	"pricecatalog/internal/pipeline"
	"pricecatalog/internal/storage"
)

func writePriceList(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunCycleReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		PriceListPath:   filepath.Join(dir, "prislista.xlsx"),
		HeaderScanRows:  12,
		KeywordScanRows: 40,
		NameKeyMaxLen:   60,
	}
	db, err := storage.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.NewService(pipeline.NewFileLoader(cfg, logger), logger, catalog.WithRecorder(db))
	l := NewService(cfg, db, svc, nil, logger)
	ctx := context.Background()

	reloaded, err := l.RunCycle(ctx)
	if err != nil || reloaded {
		t.Fatalf("missing source: reloaded=%v err=%v", reloaded, err)
	}

	writePriceList(t, cfg.PriceListPath, [][]any{
		{"Material", "EM nr", "Pris till kund"},
		{"Kabel", "1234567", 45},
	})
	if reloaded, err = l.RunCycle(ctx); err != nil || !reloaded {
		t.Fatalf("first load: reloaded=%v err=%v", reloaded, err)
	}
	if _, ok := svc.Lookup("1234567"); !ok {
		t.Fatal("catalog not loaded")
	}

	if reloaded, err = l.RunCycle(ctx); err != nil || reloaded {
		t.Fatalf("unchanged source: reloaded=%v err=%v", reloaded, err)
	}

	writePriceList(t, cfg.PriceListPath, [][]any{
		{"Material", "EM nr", "Pris till kund"},
		{"Kabel", "1234567", 45},
		{"Dosa", "7654321", 12},
	})
	if reloaded, err = l.RunCycle(ctx); err != nil || !reloaded {
		t.Fatalf("changed source: reloaded=%v err=%v", reloaded, err)
	}
	if len(svc.ListAll()) != 2 {
		t.Fatalf("items=%d", len(svc.ListAll()))
	}

	hash, err := db.GetMetadata(sourceHashKey)
	if err != nil || hash == nil || *hash == "" {
		t.Fatalf("hash=%v err=%v", hash, err)
	}
	reloads, err := db.ListReloads(10)
	if err != nil || len(reloads) != 2 {
		t.Fatalf("reloads=%d err=%v", len(reloads), err)
	}
}

func TestRunCycleRestoresUnchangedSource(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{PriceListPath: filepath.Join(dir, "prislista.xlsx"), HeaderScanRows: 12, KeywordScanRows: 40, NameKeyMaxLen: 60}
	db, err := storage.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	writePriceList(t, cfg.PriceListPath, [][]any{
		{"Material", "EM nr", "Pris till kund"},
		{"Kabel", "1234567", 45},
		{"Dosa", "7654321", 12},
	})
	first := catalog.NewService(pipeline.NewFileLoader(cfg, logger), logger, catalog.WithRecorder(db))
	if _, err := NewService(cfg, db, first, nil, logger).RunCycle(ctx); err != nil {
		t.Fatal(err)
	}

	// a restart sees the same file
	second := catalog.NewService(pipeline.NewFileLoader(cfg, logger), logger, catalog.WithRecorder(db))
	l := NewService(cfg, db, second, nil, logger)
	published, err := l.RunCycle(ctx)
	if err != nil || !published {
		t.Fatalf("published=%v err=%v", published, err)
	}
	if got := second.ListAll(); len(got) != 2 || got[0].Identifier != "1234567" {
		t.Fatalf("restored=%+v", got)
	}
	reloads, err := db.ListReloads(10)
	if err != nil || len(reloads) != 1 {
		t.Fatalf("restart parsed the source again: reloads=%d err=%v", len(reloads), err)
	}
	if published, _ = l.RunCycle(ctx); published {
		t.Fatal("unchanged source published again")
	}

	writePriceList(t, cfg.PriceListPath, [][]any{
		{"Material", "EM nr", "Pris till kund"},
		{"Kabel", "1234567", 50},
	})
	if published, err = l.RunCycle(ctx); err != nil || !published {
		t.Fatalf("changed source: published=%v err=%v", published, err)
	}
	if len(second.ListAll()) != 1 {
		t.Fatalf("items=%d", len(second.ListAll()))
	}
}

func TestRunCycleKeepsCatalogOnBadFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{PriceListPath: filepath.Join(dir, "prislista.xlsx"), HeaderScanRows: 12, KeywordScanRows: 40, NameKeyMaxLen: 60}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.NewService(pipeline.NewFileLoader(cfg, logger), logger)
	l := NewService(cfg, nil, svc, nil, logger)

	writePriceList(t, cfg.PriceListPath, [][]any{
		{"Material", "EM nr", "Pris till kund"},
		{"Kabel", "1234567", 45},
	})
	if _, err := l.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(cfg.PriceListPath, []byte("inte ett kalkylblad"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RunCycle(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if _, ok := svc.Lookup("1234567"); !ok {
		t.Fatal("previous catalog lost after failed reload")
	}
}
