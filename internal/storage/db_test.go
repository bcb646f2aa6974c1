package storage

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pricecatalog/internal"
	"pricecatalog/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordReloadPersistsCatalog(t *testing.T) {
	db := openTestDB(t)

	items := []internal.PriceItem{
		{Identifier: "12 345", Name: "Bromsbelägg", Price: decimal.RequireFromString("199.5"), Unit: "st", SourceSheet: "Material"},
		{Identifier: "NAME:Oil filter", Name: "Oil filter", Price: decimal.Zero, Unit: "st", SourceSheet: "Övrigt"},
	}
	ok := internal.ReloadRow{TraceID: "t1", Source: "prislista.xlsx", Status: "ok", Extracted: 3, Items: 2, DurationMs: 1.5}
	if err := db.RecordReload(ok, items); err != nil {
		t.Fatal(err)
	}

	failed := internal.ReloadRow{TraceID: "t2", Source: "prislista.xlsx", Status: "failed", Error: util.StringPtr("format unreadable")}
	if err := db.RecordReload(failed, nil); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListPriceItems()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("failed reload should keep persisted items, got %d", len(got))
	}
	if got[0].Identifier != "12 345" || !got[0].Price.Equal(items[0].Price) || got[1].SourceSheet != "Övrigt" {
		t.Fatalf("items=%+v", got)
	}

	reloads, err := db.ListReloads(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloads) != 2 || reloads[0].TraceID != "t2" || reloads[0].Error == nil || *reloads[0].Error != "format unreadable" {
		t.Fatalf("reloads=%+v", reloads)
	}
	if reloads[1].SheetsJSON != "[]" || reloads[1].Items != 2 {
		t.Fatalf("ok reload=%+v", reloads[1])
	}
}

func TestIntakeUpsertAndStatus(t *testing.T) {
	db := openTestDB(t)

	row := internal.IntakeRow{Provider: "imap", MessageID: "42", Filename: "prislista.xlsx", ReceivedAt: "2024-03-01T10:00:00Z", Hash: "abc", Path: "/tmp/abc.xlsx"}
	stored, err := db.UpsertIntake(row)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID == 0 || stored.Status != "stored" {
		t.Fatalf("stored=%+v", stored)
	}

	again, err := db.UpsertIntake(row)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != stored.ID {
		t.Fatalf("upsert created a second row: %d != %d", again.ID, stored.ID)
	}

	byHash, err := db.GetIntakeByHash("abc")
	if err != nil || byHash == nil || byHash.ID != stored.ID {
		t.Fatalf("byHash=%+v err=%v", byHash, err)
	}
	if missing, err := db.GetIntakeByHash("nope"); err != nil || missing != nil {
		t.Fatalf("missing=%+v err=%v", missing, err)
	}

	if err := db.UpdateIntakeStatus(stored.ID, "promoted"); err != nil {
		t.Fatal(err)
	}
	pending, err := db.ListIntakeByStatus("stored", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending=%+v", pending)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	if v, err := db.GetMetadata("source_hash"); err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("source_hash", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("source_hash", "b"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("source_hash")
	if err != nil || v == nil || *v != "b" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
