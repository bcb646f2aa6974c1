package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRICELIST_PATH", "/tmp/prislista.xlsx")
	t.Setenv("SEARCH_DEFAULT_LIMIT", "5")
	t.Setenv("HEADER_SCAN_ROWS", "not-a-number")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("NAME_KEY_MAX_LEN", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PriceListPath != "/tmp/prislista.xlsx" {
		t.Fatalf("path=%q", cfg.PriceListPath)
	}
	if cfg.SearchDefaultLimit != 5 {
		t.Fatalf("limit=%d", cfg.SearchDefaultLimit)
	}
	if cfg.HeaderScanRows != 12 {
		t.Fatalf("header rows=%d", cfg.HeaderScanRows)
	}
	if cfg.IMAPSecure {
		t.Fatal("IMAP_SECURE=off should disable TLS")
	}
	if cfg.ReloadMinIntervalSec != 5 {
		t.Fatalf("reload interval=%d", cfg.ReloadMinIntervalSec)
	}
	if cfg.NameKeyMaxLen != 60 {
		t.Fatalf("name key len=%d", cfg.NameKeyMaxLen)
	}
}

func TestLoadRejectsNegativeWindow(t *testing.T) {
	t.Setenv("KEYWORD_SCAN_ROWS", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("sheet", "Blad1"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"sheet":"Blad1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}
