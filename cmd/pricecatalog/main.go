package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"pricecatalog/internal"
	"pricecatalog/internal/catalog"
	"pricecatalog/internal/config"
	"pricecatalog/internal/connectors"
	gmailconnector "pricecatalog/internal/connectors/gmail"
	imapconnector "pricecatalog/internal/connectors/imap"
	"pricecatalog/internal/pipeline"
	"pricecatalog/internal/server"
	"pricecatalog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := catalog.NewService(pipeline.NewFileLoader(cfg, logger), logger, catalog.WithRecorder(db))

	cmd := os.Args[1]
	switch cmd {
	case "catalog:load":
		res, err := svc.Reload(ctx)
		must(err)
		for _, st := range res.Report.Sheets {
			fmt.Printf("sheet=%q path=%s header=%d rows=%d extracted=%d added=%d replaced=%d kept=%d\n",
				st.Sheet, st.Path, st.HeaderRow, st.Rows, st.Extracted, st.Added, st.Replaced, st.Kept)
		}
		fmt.Printf("catalog loaded trace=%s items=%d took=%s\n", res.TraceID, res.Items, res.Duration)
	case "catalog:lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "EM number, article number or name fragment")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		loadQuietly(ctx, svc, logger)
		item, ok := svc.Lookup(*id)
		if !ok {
			must(fmt.Errorf("not found: %s", *id))
		}
		printJSON(item)
	case "catalog:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		prefix := fs.String("prefix", "", "identifier prefix or name fragment")
		limit := fs.Int("limit", cfg.SearchDefaultLimit, "max results")
		_ = fs.Parse(os.Args[2:])
		loadQuietly(ctx, svc, logger)
		printJSON(svc.Search(*prefix, *limit))
	case "catalog:list":
		loadQuietly(ctx, svc, logger)
		printJSON(svc.ListAll())
	case "catalog:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutputDir, "catalog.xlsx"), "output xlsx path")
		fromDB := fs.Bool("from-db", false, "export the last persisted catalog instead of re-reading the source")
		_ = fs.Parse(os.Args[2:])
		var items []internal.PriceItem
		if *fromDB {
			items, err = db.ListPriceItems()
			must(err)
		} else {
			_, err := svc.Reload(ctx)
			must(err)
			items = svc.ListAll()
		}
		must(pipeline.ExportItemsToXLSX(items, *out))
		fmt.Printf("exported %d items to %s\n", len(items), *out)
	case "catalog:history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "number of reloads")
		_ = fs.Parse(os.Args[2:])
		rows, err := db.ListReloads(*limit)
		must(err)
		for _, r := range rows {
			errText := ""
			if r.Error != nil {
				errText = *r.Error
			}
			fmt.Printf("%s trace=%s status=%s items=%d extracted=%d took=%.1fms %s\n",
				r.CreatedAt, r.TraceID, r.Status, r.Items, r.Extracted, r.DurationMs, errText)
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "gmail|imap")
		label := fs.String("label", cfg.MailLabel, "mailbox/label")
		subject := fs.String("subject", cfg.MailSubjectFilter, "subject filter")
		max := fs.Int("max", cfg.MailFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(ctx, cfg, *provider)
		must(err)
		intake := connectors.NewIntakeService(db, cfg, conn, logger)
		res, err := intake.FetchAndStore(ctx, internal.MailQuery{Label: *label, Subject: *subject, Max: *max})
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d attachments=%d promoted=%q\n", *provider, res.Fetched, res.Attachments, res.Promoted)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		loadQuietly(ctx, svc, logger)
		srv := server.New(svc, server.OptionsFromConfig(cfg), logger)
		must(srv.Run(ctx, *addr))
	default:
		usage()
		os.Exit(1)
	}
}

// loadQuietly performs the startup load. A missing or unreadable source
// leaves the catalog empty.
func loadQuietly(ctx context.Context, svc *catalog.Service, logger *slog.Logger) {
	if _, err := svc.Reload(ctx); err != nil {
		logger.Warn("starting with empty catalog", slog.Any("error", err))
	}
}

func makeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(v))
}

func usage() {
	fmt.Println("usage: pricecatalog <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:load")
	fmt.Println("  catalog:lookup --id=1234567")
	fmt.Println("  catalog:search --prefix=123 [--limit=20]")
	fmt.Println("  catalog:list")
	fmt.Println("  catalog:export [--out=./out/catalog.xlsx] [--from-db]")
	fmt.Println("  catalog:history [--limit=20]")
	fmt.Println("  mail:fetch [--provider=imap|gmail] [--label=INBOX] [--subject=prislista] [--max=20]")
	fmt.Println("  serve [--addr=:8080]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
