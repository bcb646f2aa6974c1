package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pricecatalog/internal/catalog"
	"pricecatalog/internal/config"
	"pricecatalog/internal/connectors"
	gmailconnector "pricecatalog/internal/connectors/gmail"
	imapconnector "pricecatalog/internal/connectors/imap"
	"pricecatalog/internal/listener"
	"pricecatalog/internal/pipeline"
	"pricecatalog/internal/server"
	"pricecatalog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := cfg.NewLogger(os.Stderr)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := catalog.NewService(pipeline.NewFileLoader(cfg, logger), logger, catalog.WithRecorder(db))

	var intake *connectors.IntakeService
	if cfg.ListenerMailEnabled {
		var conn connectors.MailConnector
		switch strings.ToLower(strings.TrimSpace(cfg.MailProvider)) {
		case "gmail":
			conn, err = gmailconnector.NewConnector(ctx, cfg)
		case "imap":
			conn, err = imapconnector.NewConnector(cfg)
		default:
			err = fmt.Errorf("unsupported listener provider: %s", cfg.MailProvider)
		}
		must(err)
		intake = connectors.NewIntakeService(db, cfg, conn, logger)
	}

	serveErr := make(chan error, 1)
	if strings.TrimSpace(cfg.HTTPAddr) != "" {
		srv := server.New(svc, server.OptionsFromConfig(cfg), logger)
		go func() {
			err := srv.Run(ctx, cfg.HTTPAddr)
			if err != nil {
				logger.Error("http server stopped", "error", err)
				cancel()
			}
			serveErr <- err
		}()
	} else {
		serveErr <- nil
	}

	must(listener.NewService(cfg, db, svc, intake, logger).Run(ctx))
	must(<-serveErr)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
