package connectors

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jhillyerd/enmime"

	"pricecatalog/internal"
	"pricecatalog/internal/config"
	"pricecatalog/internal/storage"
	"pricecatalog/internal/util"
)

const (
	IntakeStored   = "stored"
	IntakePromoted = "promoted"
)

var priceListExts = []string{".xlsx", ".xls", ".htm", ".html"}

// IsPriceListFile reports whether an attachment name has a spreadsheet
// extension the catalog can read.
func IsPriceListFile(name string) bool {
	return slices.Contains(priceListExts, strings.ToLower(filepath.Ext(strings.TrimSpace(name))))
}

// IntakeService pulls price-list attachments out of a mailbox, keeps every
// distinct attachment under dir and promotes the newest one to target.
type IntakeService struct {
	db        *storage.DB
	connector MailConnector
	dir       string
	target    string
	logger    *slog.Logger
}

type IntakeResult struct {
	Fetched     int
	Attachments int
	Promoted    string
}

func NewIntakeService(db *storage.DB, cfg config.Config, connector MailConnector, logger *slog.Logger) *IntakeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeService{
		db:        db,
		connector: connector,
		dir:       cfg.IntakeDir,
		target:    cfg.PriceListPath,
		logger:    logger,
	}
}

func (s *IntakeService) FetchAndStore(ctx context.Context, query internal.MailQuery) (IntakeResult, error) {
	messages, err := s.connector.FetchInbox(ctx, query)
	if err != nil {
		return IntakeResult{}, err
	}

	result := IntakeResult{Fetched: len(messages)}
	var newest *internal.IntakeRow
	for _, msg := range messages {
		rows, err := s.StoreMessage(msg)
		if err != nil {
			s.logger.Warn("skip message", slog.String("provider", msg.Provider), slog.String("messageId", msg.MessageID), slog.Any("error", err))
			continue
		}
		result.Attachments += len(rows)
		for i := range rows {
			if newest == nil || rows[i].ReceivedAt >= newest.ReceivedAt {
				newest = &rows[i]
			}
		}
	}

	if newest != nil {
		promoted, err := s.Promote(*newest)
		if err != nil {
			return result, err
		}
		if promoted {
			result.Promoted = newest.Filename
		}
	}
	return result, nil
}

// StoreMessage saves every spreadsheet attachment of msg by content hash and
// records it. Attachments of other types are ignored.
func (s *IntakeService) StoreMessage(msg internal.FetchedMailMessage) ([]internal.IntakeRow, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(msg.Raw))
	if err != nil {
		return nil, fmt.Errorf("parse message %s: %w", msg.MessageID, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	var out []internal.IntakeRow
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		ext := strings.ToLower(filepath.Ext(filename))
		if !IsPriceListFile(filename) || len(att.Content) == 0 {
			continue
		}

		hash := util.SHA256Hex(att.Content)
		path := filepath.Join(s.dir, hash+ext)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, att.Content, 0o644); err != nil {
				return nil, err
			}
		}

		row, err := s.db.UpsertIntake(internal.IntakeRow{
			Provider:   msg.Provider,
			MessageID:  msg.MessageID,
			Filename:   filename,
			ReceivedAt: msg.ReceivedAt,
			Hash:       hash,
			Path:       path,
			Status:     IntakeStored,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Promote replaces the target price list with the stored attachment. The
// copy goes through a temporary file and a rename so the loader never reads
// a half-written file. It reports false when the target already holds the
// same content.
func (s *IntakeService) Promote(row internal.IntakeRow) (bool, error) {
	if current, err := util.SHA256File(s.target); err == nil && current == row.Hash {
		return false, nil
	}

	blob, err := os.ReadFile(row.Path)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(s.target), 0o755); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.target), ".pricelist-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), s.target); err != nil {
		return false, err
	}

	if err := s.db.UpdateIntakeStatus(row.ID, IntakePromoted); err != nil {
		return true, err
	}
	s.logger.Info("price list promoted", slog.String("file", row.Filename), slog.String("hash", row.Hash), slog.String("target", s.target))
	return true, nil
}
