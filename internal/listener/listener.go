package listener

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"pricecatalog/internal"
	"pricecatalog/internal/catalog"
	"pricecatalog/internal/config"
	"pricecatalog/internal/connectors"
	"pricecatalog/internal/storage"
	"pricecatalog/internal/util"
)

const sourceHashKey = "source_hash"

// Service keeps the catalog in step with the price-list file. Each cycle
// optionally pulls new price lists from the mailbox, then reloads the
// catalog when the file content changed.
type Service struct {
	db       *storage.DB
	catalog  *catalog.Service
	intake   *connectors.IntakeService
	logger   *slog.Logger
	source   string
	interval time.Duration
	query    internal.MailQuery

	lastHash    string
	restoreDone bool
}

// NewService wires the listener. intake may be nil to disable mail intake.
func NewService(cfg config.Config, db *storage.DB, svc *catalog.Service, intake *connectors.IntakeService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	interval := time.Duration(cfg.ListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Service{
		db:       db,
		catalog:  svc,
		intake:   intake,
		logger:   logger,
		source:   cfg.PriceListPath,
		interval: interval,
		query: internal.MailQuery{
			Label:   cfg.MailLabel,
			Subject: cfg.MailSubjectFilter,
			Max:     cfg.MailFetchMax,
		},
	}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logger.Error("listener cycle failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

// RunCycle reports whether a new catalog was published.
func (s *Service) RunCycle(ctx context.Context) (bool, error) {
	if s.intake != nil {
		res, err := s.intake.FetchAndStore(ctx, s.query)
		if err != nil {
			s.logger.Warn("mail intake failed", slog.Any("error", err))
		} else if res.Fetched > 0 {
			s.logger.Info("mail intake done",
				slog.Int("fetched", res.Fetched),
				slog.Int("attachments", res.Attachments),
				slog.String("promoted", res.Promoted),
			)
		}
	}

	hash, err := util.SHA256File(s.source)
	if errors.Is(err, fs.ErrNotExist) {
		if s.lastHash == "" {
			s.logger.Warn("price list missing", slog.String("source", s.source))
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if hash == s.lastHash {
		return false, nil
	}
	if !s.restoreDone {
		s.restoreDone = true
		if s.restore(hash) {
			s.lastHash = hash
			return true, nil
		}
	}

	if _, err := s.catalog.Reload(ctx); err != nil {
		return false, err
	}
	s.lastHash = hash
	if s.db != nil {
		if err := s.db.SetMetadata(sourceHashKey, hash); err != nil {
			s.logger.Warn("store source hash failed", slog.Any("error", err))
		}
	}
	return true, nil
}

// restore republishes the stored catalog when the source file is the one it
// was built from, so a restart does not parse an unchanged price list.
func (s *Service) restore(hash string) bool {
	if s.db == nil {
		return false
	}
	stored, err := s.db.GetMetadata(sourceHashKey)
	if err != nil || stored == nil || *stored != hash {
		return false
	}
	items, err := s.db.ListPriceItems()
	if err != nil {
		s.logger.Warn("read stored catalog failed", slog.Any("error", err))
		return false
	}
	if !s.catalog.Restore(items) {
		return false
	}
	s.logger.Info("catalog restored from store",
		slog.String("source", s.source),
		slog.Int("items", len(items)),
	)
	return true
}
