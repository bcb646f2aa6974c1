package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pricecatalog/internal"
)

// LoadReport describes one ingestion run.
type LoadReport struct {
	Source    string                `json:"source"`
	Format    string                `json:"format"`
	Extracted int                   `json:"extracted"`
	Sheets    []internal.SheetStats `json:"sheets"`
}

// Loader produces a complete, unpublished snapshot from the source resource.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, LoadReport, error)
}

// Recorder persists reload outcomes. Recording failures never fail a reload.
type Recorder interface {
	RecordReload(row internal.ReloadRow, items []internal.PriceItem) error
}

type ReloadResult struct {
	TraceID  string
	Items    int
	Duration time.Duration
	Report   LoadReport
}

// Service owns the published catalog. Reloads are serialized and build a
// fresh snapshot off to the side; readers always see a complete snapshot.
type Service struct {
	loader   Loader
	recorder Recorder
	logger   *slog.Logger

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(loader Loader, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{loader: loader, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(Empty())
	return s
}

// Reload rebuilds the catalog and publishes it on success. On failure the
// previously published catalog stays in place and the error is returned.
func (s *Service) Reload(ctx context.Context) (ReloadResult, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	result := ReloadResult{TraceID: uuid.NewString()}

	snap, report, err := s.load(ctx)
	result.Report = report
	result.Duration = time.Since(start)

	if err != nil {
		s.logger.Error("catalog reload failed",
			slog.String("trace", result.TraceID),
			slog.String("source", report.Source),
			slog.Any("error", err),
		)
		s.record(result, err, nil)
		return result, err
	}

	s.current.Store(snap)
	result.Items = snap.Len()
	s.logger.Info("catalog reloaded",
		slog.String("trace", result.TraceID),
		slog.String("source", report.Source),
		slog.String("format", report.Format),
		slog.Int("sheets", len(report.Sheets)),
		slog.Int("extracted", report.Extracted),
		slog.Int("items", result.Items),
		slog.Duration("took", result.Duration),
	)
	s.record(result, nil, snap.items)
	return result, nil
}

func (s *Service) load(ctx context.Context) (snap *Snapshot, report LoadReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, fmt.Errorf("catalog load panicked: %v", r)
		}
	}()
	snap, report, err = s.loader.Load(ctx)
	if err == nil && snap == nil {
		err = fmt.Errorf("loader returned no snapshot")
	}
	return snap, report, err
}

func (s *Service) record(result ReloadResult, loadErr error, items []internal.PriceItem) {
	if s.recorder == nil {
		return
	}
	sheetsJSON, _ := json.Marshal(result.Report.Sheets)
	row := internal.ReloadRow{
		TraceID:    result.TraceID,
		Source:     result.Report.Source,
		Status:     "ok",
		Extracted:  result.Report.Extracted,
		Items:      result.Items,
		DurationMs: float64(result.Duration.Microseconds()) / 1000,
		SheetsJSON: string(sheetsJSON),
	}
	if loadErr != nil {
		row.Status = "failed"
		msg := loadErr.Error()
		row.Error = &msg
	}
	if err := s.recorder.RecordReload(row, items); err != nil {
		s.logger.Warn("record reload failed", slog.String("trace", result.TraceID), slog.Any("error", err))
	}
}

// Restore publishes a previously persisted catalog without reading the
// source. It is a no-op once a non-empty catalog has been published.
func (s *Service) Restore(items []internal.PriceItem) bool {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if len(items) == 0 || s.current.Load().Len() > 0 {
		return false
	}
	b := NewBuilder()
	for _, item := range items {
		b.Add(item)
	}
	s.current.Store(b.Build())
	return true
}

func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Service) Lookup(raw string) (internal.PriceItem, bool) {
	return s.current.Load().Lookup(raw)
}

func (s *Service) Search(raw string, limit int) []internal.PriceItem {
	return s.current.Load().Search(raw, limit)
}

func (s *Service) ListAll() []internal.PriceItem {
	return s.current.Load().Items()
}
