package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"pricecatalog/internal"
)

type loaderFunc func(ctx context.Context) (*Snapshot, LoadReport, error)

func (f loaderFunc) Load(ctx context.Context) (*Snapshot, LoadReport, error) {
	return f(ctx)
}

type memRecorder struct {
	mu    sync.Mutex
	rows  []internal.ReloadRow
	items [][]internal.PriceItem
}

func (m *memRecorder) RecordReload(row internal.ReloadRow, items []internal.PriceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	m.items = append(m.items, items)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceReloadPublishes(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(loaderFunc(func(context.Context) (*Snapshot, LoadReport, error) {
		return fixtureSnapshot(t), LoadReport{Source: "prislista.xlsx", Format: "xlsx", Extracted: 4}, nil
	}), quietLogger(), WithRecorder(rec))

	if len(svc.ListAll()) != 0 {
		t.Fatal("catalog should start empty")
	}

	res, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Items != 4 || res.TraceID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := svc.Lookup("1234567"); !ok {
		t.Fatal("lookup after reload failed")
	}
	if len(rec.rows) != 1 || rec.rows[0].Status != "ok" || rec.rows[0].Items != 4 {
		t.Fatalf("recorded rows=%+v", rec.rows)
	}
	if len(rec.items[0]) != 4 {
		t.Fatalf("recorded items=%d", len(rec.items[0]))
	}
}

func TestServiceReloadFailureKeepsPrevious(t *testing.T) {
	calls := 0
	rec := &memRecorder{}
	svc := NewService(loaderFunc(func(context.Context) (*Snapshot, LoadReport, error) {
		calls++
		switch calls {
		case 1:
			return fixtureSnapshot(t), LoadReport{}, nil
		case 2:
			return nil, LoadReport{Source: "gone.xlsx"}, errors.New("source missing")
		default:
			panic("corrupt workbook")
		}
	}), quietLogger(), WithRecorder(rec))

	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := svc.Snapshot()

	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if svc.Snapshot() != before {
		t.Fatal("failed reload replaced the published catalog")
	}
	if len(svc.ListAll()) != 4 {
		t.Fatalf("items=%d", len(svc.ListAll()))
	}
	if rec.rows[1].Status != "failed" || rec.rows[1].Error == nil {
		t.Fatalf("failure not recorded: %+v", rec.rows[1])
	}
}

func TestServiceConcurrentReadsDuringReload(t *testing.T) {
	small := NewBuilder()
	small.Add(mkItem(t, "A", "a", 1))
	smallSnap := small.Build()
	big := fixtureSnapshot(t)

	calls := 0
	svc := NewService(loaderFunc(func(context.Context) (*Snapshot, LoadReport, error) {
		calls++
		if calls%2 == 0 {
			return smallSnap, LoadReport{}, nil
		}
		return big, LoadReport{}, nil
	}), quietLogger())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				n := len(svc.ListAll())
				if n != 0 && n != 1 && n != 4 {
					t.Errorf("observed partial catalog of %d items", n)
					return
				}
				svc.Search("1234", 5)
				svc.Lookup("A")
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if _, err := svc.Reload(context.Background()); err != nil {
			t.Error(err)
		}
	}
	close(stop)
	wg.Wait()
}
