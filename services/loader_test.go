package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"event-dashboard/ingest"
	"event-dashboard/metrics"
	"event-dashboard/models"
	"event-dashboard/storage"
)

const exportFixture = "Event Log Export\nSystem: LYO-02\nFrom: 01-01-2024\nTo: 31-01-2024\n\n" +
	"01-02-2024 10:15:00,Alarm High Temp - Ack Por jsmith\n" +
	"not-a-date,Login - Por admin\n" +
	"01-02-2024 10:15:00,Logout - Por none\n" +
	"01-02-2024 11:20:00,Door Open - Chamber 2\n" +
	"01-03-2024 09:00:00,Login - Por jsmith\n" +
	"01-03-2024 09:05:00,Recipe Load - Step 1 Por qa\n"

type failingStore struct{ storage.EventStore }

func (failingStore) Replace(context.Context, []models.EventRecord) error {
	return errors.New("disk full")
}

func newTestLoader(t *testing.T, withStore bool) *Loader {
	t.Helper()
	var store storage.EventStore
	if withStore {
		s, err := storage.NewSQLStore(context.Background(), storage.DriverSQLite,
			filepath.Join(t.TempDir(), "EventHistory.db"), storage.DefaultSchema(), newTestLogger())
		if err != nil {
			t.Fatalf("NewSQLStore: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		store = s
	}
	return NewLoader(ingest.DefaultOptions(), newLenient(), store, metrics.New(), newTestLogger())
}

func TestLoaderPipeline(t *testing.T) {
	l := newTestLoader(t, true)

	ds, err := l.Load(context.Background(), "export.csv", strings.NewReader(exportFixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.RowsRead != 6 {
		t.Errorf("RowsRead: got %d, want 6", ds.RowsRead)
	}
	if len(ds.Events) != 3 {
		t.Fatalf("events: got %d, want 3: %+v", len(ds.Events), ds.Events)
	}
	if ds.LoadID == "" {
		t.Error("LoadID should be set")
	}
	if len(ds.ActorCounts) != 2 || ds.ActorCounts[0].Actor != "jsmith" || ds.ActorCounts[0].Count != 2 {
		t.Errorf("ActorCounts: got %+v", ds.ActorCounts)
	}
}

func TestLoaderWithoutStore(t *testing.T) {
	l := newTestLoader(t, false)

	ds, err := l.Load(context.Background(), "export.csv", strings.NewReader(exportFixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.ActorCounts) != 2 {
		t.Errorf("in-memory ActorCounts: got %+v", ds.ActorCounts)
	}
}

func TestLoaderIngestErrorIsFatal(t *testing.T) {
	l := newTestLoader(t, false)
	bad := exportFixture + "01-03-2024 09:05:00,one,two\n"

	_, err := l.Load(context.Background(), "bad.csv", strings.NewReader(bad))
	if !errors.Is(err, ingest.ErrColumnCount) {
		t.Errorf("expected ErrColumnCount, got %v", err)
	}
}

func TestLoaderStorageErrorIsFatal(t *testing.T) {
	l := NewLoader(ingest.DefaultOptions(), newLenient(), failingStore{}, nil, newTestLogger())

	if _, err := l.Load(context.Background(), "export.csv", strings.NewReader(exportFixture)); err == nil {
		t.Error("expected storage error")
	}
}

func TestLoaderConcurrentLoadsKeepOwnCounts(t *testing.T) {
	l := newTestLoader(t, true)
	const header = "Event Log Export\nSystem: LYO-02\nFrom: 01-01-2024\nTo: 31-01-2024\n\n"

	files := make([]string, 8)
	for i := range files {
		var b strings.Builder
		b.WriteString(header)
		for j := 0; j <= i; j++ {
			fmt.Fprintf(&b, "01-02-2024 10:%02d:00,Login - Por op%d\n", j, i)
		}
		files[i] = b.String()
	}

	results := make([]*models.Dataset, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background(), fmt.Sprintf("export%d.csv", i), strings.NewReader(files[i]))
		}(i)
	}
	wg.Wait()

	for i, ds := range results {
		if errs[i] != nil {
			t.Errorf("load %d: %v", i, errs[i])
			continue
		}
		want := fmt.Sprintf("op%d", i)
		if len(ds.ActorCounts) != 1 {
			t.Errorf("load %d: counts: got %+v, want only %s", i, ds.ActorCounts, want)
			continue
		}
		if got := ds.ActorCounts[0]; got.Actor != want || got.Count != i+1 {
			t.Errorf("load %d: counts: got %+v, want {%s %d}", i, got, want, i+1)
		}
	}
}

func TestSessionReplace(t *testing.T) {
	s := NewSession()
	if s.Current() != nil {
		t.Fatal("new session should be empty")
	}

	first := &models.Dataset{LoadID: "a"}
	second := &models.Dataset{LoadID: "b"}
	s.Replace(first)
	s.Replace(second)
	if s.Current().LoadID != "b" {
		t.Errorf("current: got %q, want b", s.Current().LoadID)
	}
}
