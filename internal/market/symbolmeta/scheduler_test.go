package symbolmeta

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"tickerdash/internal/market/memorystore"

	"go.uber.org/zap"
)

type fakeLister struct {
	symbols []string
	err     error
	calls   atomic.Int32
}

func (f *fakeLister) ListWatchedSymbols(ctx context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.symbols, f.err
}

// go test -v --run TestRefreshMergesSources
func TestRefreshMergesSources(t *testing.T) {
	store := memorystore.NewSymbolStore("OLDUSDT")
	lister := &fakeLister{symbols: []string{"ethusdt", "BTCUSDT"}}
	s := NewScheduler(store, []string{"btcusdt", "SOLUSDT"}, lister, "", zap.NewNop())

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if got := store.GetAll(); !reflect.DeepEqual(got, want) {
		t.Errorf("watchlist = %v, want %v", got, want)
	}
	if store.Allowed("OLDUSDT") {
		t.Error("replaced symbol still allowed")
	}
}

// go test -v --run TestRefreshKeepsStoreOnError
func TestRefreshKeepsStoreOnError(t *testing.T) {
	store := memorystore.NewSymbolStore("BTCUSDT")
	s := NewScheduler(store, nil, &fakeLister{err: errors.New("db down")}, "", zap.NewNop())

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := store.GetAll(); len(got) != 1 || got[0] != "BTCUSDT" {
		t.Errorf("store changed after failed load: %v", got)
	}
}

// go test -v --run TestStartRunsOnSchedule
func TestStartRunsOnSchedule(t *testing.T) {
	store := memorystore.NewSymbolStore()
	lister := &fakeLister{symbols: []string{"BTCUSDT"}}
	s := NewScheduler(store, nil, lister, "@every 1s", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if lister.calls.Load() != 1 {
		t.Fatalf("expected immediate load, got %d calls", lister.calls.Load())
	}

	deadline := time.Now().Add(3 * time.Second)
	for lister.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if lister.calls.Load() < 2 {
		t.Error("scheduled refresh never ran")
	}
}

// go test -v --run TestStartRejectsBadSpec
func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(memorystore.NewSymbolStore(), []string{"BTCUSDT"}, nil, "not a spec", zap.NewNop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}
