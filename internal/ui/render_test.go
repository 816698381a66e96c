package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tickerdash/internal/market/engine"
	"tickerdash/internal/market/feed"
	"tickerdash/internal/market/memorystore"
	"tickerdash/internal/market/snapshot"
	"tickerdash/internal/market/sortengine"
	"tickerdash/pkg/binance"

	"github.com/gdamore/tcell/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

// line returns the runes drawn on row y.
func line(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func record(symbol, price, change string, dir memorystore.Direction) memorystore.TickerRecord {
	return memorystore.TickerRecord{
		Symbol:           symbol,
		LastPrice:        decimal.RequireFromString(price),
		PercentChange24h: decimal.RequireFromString(change),
		Volume:           decimal.NewFromInt(2500000),
		Direction:        dir,
	}
}

// fakeBackend serves a fixed sorted table.
type fakeBackend struct {
	mu      sync.Mutex
	records []memorystore.TickerRecord
	pulls   []sortengine.Spec
	klines  []binance.Kline
	err     error
}

func (f *fakeBackend) Pull(spec sortengine.Spec) *snapshot.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, spec)
	return &snapshot.Snapshot{Records: sortengine.Sort(f.records, spec), Spec: spec}
}

func (f *fakeBackend) Stats() engine.Stats {
	return engine.Stats{Status: feed.StatusConnected, Symbols: len(f.records)}
}

func (f *fakeBackend) Klines(ctx context.Context, symbol string) ([]binance.Kline, error) {
	return f.klines, f.err
}

func (f *fakeBackend) lastSpec() sortengine.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pulls) == 0 {
		return sortengine.DefaultSpec()
	}
	return f.pulls[len(f.pulls)-1]
}

// go test -v --run TestDrawTable
func TestDrawTable(t *testing.T) {
	s := newScreen(t, 160, 12)
	a := NewApp()
	snap := &snapshot.Snapshot{Records: []memorystore.TickerRecord{
		record("BTCUSDT", "64000.5", "2.456", memorystore.Up),
		record("ETHUSDT", "3000", "-1", memorystore.Down),
	}}

	draw(s, a, frame{snap: snap, stats: engine.Stats{Status: feed.StatusConnected, Symbols: 2}})

	if top := line(s, 0); !strings.Contains(top, "Crypto Tickers") {
		t.Errorf("title missing: %q", top)
	}
	header := line(s, 1)
	for _, col := range []string{"Symbol ▲", "Last", "Change %", "Open", "High", "Low", "Volume"} {
		if !strings.Contains(header, col) {
			t.Errorf("header missing %q: %q", col, header)
		}
	}

	row := line(s, 2)
	if !strings.Contains(row, "BTCUSDT") || !strings.Contains(row, "64000.5") || !strings.Contains(row, "2.46%") || !strings.Contains(row, "2.50M") {
		t.Errorf("unexpected first row: %q", row)
	}

	// last price colored by direction
	x := strings.Index(row, "64000.5")
	_, _, style, _ := s.GetContent(len([]rune(row[:x])), 2)
	if fg, _, _ := style.Decompose(); fg != upColor {
		t.Errorf("up price color = %v, want %v", fg, upColor)
	}

	footer := line(s, 10)
	if !strings.Contains(footer, "(q) quit") || !strings.Contains(footer, "connected") {
		t.Errorf("footer = %q", footer)
	}
}

// go test -v --run TestDrawChart
func TestDrawChart(t *testing.T) {
	s := newScreen(t, 60, 14)
	a := NewApp()
	a.showChart = true
	a.chart = chartState{symbol: "BTCUSDT", klines: []binance.Kline{
		{Close: 1}, {Close: 3}, {Close: 2}, {Close: 5},
	}}

	draw(s, a, frame{})

	if !strings.Contains(line(s, 0), "BTCUSDT") {
		t.Errorf("chart title missing: %q", line(s, 0))
	}
	var summary bool
	for y := 0; y < 14; y++ {
		if strings.Contains(line(s, y), "low 1  high 5  last 5  (4 candles)") {
			summary = true
		}
	}
	if !summary {
		t.Error("chart summary missing")
	}

	a.chart = chartState{symbol: "BTCUSDT", err: errors.New("boom")}
	draw(s, a, frame{})
	if !strings.Contains(line(s, 1), "chart unavailable: boom") {
		t.Errorf("error line = %q", line(s, 1))
	}
}

// go test -v --run TestFormatVolume
func TestFormatVolume(t *testing.T) {
	tests := map[string]string{
		"12.3456":    "12.35",
		"1500":       "1.50K",
		"2500000":    "2.50M",
		"7000000000": "7.00B",
	}
	for in, want := range tests {
		if got := formatVolume(decimal.RequireFromString(in)); got != want {
			t.Errorf("formatVolume(%s) = %s, want %s", in, got, want)
		}
	}
}

// go test -v --run TestRunHandlesKeysAndQuits
func TestRunHandlesKeysAndQuits(t *testing.T) {
	s := newScreen(t, 120, 20)
	backend := &fakeBackend{
		records: []memorystore.TickerRecord{
			record("BTCUSDT", "64000", "2", memorystore.Up),
			record("ETHUSDT", "3000", "-1", memorystore.Down),
		},
		klines: []binance.Kline{{Close: 1}, {Close: 2}},
	}

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), s, backend, 10*time.Millisecond, zap.NewNop()) }()

	s.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if spec := backend.lastSpec(); spec.Column == sortengine.ColumnPrice && !spec.Ascending {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if spec := backend.lastSpec(); spec.Column != sortengine.ColumnPrice || spec.Ascending {
		t.Errorf("sort spec = %s, want Price desc", spec)
	}

	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not quit")
	}
}

// go test -v --run TestRunStopsOnCancel
func TestRunStopsOnCancel(t *testing.T) {
	s := newScreen(t, 80, 10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, s, &fakeBackend{}, 10*time.Millisecond, zap.NewNop()) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
}
