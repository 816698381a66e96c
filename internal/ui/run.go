package ui

import (
	"context"
	"time"

	"tickerdash/internal/market/engine"
	"tickerdash/internal/market/snapshot"
	"tickerdash/internal/market/sortengine"
	"tickerdash/pkg/binance"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
)

// Backend is the data the dashboard renders; *engine.Engine satisfies it.
type Backend interface {
	Pull(spec sortengine.Spec) *snapshot.Snapshot
	Stats() engine.Stats
	Klines(ctx context.Context, symbol string) ([]binance.Kline, error)
}

type chartResult struct {
	symbol string
	klines []binance.Kline
	err    error
}

// Run draws the dashboard every tick and on every input event until the
// user quits or ctx is done. The screen must already be initialised; Run
// does not finalise it.
func Run(ctx context.Context, screen tcell.Screen, backend Backend, tick time.Duration, logger *zap.Logger) error {
	logger = logger.Named("ui")
	app := NewApp()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	charts := make(chan chartResult, 1)
	chartCtx, cancelChart := context.WithCancel(ctx)
	defer func() { cancelChart() }()

	var cur *snapshot.Snapshot
	changed := map[string]bool{}

	for app.Running() {
		next := backend.Pull(app.Sort())
		if next != cur {
			changed = snapshot.Changed(cur, next)
			cur = next
		}
		draw(screen, app, frame{snap: cur, changed: changed, stats: backend.Stats()})

		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				act := ActionFor(ev)
				wasChart := app.showChart
				app.Apply(act)
				if act == ActionToggleChart && !wasChart && app.showChart {
					cancelChart()
					chartCtx, cancelChart = context.WithCancel(ctx)
					app.chart = chartState{symbol: selectedSymbol(app, cur), loading: true}
					go fetchChart(chartCtx, backend, app.chart.symbol, charts)
				}
			}

		case res := <-charts:
			if res.symbol != app.chart.symbol {
				continue
			}
			if res.err != nil {
				logger.Warn("failed to load chart", zap.String("symbol", res.symbol), zap.Error(res.err))
			}
			app.chart = chartState{symbol: res.symbol, klines: res.klines, err: res.err}

		case <-ticker.C:
		}
	}
	return nil
}

func selectedSymbol(app *App, snap *snapshot.Snapshot) string {
	if snap == nil || len(snap.Records) == 0 {
		return ""
	}
	i := app.Selected()
	if i < 0 || i >= len(snap.Records) {
		i = 0
	}
	return snap.Records[i].Symbol
}

func fetchChart(ctx context.Context, backend Backend, symbol string, out chan chartResult) {
	res := chartResult{symbol: symbol}
	if symbol == "" {
		res.err = errNoSymbol
	} else {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		res.klines, res.err = backend.Klines(ctx, symbol)
		cancel()
	}

	// keep only the newest result
	select {
	case <-out:
	default:
	}
	select {
	case out <- res:
	case <-ctx.Done():
	}
}
