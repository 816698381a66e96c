package snapshot

import (
	"context"
	"time"

	"tickerdash/internal/market/memorystore"
	"tickerdash/internal/market/stream"
	"tickerdash/pkg/binance"

	"go.uber.org/zap"
)

// TickerFetcher fetches the 24hr statistics of every symbol.
type TickerFetcher interface {
	GetTickers24h(ctx context.Context) ([]binance.RESTTicker, error)
}

// Loader seeds the ticker table from REST before the stream starts,
// so the first frame shows every symbol instead of filling in gradually.
type Loader struct {
	Fetcher TickerFetcher
	Timeout time.Duration
	Logger  *zap.Logger
}

// Seed fetches all tickers and passes each one to apply.
// It returns the number of seeded symbols.
func (l *Loader) Seed(ctx context.Context, apply func(memorystore.UpdateEvent)) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	tickers, err := l.Fetcher.GetTickers24h(ctx)
	if err != nil {
		l.Logger.Error("failed to load 24h tickers", zap.Error(err))
		return 0, err
	}

	seeded := 0
	for _, t := range tickers {
		ev, err := stream.FromRESTTicker(t)
		if err != nil {
			l.Logger.Warn("skipping seed ticker", zap.String("symbol", t.Symbol), zap.Error(err))
			continue
		}
		apply(ev)
		seeded++
	}
	l.Logger.Info("seeded tickers", zap.Int("count", seeded))

	return seeded, nil
}
