package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"tickerdash/config"
	"tickerdash/internal/market/feed"
	"tickerdash/internal/market/memorystore"
	"tickerdash/internal/market/snapshot"
	"tickerdash/internal/market/sortengine"
	"tickerdash/internal/market/stream"
	"tickerdash/internal/market/symbolmeta"
	"tickerdash/pkg/binance"
	"tickerdash/pkg/kafkafeed"
	"tickerdash/pkg/redisfeed"
	"tickerdash/pkg/storage/postgres"

	"go.uber.org/zap"
)

// KlineFetcher loads candlesticks for the chart view.
type KlineFetcher interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]binance.Kline, error)
}

// Stats is the feed health shown in the dashboard footer.
type Stats struct {
	Status     feed.Status
	Session    string
	Reconnects int64
	Violations int64
	Symbols    int
}

// Engine wires the feed into the ticker table and publishes snapshots.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger

	store     *memorystore.TickerStore
	watchlist *memorystore.SymbolStore
	publisher *snapshot.Publisher
	feed      *feed.Client
	loader    *snapshot.Loader // nil when seeding is off
	scheduler *symbolmeta.Scheduler
	klines    KlineFetcher
	db        *postgres.PostgresClient // nil unless postgres.enabled

	violations atomic.Int64
}

// New builds the engine for cfg.Feed.Source. When postgres is enabled the
// watchlist table is created and migrated here.
func New(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	source, err := newSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	rest := binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout)

	var fetcher snapshot.TickerFetcher
	if cfg.Feed.Source == config.SourceBinance && cfg.Binance.REST.Seed {
		fetcher = rest
	}

	var db *postgres.PostgresClient
	if cfg.Postgres.Enabled {
		db, err = postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment)
		if err != nil {
			return nil, fmt.Errorf("watchlist database: %w", err)
		}
	}

	e, err := newEngine(cfg, logger, source, fetcher, rest, db)
	if err != nil && db != nil {
		_ = db.Close()
	}
	return e, err
}

func newSource(cfg *config.Config, logger *zap.Logger) (feed.Source, error) {
	switch cfg.Feed.Source {
	case config.SourceBinance:
		return binance.NewWSSource(cfg.Binance.WS.URL, cfg.Binance.WS.Streams, logger.Named("binance")), nil
	case config.SourceRedis:
		return redisfeed.NewSource(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channels), nil
	case config.SourceKafka:
		return kafkafeed.NewSource(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID), nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Feed.Source)
	}
}

func newEngine(cfg *config.Config, logger *zap.Logger, source feed.Source, fetcher snapshot.TickerFetcher, klines KlineFetcher, db *postgres.PostgresClient) (*Engine, error) {
	decode, err := stream.DecoderFor(cfg.Feed.WireSchema())
	if err != nil {
		return nil, err
	}

	store := memorystore.NewTickerStore()
	watchlist := memorystore.NewSymbolStore(cfg.Watchlist.Symbols...)

	var lister symbolmeta.SymbolLister
	if db != nil {
		lister = db
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		watchlist: watchlist,
		publisher: snapshot.NewPublisher(store),
		feed: feed.NewClient(source, decode, logger,
			feed.WithConnectTimeout(cfg.Feed.ConnectTimeout),
			feed.WithBackoff(feed.NewBackoff(cfg.Feed.Backoff.Initial, cfg.Feed.Backoff.Max, cfg.Feed.Backoff.Multiplier)),
		),
		scheduler: symbolmeta.NewScheduler(watchlist, cfg.Watchlist.Symbols, lister, cfg.Watchlist.Refresh, logger),
		klines:    klines,
		db:        db,
	}
	if fetcher != nil {
		e.loader = &snapshot.Loader{
			Fetcher: fetcher,
			Timeout: cfg.Binance.REST.Timeout,
			Logger:  logger.Named("seed"),
		}
	}
	return e, nil
}

// Run loads the watchlist, seeds the table and streams updates until ctx is
// cancelled. Cancellation is a clean shutdown and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	defer e.close()

	if err := e.scheduler.Start(ctx); err != nil {
		return err
	}

	if e.loader != nil {
		if _, err := e.loader.Seed(ctx, e.apply); err != nil {
			e.logger.Warn("seeding skipped, waiting for stream", zap.Error(err))
		}
	}

	err := e.feed.Run(ctx, e.apply)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// apply is the only writer of the ticker table.
func (e *Engine) apply(ev memorystore.UpdateEvent) {
	if !e.watchlist.Allowed(ev.Symbol) {
		return
	}

	if err := e.store.Apply(ev); err != nil {
		var violation *memorystore.StateInvariantViolation
		if errors.As(err, &violation) {
			e.violations.Add(1)
			e.logger.Warn("invariant violation, record updated", zap.String("symbol", ev.Symbol), zap.Error(err))
			return
		}
		e.logger.Warn("update rejected", zap.String("symbol", ev.Symbol), zap.Error(err))
	}
}

func (e *Engine) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Warn("failed to close watchlist database", zap.Error(err))
		}
	}
}

func (e *Engine) Publisher() *snapshot.Publisher {
	return e.publisher
}

// Pull returns the latest snapshot sorted by spec.
func (e *Engine) Pull(spec sortengine.Spec) *snapshot.Snapshot {
	return e.publisher.Pull(spec)
}

func (e *Engine) FeedStatus() feed.Status {
	return e.feed.Status()
}

func (e *Engine) Stats() Stats {
	return Stats{
		Status:     e.feed.Status(),
		Session:    e.feed.Session(),
		Reconnects: e.feed.Reconnects(),
		Violations: e.violations.Load(),
		Symbols:    e.store.Len(),
	}
}

// Klines fetches the chart candles of symbol.
func (e *Engine) Klines(ctx context.Context, symbol string) ([]binance.Kline, error) {
	if e.klines == nil {
		return nil, errors.New("chart data unavailable")
	}
	return e.klines.GetKlines(ctx, symbol, e.cfg.Render.ChartInterval, e.cfg.Render.ChartCandles)
}
