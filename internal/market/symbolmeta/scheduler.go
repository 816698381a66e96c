package symbolmeta

import (
	"context"
	"fmt"
	"time"

	"tickerdash/internal/market/memorystore"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec reloads the watchlist once a day at UTC midnight.
const DefaultSpec = "@midnight"

// SymbolLister is a persistent watchlist such as the postgres table.
type SymbolLister interface {
	ListWatchedSymbols(ctx context.Context) ([]string, error)
}

// Scheduler keeps the SymbolStore in sync with the configured watchlist.
type Scheduler struct {
	store   *memorystore.SymbolStore
	static  []string
	lister  SymbolLister // optional
	spec    string
	timeout time.Duration
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewScheduler builds a scheduler. lister may be nil; an empty spec uses DefaultSpec.
func NewScheduler(store *memorystore.SymbolStore, static []string, lister SymbolLister, spec string, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		store:   store,
		static:  static,
		lister:  lister,
		spec:    spec,
		timeout: 10 * time.Second,
		logger:  logger.Named("watchlist"),
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
}

// Refresh loads the watchlist and replaces the store contents. When the
// lister fails the store is left as it was.
func (s *Scheduler) Refresh(ctx context.Context) error {
	symbols := append([]string(nil), s.static...)

	if s.lister != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		stored, err := s.lister.ListWatchedSymbols(ctx)
		if err != nil {
			return fmt.Errorf("load watchlist: %w", err)
		}
		symbols = append(symbols, stored...)
	}

	s.store.Replace(symbols)
	s.logger.Info("watchlist loaded", zap.Int("symbols", len(s.store.GetAll())))
	return nil
}

// Start runs Refresh immediately and then on the cron spec until ctx is done.
// A failed first load is logged; only an invalid spec is returned.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial watchlist load failed", zap.Error(err))
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("watchlist refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid watchlist refresh spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	context.AfterFunc(ctx, func() { s.cron.Stop() })
	return nil
}
