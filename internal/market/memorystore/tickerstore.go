package memorystore

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// TickerStore is the authoritative per-symbol ticker table.
//
// Rows are replaced whole on every write (copy-on-mutate), so a reader
// sees either the previous or the next record of a symbol, never a mix.
// The table lock is only taken exclusively when a new symbol appears.
type TickerStore struct {
	writeMu  sync.Mutex // one writer at a time
	globalMu sync.RWMutex
	data     map[string]*tickerRow

	version atomic.Uint64
	now     func() time.Time
}

type tickerRow struct {
	cur atomic.Pointer[TickerRecord]
}

func NewTickerStore() *TickerStore {
	return &TickerStore{
		data: make(map[string]*tickerRow),
		now:  time.Now,
	}
}

// Apply folds one update into the record for ev.Symbol, creating it on first sight.
// A non-nil *StateInvariantViolation means the record was updated with corrected values.
func (s *TickerStore) Apply(ev UpdateEvent) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var violation error
	price := ev.Price
	if price.IsNegative() {
		violation = &StateInvariantViolation{Symbol: ev.Symbol, Reason: "negative price " + price.String()}
		price = decimal.Zero
	}

	row := s.row(ev.Symbol)

	next := TickerRecord{Symbol: ev.Symbol}
	if prev := row.cur.Load(); prev != nil {
		next = *prev
		next.PreviousPrice = prev.LastPrice
	} else {
		next.PreviousPrice = price
	}

	next.LastPrice = price
	next.Direction = directionOf(next.LastPrice, next.PreviousPrice)
	if ev.HasVolume {
		next.Volume = ev.Volume
	}
	if ev.HasPercentChange {
		next.PercentChange24h = ev.PercentChange
	}
	if !ev.Open.IsZero() {
		next.Open = ev.Open
	}
	if !ev.High.IsZero() {
		next.High = ev.High
	}
	if !ev.Low.IsZero() {
		next.Low = ev.Low
	}
	if !ev.EventTime.IsZero() {
		next.EventTime = ev.EventTime
	}
	next.LastUpdatedAt = s.now()
	next.Updates++

	row.cur.Store(&next)
	s.version.Add(1)

	return violation
}

// row returns the row for symbol, inserting an empty one if needed.
func (s *TickerStore) row(symbol string) *tickerRow {
	// Fast path: shared lock only
	s.globalMu.RLock()
	r, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if ok {
		return r
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	if r, ok = s.data[symbol]; !ok {
		r = &tickerRow{}
		s.data[symbol] = r
	}
	return r
}

// Get returns a copy of the record for symbol.
func (s *TickerStore) Get(symbol string) (TickerRecord, bool) {
	s.globalMu.RLock()
	r, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if !ok {
		return TickerRecord{}, false
	}
	rec := r.cur.Load()
	if rec == nil {
		return TickerRecord{}, false
	}
	return *rec, true
}

// SnapshotAll returns a copy of every record, ordered by symbol.
func (s *TickerStore) SnapshotAll() []TickerRecord {
	s.globalMu.RLock()
	out := make([]TickerRecord, 0, len(s.data))
	for _, r := range s.data {
		if rec := r.cur.Load(); rec != nil {
			out = append(out, *rec)
		}
	}
	s.globalMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of tracked symbols.
func (s *TickerStore) Len() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	n := 0
	for _, r := range s.data {
		if r.cur.Load() != nil {
			n++
		}
	}
	return n
}

// Version increases by one for every applied event.
func (s *TickerStore) Version() uint64 {
	return s.version.Load()
}
