package snapshot

import (
	"sync"
	"sync/atomic"
	"time"

	"tickerdash/internal/market/memorystore"
	"tickerdash/internal/market/sortengine"
)

// Snapshot is an ordered point-in-time copy of the ticker table.
// It is never mutated after publication.
type Snapshot struct {
	Records []memorystore.TickerRecord
	Spec    sortengine.Spec
	Version uint64 // store version observed before copying
	TakenAt time.Time
}

// Source is what the publisher reads from; *memorystore.TickerStore satisfies it.
type Source interface {
	SnapshotAll() []memorystore.TickerRecord
	Version() uint64
}

// Publisher hands the render loop the latest snapshot. Bursts of updates
// between two pulls collapse into one rebuild; nothing is queued.
type Publisher struct {
	src Source

	buildMu  sync.Mutex
	latest   atomic.Pointer[Snapshot]
	previous atomic.Pointer[Snapshot]
	now      func() time.Time
}

func NewPublisher(src Source) *Publisher {
	return &Publisher{src: src, now: time.Now}
}

// Pull returns a snapshot reflecting the store now, ordered by spec.
// The cached snapshot is reused when neither the store nor spec changed.
func (p *Publisher) Pull(spec sortengine.Spec) *Snapshot {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	cur := p.latest.Load()
	version := p.src.Version()
	if cur != nil && cur.Version == version && cur.Spec == spec {
		return cur
	}

	next := &Snapshot{
		Records: sortengine.Sort(p.src.SnapshotAll(), spec),
		Spec:    spec,
		Version: version,
		TakenAt: p.now(),
	}
	if cur != nil {
		p.previous.Store(cur)
	}
	p.latest.Store(next)
	return next
}

// Latest returns the last published snapshot without rebuilding, or nil.
func (p *Publisher) Latest() *Snapshot {
	return p.latest.Load()
}

// Previous returns the snapshot published before Latest, or nil.
func (p *Publisher) Previous() *Snapshot {
	return p.previous.Load()
}

// Changed returns the symbols whose record was updated between prev and cur.
// Symbols new in cur count as changed.
func Changed(prev, cur *Snapshot) map[string]bool {
	out := make(map[string]bool)
	if cur == nil {
		return out
	}
	before := make(map[string]time.Time)
	if prev != nil {
		for _, r := range prev.Records {
			before[r.Symbol] = r.LastUpdatedAt
		}
	}
	for _, r := range cur.Records {
		if t, ok := before[r.Symbol]; !ok || r.LastUpdatedAt.After(t) {
			out[r.Symbol] = true
		}
	}
	return out
}
