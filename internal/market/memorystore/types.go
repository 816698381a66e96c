package memorystore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether a symbol's price rose, fell or held since the previous update.
type Direction int

const (
	Unchanged Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unchanged"
	}
}

// directionOf returns sign(last - previous) as a Direction.
func directionOf(last, previous decimal.Decimal) Direction {
	switch last.Cmp(previous) {
	case 1:
		return Up
	case -1:
		return Down
	default:
		return Unchanged
	}
}

// UpdateEvent is one decoded price update for a single symbol.
// Open, High, Low and EventTime are optional and zero when the feed omits them;
// a zero Open, High or Low is treated as absent and never overwrites the record.
type UpdateEvent struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Volume        decimal.Decimal `json:"volume"`
	PercentChange decimal.Decimal `json:"percent_change"`

	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	EventTime time.Time       `json:"event_time"`

	// HasPercentChange is false when the source did not carry a 24h change;
	// the record then keeps its previous value.
	HasPercentChange bool `json:"-"`
	// HasVolume is false when the source omitted the volume.
	HasVolume bool `json:"-"`
}

// TickerRecord is the per-symbol row of the dashboard.
type TickerRecord struct {
	Symbol           string          `json:"symbol"`
	LastPrice        decimal.Decimal `json:"last_price"`
	PreviousPrice    decimal.Decimal `json:"previous_price"`
	PercentChange24h decimal.Decimal `json:"percent_change_24h"`
	Volume           decimal.Decimal `json:"volume"`
	Direction        Direction       `json:"direction"`
	LastUpdatedAt    time.Time       `json:"last_updated_at"` // local apply time

	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	EventTime time.Time       `json:"event_time"` // feed-reported time, informational
	Updates   uint64          `json:"updates"`
}

// StateInvariantViolation reports an event that broke a record invariant.
// The record is still updated with best-effort values.
type StateInvariantViolation struct {
	Symbol string
	Reason string
}

func (e *StateInvariantViolation) Error() string {
	return fmt.Sprintf("state invariant violation for %s: %s", e.Symbol, e.Reason)
}
