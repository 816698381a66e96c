package sortengine

import (
	"slices"
	"strings"

	"tickerdash/internal/market/memorystore"
)

// Column is a sortable table column.
type Column int

const (
	ColumnSymbol Column = iota
	ColumnPrice
	ColumnChange
	ColumnVolume

	columnCount
)

func (c Column) String() string {
	switch c {
	case ColumnSymbol:
		return "Symbol"
	case ColumnPrice:
		return "Price"
	case ColumnChange:
		return "Change"
	case ColumnVolume:
		return "Volume"
	default:
		return "Unknown"
	}
}

// Next advances Symbol -> Price -> Change -> Volume -> Symbol.
func (c Column) Next() Column {
	return (c + 1) % columnCount
}

// Spec selects the ordering of the ticker table.
type Spec struct {
	Column    Column
	Ascending bool
}

func DefaultSpec() Spec {
	return Spec{Column: ColumnSymbol, Ascending: true}
}

func (s Spec) CycleColumn() Spec {
	s.Column = s.Column.Next()
	return s
}

func (s Spec) Reverse() Spec {
	s.Ascending = !s.Ascending
	return s
}

func (s Spec) String() string {
	if s.Ascending {
		return s.Column.String() + " asc"
	}
	return s.Column.String() + " desc"
}

// Sort returns a new slice ordered by spec. Equal keys fall back to symbol
// ascending regardless of direction, which makes the order total.
func Sort(records []memorystore.TickerRecord, spec Spec) []memorystore.TickerRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b memorystore.TickerRecord) int {
		c := compareKey(a, b, spec.Column)
		if !spec.Ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return out
}

func compareKey(a, b memorystore.TickerRecord, col Column) int {
	switch col {
	case ColumnPrice:
		return a.LastPrice.Cmp(b.LastPrice)
	case ColumnChange:
		// signed 24h change, not the direction indicator
		return a.PercentChange24h.Cmp(b.PercentChange24h)
	case ColumnVolume:
		return a.Volume.Cmp(b.Volume)
	default:
		return strings.Compare(a.Symbol, b.Symbol)
	}
}
