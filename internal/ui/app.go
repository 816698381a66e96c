package ui

import (
	"errors"

	"tickerdash/internal/market/sortengine"
	"tickerdash/pkg/binance"
)

// Mode of the render loop.
type Mode int

const (
	ModeRunning Mode = iota
	ModeQuit
)

// chartState is the kline view of one symbol.
type chartState struct {
	symbol  string
	klines  []binance.Kline
	err     error
	loading bool
}

// App is the view state. It is owned by the render loop goroutine.
type App struct {
	mode      Mode
	selected  int // -1 until the first move
	offset    int // first visible row
	rows      int
	palette   int
	sort      sortengine.Spec
	showChart bool
	chart     chartState
}

func NewApp() *App {
	return &App{
		selected: -1,
		palette:  2,
		sort:     sortengine.DefaultSpec(),
	}
}

// Apply updates the state for act.
func (a *App) Apply(act Action) {
	switch act {
	case ActionQuit:
		a.mode = ModeQuit
	case ActionDown:
		a.Next()
	case ActionUp:
		a.Previous()
	case ActionNextPalette:
		a.palette = (a.palette + 1) % len(Palettes)
	case ActionPrevPalette:
		a.palette = (a.palette + len(Palettes) - 1) % len(Palettes)
	case ActionCycleSort:
		a.sort = a.sort.CycleColumn()
	case ActionReverseSort:
		a.sort = a.sort.Reverse()
	case ActionToggleChart:
		a.showChart = !a.showChart
	}
}

func (a *App) Running() bool {
	return a.mode != ModeQuit
}

// Next moves the selection down, wrapping to the first row.
func (a *App) Next() {
	if a.rows == 0 {
		return
	}
	if a.selected < 0 || a.selected >= a.rows-1 {
		a.selected = 0
		return
	}
	a.selected++
}

// Previous moves the selection up, wrapping to the last row.
func (a *App) Previous() {
	if a.rows == 0 {
		return
	}
	if a.selected <= 0 {
		a.selected = a.rows - 1
		return
	}
	a.selected--
}

// SetRows records the table length and keeps the selection inside it.
func (a *App) SetRows(n int) {
	a.rows = n
	if a.selected >= n {
		a.selected = n - 1
	}
}

// scroll keeps the selection within a window of visible rows.
func (a *App) scroll(visible int) {
	if visible <= 0 {
		a.offset = 0
		return
	}
	if a.selected >= 0 {
		if a.selected < a.offset {
			a.offset = a.selected
		}
		if a.selected >= a.offset+visible {
			a.offset = a.selected - visible + 1
		}
	}
	if maxOffset := max(a.rows-visible, 0); a.offset > maxOffset {
		a.offset = maxOffset
	}
}

func (a *App) Palette() Palette {
	return Palettes[a.palette]
}

func (a *App) Sort() sortengine.Spec {
	return a.sort
}

func (a *App) Selected() int {
	return a.selected
}

var errNoSymbol = errors.New("no symbol selected")
