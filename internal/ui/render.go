package ui

import (
	"fmt"

	"tickerdash/internal/market/engine"
	"tickerdash/internal/market/feed"
	"tickerdash/internal/market/memorystore"
	"tickerdash/internal/market/snapshot"
	"tickerdash/internal/market/sortengine"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
)

const (
	footerHeight = 3
	tableTitle   = " Crypto Tickers "
	helpText     = "(q) quit | (↑/↓) move | (←/→) color | (s) sort | (r) reverse | (Enter) chart"
	chartHelp    = "(Enter) back | (q) quit | (←/→) color"
)

type column struct {
	title string
	width int
	key   sortengine.Column
	sorts bool
	value func(memorystore.TickerRecord) string
}

var columns = []column{
	{title: "Symbol", width: 14, key: sortengine.ColumnSymbol, sorts: true,
		value: func(r memorystore.TickerRecord) string { return r.Symbol }},
	{title: "Last", width: 14, key: sortengine.ColumnPrice, sorts: true,
		value: func(r memorystore.TickerRecord) string { return r.LastPrice.String() }},
	{title: "Change %", width: 11, key: sortengine.ColumnChange, sorts: true,
		value: func(r memorystore.TickerRecord) string { return r.PercentChange24h.StringFixed(2) + "%" }},
	{title: "Open", width: 14,
		value: func(r memorystore.TickerRecord) string { return r.Open.String() }},
	{title: "High", width: 14,
		value: func(r memorystore.TickerRecord) string { return r.High.String() }},
	{title: "Low", width: 14,
		value: func(r memorystore.TickerRecord) string { return r.Low.String() }},
	{title: "Volume", width: 12, key: sortengine.ColumnVolume, sorts: true,
		value: func(r memorystore.TickerRecord) string { return formatVolume(r.Volume) }},
}

// frame is everything one draw needs.
type frame struct {
	snap    *snapshot.Snapshot
	changed map[string]bool
	stats   engine.Stats
}

func draw(s tcell.Screen, a *App, f frame) {
	p := a.Palette()
	w, h := s.Size()
	fill(s, 0, 0, w, h, p.buffer())

	bodyH := h - footerHeight
	if a.showChart {
		drawChart(s, a, 0, 0, w, bodyH)
		drawFooter(s, a, f.stats, chartHelp, 0, bodyH, w)
	} else {
		drawTable(s, a, f, 0, 0, w, bodyH)
		drawFooter(s, a, f.stats, helpText, 0, bodyH, w)
	}
	s.Show()
}

func drawTable(s tcell.Screen, a *App, f frame, x0, y0, w, h int) {
	p := a.Palette()
	if w < 4 || h < 4 {
		return
	}
	box(s, x0, y0, w, h, p.border(), false, tableTitle)

	var records []memorystore.TickerRecord
	if f.snap != nil {
		records = f.snap.Records
	}
	a.SetRows(len(records))
	visible := h - 3
	a.scroll(visible)

	left, right := x0+1, x0+w-1

	// header
	fill(s, left, y0+1, right-left, 1, p.header())
	x := left
	for _, c := range columns {
		title := c.title
		if c.sorts && c.key == a.sort.Column {
			if a.sort.Ascending {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		text(s, x+1, y0+1, min(x+c.width, right), p.header(), title)
		x += c.width
	}

	for k := 0; k < visible; k++ {
		i := a.offset + k
		if i >= len(records) {
			break
		}
		r := records[i]
		y := y0 + 2 + k

		style := p.row(i)
		selected := i == a.selected
		if selected {
			style = p.selected()
		}
		fill(s, left, y, right-left, 1, style)

		x := left
		for ci, c := range columns {
			cell := style
			if ci == 1 && !selected {
				cell = directionStyle(cell, r.Direction)
				if f.changed[r.Symbol] {
					cell = cell.Bold(true)
				}
			}
			text(s, x+1, y, min(x+c.width, right), cell, c.value(r))
			x += c.width
		}
	}

	scrollbar(s, x0+w-1, y0+1, h-2, len(records), visible, a.offset, p.border())
}

func directionStyle(st tcell.Style, d memorystore.Direction) tcell.Style {
	switch d {
	case memorystore.Up:
		return st.Foreground(upColor)
	case memorystore.Down:
		return st.Foreground(downColor)
	default:
		return st
	}
}

func scrollbar(s tcell.Screen, x, y, length, total, visible, offset int, st tcell.Style) {
	if total <= visible || length <= 0 {
		return
	}
	thumb := max(1, visible*length/total)
	pos := offset * (length - thumb) / max(total-visible, 1)
	for i := 0; i < length; i++ {
		r := '│'
		if i >= pos && i < pos+thumb {
			r = '█'
		}
		s.SetContent(x, y+i, r, nil, st)
	}
}

func drawFooter(s tcell.Screen, a *App, stats engine.Stats, help string, x0, y0, w int) {
	p := a.Palette()
	if w < 4 {
		return
	}
	box(s, x0, y0, w, footerHeight, p.border(), true, "")

	status := fmt.Sprintf("%s %s | %d symbols | sort %s | palette %s",
		statusMark(stats.Status), stats.Status, stats.Symbols, a.sort, p.Name)
	if stats.Reconnects > 0 {
		status += fmt.Sprintf(" | reconnects %d", stats.Reconnects)
	}

	inner := w - 4
	helpW := runewidth.StringWidth(help)
	statusW := runewidth.StringWidth(status)
	if helpW+statusW+3 <= inner {
		text(s, x0+2, y0+1, x0+w-2, p.buffer(), help)
		text(s, x0+w-2-statusW, y0+1, x0+w-2, p.buffer().Foreground(p.FooterBorder), status)
		return
	}
	// narrow terminal: status first, help clipped after it
	x := text(s, x0+2, y0+1, x0+w-2, p.buffer().Foreground(p.FooterBorder), status)
	text(s, x, y0+1, x0+w-2, p.buffer(), " | "+help)
}

func statusMark(st feed.Status) string {
	switch st {
	case feed.StatusConnected:
		return "●"
	case feed.StatusConnecting:
		return "◐"
	default:
		return "○"
	}
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

func drawChart(s tcell.Screen, a *App, x0, y0, w, h int) {
	p := a.Palette()
	if w < 4 || h < 4 {
		return
	}
	box(s, x0, y0, w, h, p.border(), false, " "+a.chart.symbol+" ")

	left, top := x0+2, y0+1
	innerW, innerH := w-4, h-3
	switch {
	case a.chart.loading:
		text(s, left, top, left+innerW, p.buffer(), "loading candles...")
		return
	case a.chart.err != nil:
		text(s, left, top, left+innerW, p.buffer().Foreground(downColor), "chart unavailable: "+a.chart.err.Error())
		return
	case len(a.chart.klines) == 0:
		text(s, left, top, left+innerW, p.buffer(), "no candles")
		return
	}

	klines := a.chart.klines
	if len(klines) > innerW {
		klines = klines[len(klines)-innerW:]
	}
	lo, hi := klines[0].Close, klines[0].Close
	for _, k := range klines {
		lo = min(lo, k.Close)
		hi = max(hi, k.Close)
	}

	levels := len(sparkLevels)
	for i, k := range klines {
		height := innerH * levels
		if hi > lo {
			height = int((k.Close-lo)/(hi-lo)*float64(innerH*levels-1)) + 1
		}
		st := p.buffer().Foreground(p.SelectedFg)
		if i > 0 && k.Close < klines[i-1].Close {
			st = p.buffer().Foreground(downColor)
		}
		for row := 0; row < innerH && height > 0; row++ {
			part := min(height, levels)
			s.SetContent(left+i, top+innerH-1-row, sparkLevels[part-1], nil, st)
			height -= part
		}
	}

	last := klines[len(klines)-1].Close
	summary := fmt.Sprintf("low %s  high %s  last %s  (%d candles)",
		formatFloat(lo), formatFloat(hi), formatFloat(last), len(klines))
	text(s, left, top+innerH, left+innerW, p.buffer(), summary)
}

func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// formatVolume abbreviates large volumes, e.g. 1234567 -> 1.23M.
func formatVolume(v decimal.Decimal) string {
	units := []struct {
		suffix string
		size   decimal.Decimal
	}{
		{"B", decimal.New(1, 9)},
		{"M", decimal.New(1, 6)},
		{"K", decimal.New(1, 3)},
	}
	for _, u := range units {
		if v.Abs().GreaterThanOrEqual(u.size) {
			return v.Div(u.size).StringFixed(2) + u.suffix
		}
	}
	return v.StringFixed(2)
}

func fill(s tcell.Screen, x, y, w, h int, st tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, st)
		}
	}
}

// text draws str from x and clips it before maxX. It returns the next column.
func text(s tcell.Screen, x, y, maxX int, st tcell.Style, str string) int {
	for _, r := range str {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > maxX {
			break
		}
		s.SetContent(x, y, r, nil, st)
		x += rw
	}
	return x
}

func box(s tcell.Screen, x, y, w, h int, st tcell.Style, double bool, title string) {
	hz, vt, tl, tr, bl, br := '─', '│', '┌', '┐', '└', '┘'
	if double {
		hz, vt, tl, tr, bl, br = '═', '║', '╔', '╗', '╚', '╝'
	}
	right, bottom := x+w-1, y+h-1
	for col := x + 1; col < right; col++ {
		s.SetContent(col, y, hz, nil, st)
		s.SetContent(col, bottom, hz, nil, st)
	}
	for row := y + 1; row < bottom; row++ {
		s.SetContent(x, row, vt, nil, st)
		s.SetContent(right, row, vt, nil, st)
	}
	s.SetContent(x, y, tl, nil, st)
	s.SetContent(right, y, tr, nil, st)
	s.SetContent(x, bottom, bl, nil, st)
	s.SetContent(right, bottom, br, nil, st)

	if title != "" {
		text(s, x+2, y, right-1, st, title)
	}
}
