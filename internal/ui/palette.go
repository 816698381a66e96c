package ui

import "github.com/gdamore/tcell/v2"

// Slate shades shared by every palette.
var (
	slate200 = tcell.NewHexColor(0xe2e8f0)
	slate900 = tcell.NewHexColor(0x0f172a)
	slate950 = tcell.NewHexColor(0x020617)

	upColor   = tcell.NewHexColor(0x4ade80)
	downColor = tcell.NewHexColor(0xf87171)
)

// Palette is the color set of one dashboard theme.
type Palette struct {
	Name         string
	BufferBg     tcell.Color
	HeaderBg     tcell.Color
	HeaderFg     tcell.Color
	RowFg        tcell.Color
	SelectedFg   tcell.Color
	NormalRow    tcell.Color
	AltRow       tcell.Color
	FooterBorder tcell.Color
}

func newPalette(name string, c400, c900 int32) Palette {
	accent := tcell.NewHexColor(c400)
	return Palette{
		Name:         name,
		BufferBg:     slate950,
		HeaderBg:     tcell.NewHexColor(c900),
		HeaderFg:     slate200,
		RowFg:        slate200,
		SelectedFg:   accent,
		NormalRow:    slate950,
		AltRow:       slate900,
		FooterBorder: accent,
	}
}

// Palettes cycled with the left and right keys.
var Palettes = []Palette{
	newPalette("blue", 0x60a5fa, 0x1e3a8a),
	newPalette("emerald", 0x34d399, 0x064e3b),
	newPalette("indigo", 0x818cf8, 0x312e81),
	newPalette("red", 0xf87171, 0x7f1d1d),
}

func (p Palette) header() tcell.Style {
	return tcell.StyleDefault.Foreground(p.HeaderFg).Background(p.HeaderBg).Bold(true)
}

func (p Palette) row(i int) tcell.Style {
	bg := p.NormalRow
	if i%2 == 1 {
		bg = p.AltRow
	}
	return tcell.StyleDefault.Foreground(p.RowFg).Background(bg)
}

func (p Palette) selected() tcell.Style {
	return tcell.StyleDefault.Foreground(p.SelectedFg).Background(p.BufferBg).Reverse(true)
}

func (p Palette) buffer() tcell.Style {
	return tcell.StyleDefault.Foreground(p.RowFg).Background(p.BufferBg)
}

func (p Palette) border() tcell.Style {
	return tcell.StyleDefault.Foreground(p.FooterBorder).Background(p.BufferBg)
}
