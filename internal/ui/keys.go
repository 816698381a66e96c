package ui

import "github.com/gdamore/tcell/v2"

// Action is a user intent decoded from a key press.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionDown
	ActionUp
	ActionNextPalette
	ActionPrevPalette
	ActionCycleSort
	ActionReverseSort
	ActionToggleChart
)

// ActionFor maps a key event to its action.
func ActionFor(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyDown:
		return ActionDown
	case tcell.KeyUp:
		return ActionUp
	case tcell.KeyRight:
		return ActionNextPalette
	case tcell.KeyLeft:
		return ActionPrevPalette
	case tcell.KeyEnter:
		return ActionToggleChart
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return ActionQuit
		case 'j':
			return ActionDown
		case 'k':
			return ActionUp
		case 'l':
			return ActionNextPalette
		case 'h':
			return ActionPrevPalette
		case 's':
			return ActionCycleSort
		case 'r':
			return ActionReverseSort
		}
	}
	return ActionNone
}
