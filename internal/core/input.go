package core

// Action represents a semantic player intent, abstracted from physical keys.
type Action int

const (
	ActionNone    Action = iota
	ActionNext           // Tab, Right - select the next drop
	ActionPrev           // Shift+Tab, Left - select the previous drop
	ActionUp             // Up, K - move the preset cursor
	ActionDown           // Down, J - move the preset cursor
	ActionConfirm        // Enter - submit an answer or start a session
	ActionRestart        // Ctrl+R - abandon the session and pick a preset
	ActionHelp           // ? - toggle the full key help
	ActionQuit           // Esc, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionNext:
		return "Next"
	case ActionPrev:
		return "Prev"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionConfirm:
		return "Confirm"
	case ActionRestart:
		return "Restart"
	case ActionHelp:
		return "Help"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
