package gesture

import "strings"

var toolKeys = map[string]Tool{
	"v": ToolSelect,
	"h": ToolHand,
	"c": ToolConnect,
	"p": ToolPen,
	"e": ToolEraser,
}

// Key maps a keyboard shortcut to intents. Escape cancels an active gesture
// (link draw, marquee, drag) before it clears the selection. Callers must
// not forward keys typed into a label editor.
func (m *Machine) Key(e KeyEvent) []Intent {
	if e.Key == "Escape" {
		if m.idle() {
			return []Intent{Command{Name: CmdDeselect}}
		}
		return m.Cancel()
	}

	lower := strings.ToLower(e.Key)
	if e.Mods.Command() {
		switch lower {
		case "z":
			if e.Mods.Shift {
				return cmd(CmdRedo)
			}
			return cmd(CmdUndo)
		case "y":
			return cmd(CmdRedo)
		case "a":
			return cmd(CmdSelectAll)
		case "d":
			return cmd(CmdDuplicate)
		case "=", "+":
			return cmd(CmdZoomIn)
		case "-":
			return cmd(CmdZoomOut)
		}
		return nil
	}
	if e.Mods.Alt {
		switch e.Key {
		case "ArrowUp":
			return cmd(CmdMoveUp)
		case "ArrowDown":
			return cmd(CmdMoveDown)
		}
		return nil
	}

	switch e.Key {
	case "Tab":
		return cmd(CmdAddChild)
	case "Enter":
		return cmd(CmdAddSibling)
	case "Delete", "Backspace":
		return cmd(CmdDelete)
	case " ":
		return cmd(CmdToggleCollapse)
	case "F2":
		return cmd(CmdEditLabel)
	}
	if lower == "f" {
		return cmd(CmdFitView)
	}
	if t, ok := toolKeys[lower]; ok {
		m.tool = t
		return []Intent{SetTool{Tool: t}}
	}
	return nil
}

func cmd(name CommandName) []Intent {
	return []Intent{Command{Name: name}}
}
