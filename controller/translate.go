package controller

import "github.com/Alia5/padboard/evdev"

// ActionKind enumerates the effects a single raw event can have.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCursorLeft
	ActionCursorRight
	ActionCursorUp
	ActionCursorDown
	ActionStickX
	ActionStickY
	ActionSendKey
	ActionShow
	ActionHide
	ActionReserved
)

var actionNames = map[ActionKind]string{
	ActionNone:        "none",
	ActionCursorLeft:  "cursor-left",
	ActionCursorRight: "cursor-right",
	ActionCursorUp:    "cursor-up",
	ActionCursorDown:  "cursor-down",
	ActionStickX:      "stick-x",
	ActionStickY:      "stick-y",
	ActionSendKey:     "send-key",
	ActionShow:        "show",
	ActionHide:        "hide",
	ActionReserved:    "reserved",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return "unknown"
}

// Action is the semantic result of translating one raw event.
type Action struct {
	Kind ActionKind
	// Axis is the normalized stick value for ActionStickX and ActionStickY.
	Axis float64
	// Value is the raw key payload for ActionSendKey.
	Value int32
	// Binding is set for button actions.
	Binding Binding
}

// Translate maps one raw event to exactly one action. Anything not in the
// table resolves to ActionNone; it never fails.
func Translate(ev evdev.Event) Action {
	switch ev.Type {
	case evdev.EV_ABS:
		return translateAbs(ev)
	case evdev.EV_KEY:
		return translateKey(ev)
	default:
		return Action{}
	}
}

func translateAbs(ev evdev.Event) Action {
	switch ev.Code {
	case evdev.ABS_HAT0X:
		switch ev.Value {
		case -1:
			return Action{Kind: ActionCursorLeft}
		case 1:
			return Action{Kind: ActionCursorRight}
		}
	case evdev.ABS_HAT0Y:
		switch ev.Value {
		case -1:
			return Action{Kind: ActionCursorUp}
		case 1:
			return Action{Kind: ActionCursorDown}
		}
	case evdev.ABS_RX:
		return Action{Kind: ActionStickX, Axis: normalizeAxis(ev.Value, AxisScale)}
	case evdev.ABS_RY:
		// Stick Y grows downwards on the device; the keyboard's does not.
		return Action{Kind: ActionStickY, Axis: normalizeAxis(ev.Value, -AxisScale)}
	}
	return Action{}
}

func translateKey(ev evdev.Event) Action {
	b, ok := ButtonBindings[ev.Code]
	if !ok {
		return Action{}
	}
	switch b {
	case BindSendKey:
		return Action{Kind: ActionSendKey, Value: ev.Value, Binding: b}
	case BindToggleVisibility:
		if ev.Value != 0 {
			return Action{Kind: ActionShow, Binding: b}
		}
		return Action{Kind: ActionHide, Binding: b}
	default:
		return Action{Kind: ActionReserved, Binding: b}
	}
}

// normalizeAxis applies the deadzone: magnitudes up to Deadzone read as 0.
func normalizeAxis(v int32, scale float64) float64 {
	mag := int64(v)
	if mag < 0 {
		mag = -mag
	}
	if mag <= Deadzone {
		return 0
	}
	return float64(v) / scale
}
