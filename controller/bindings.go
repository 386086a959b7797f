package controller

import "github.com/Alia5/padboard/evdev"

// Binding is what a gamepad button is wired to.
type Binding int

const (
	BindNone Binding = iota
	BindSendKey
	BindHoldKey
	BindCancelHold
	BindShift
	BindCtrl
	BindBackspace
	BindToggleVisibility
)

var bindingNames = map[Binding]string{
	BindNone:             "none",
	BindSendKey:          "send-key",
	BindHoldKey:          "hold-key",
	BindCancelHold:       "cancel-hold",
	BindShift:            "shift",
	BindCtrl:             "ctrl",
	BindBackspace:        "backspace",
	BindToggleVisibility: "toggle-visibility",
}

func (b Binding) String() string {
	if n, ok := bindingNames[b]; ok {
		return n
	}
	return "unknown"
}

// ButtonBindings is the fixed button table. Hold, cancel-hold, shift, ctrl
// and backspace are reserved: they are recognized but do nothing.
var ButtonBindings = map[uint16]Binding{
	evdev.BTN_A:     BindSendKey,
	evdev.BTN_X:     BindHoldKey,
	evdev.BTN_Y:     BindCancelHold,
	evdev.BTN_TL:    BindShift,
	evdev.BTN_TR:    BindCtrl,
	evdev.BTN_B:     BindBackspace,
	evdev.BTN_START: BindToggleVisibility,
}
