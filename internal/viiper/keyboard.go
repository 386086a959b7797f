package viiper

import (
	"io"

	"github.com/Alia5/padboard/evdev"
)

// Modifier bits of the keyboard report.
const (
	ModLeftCtrl   = 0x01
	ModLeftShift  = 0x02
	ModLeftAlt    = 0x04
	ModLeftGUI    = 0x08
	ModRightCtrl  = 0x10
	ModRightShift = 0x20
	ModRightAlt   = 0x40
	ModRightGUI   = 0x80
)

// LED bits sent back by the host.
const (
	LEDNumLock    = 0x01
	LEDCapsLock   = 0x02
	LEDScrollLock = 0x04
	LEDCompose    = 0x08
	LEDKana       = 0x10
)

// KeyboardState is the pressed-key set of the virtual keyboard, as a
// bitmap of HID usage codes plus modifier bits.
type KeyboardState struct {
	Modifiers uint8
	KeyBitmap [32]uint8
}

func (st *KeyboardState) Press(usage uint8) {
	st.KeyBitmap[usage/8] |= 1 << (usage % 8)
}

func (st *KeyboardState) Release(usage uint8) {
	st.KeyBitmap[usage/8] &^= 1 << (usage % 8)
}

func (st *KeyboardState) Pressed(usage uint8) bool {
	return st.KeyBitmap[usage/8]&(1<<(usage%8)) != 0
}

// Reset releases every key and modifier.
func (st *KeyboardState) Reset() {
	*st = KeyboardState{}
}

// MarshalBinary encodes the state as [modifiers, count, usages...].
func (st *KeyboardState) MarshalBinary() ([]byte, error) {
	b := []byte{st.Modifiers, 0}
	for i := range 256 {
		if st.Pressed(uint8(i)) {
			b = append(b, uint8(i))
		}
	}
	b[1] = uint8(len(b) - 2)
	return b, nil
}

func (st *KeyboardState) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}
	n := int(data[1])
	if len(data) < 2+n {
		return io.ErrUnexpectedEOF
	}
	*st = KeyboardState{Modifiers: data[0]}
	for _, u := range data[2 : 2+n] {
		st.Press(u)
	}
	return nil
}

type LEDState struct {
	NumLock    bool
	CapsLock   bool
	ScrollLock bool
	Compose    bool
	Kana       bool
}

func (st *LEDState) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return io.ErrUnexpectedEOF
	}
	b := data[0]
	st.NumLock = b&LEDNumLock != 0
	st.CapsLock = b&LEDCapsLock != 0
	st.ScrollLock = b&LEDScrollLock != 0
	st.Compose = b&LEDCompose != 0
	st.Kana = b&LEDKana != 0
	return nil
}

var modifierBits = map[uint16]uint8{
	evdev.KEY_LEFTCTRL:   ModLeftCtrl,
	evdev.KEY_LEFTSHIFT:  ModLeftShift,
	evdev.KEY_LEFTALT:    ModLeftAlt,
	evdev.KEY_LEFTMETA:   ModLeftGUI,
	evdev.KEY_RIGHTCTRL:  ModRightCtrl,
	evdev.KEY_RIGHTSHIFT: ModRightShift,
	evdev.KEY_RIGHTALT:   ModRightAlt,
	evdev.KEY_RIGHTMETA:  ModRightGUI,
}

// HID usages, keyboard/keypad page.
var hidUsages = map[uint16]uint8{
	evdev.KEY_A: 0x04, evdev.KEY_B: 0x05, evdev.KEY_C: 0x06, evdev.KEY_D: 0x07,
	evdev.KEY_E: 0x08, evdev.KEY_F: 0x09, evdev.KEY_G: 0x0a, evdev.KEY_H: 0x0b,
	evdev.KEY_I: 0x0c, evdev.KEY_J: 0x0d, evdev.KEY_K: 0x0e, evdev.KEY_L: 0x0f,
	evdev.KEY_M: 0x10, evdev.KEY_N: 0x11, evdev.KEY_O: 0x12, evdev.KEY_P: 0x13,
	evdev.KEY_Q: 0x14, evdev.KEY_R: 0x15, evdev.KEY_S: 0x16, evdev.KEY_T: 0x17,
	evdev.KEY_U: 0x18, evdev.KEY_V: 0x19, evdev.KEY_W: 0x1a, evdev.KEY_X: 0x1b,
	evdev.KEY_Y: 0x1c, evdev.KEY_Z: 0x1d,

	evdev.KEY_1: 0x1e, evdev.KEY_2: 0x1f, evdev.KEY_3: 0x20, evdev.KEY_4: 0x21,
	evdev.KEY_5: 0x22, evdev.KEY_6: 0x23, evdev.KEY_7: 0x24, evdev.KEY_8: 0x25,
	evdev.KEY_9: 0x26, evdev.KEY_0: 0x27,

	evdev.KEY_ENTER:      0x28,
	evdev.KEY_ESC:        0x29,
	evdev.KEY_BACKSPACE:  0x2a,
	evdev.KEY_TAB:        0x2b,
	evdev.KEY_SPACE:      0x2c,
	evdev.KEY_MINUS:      0x2d,
	evdev.KEY_EQUAL:      0x2e,
	evdev.KEY_LEFTBRACE:  0x2f,
	evdev.KEY_RIGHTBRACE: 0x30,
	evdev.KEY_BACKSLASH:  0x31,
	evdev.KEY_SEMICOLON:  0x33,
	evdev.KEY_APOSTROPHE: 0x34,
	evdev.KEY_GRAVE:      0x35,
	evdev.KEY_COMMA:      0x36,
	evdev.KEY_DOT:        0x37,
	evdev.KEY_SLASH:      0x38,
	evdev.KEY_CAPSLOCK:   0x39,

	evdev.KEY_F1: 0x3a, evdev.KEY_F2: 0x3b, evdev.KEY_F3: 0x3c, evdev.KEY_F4: 0x3d,
	evdev.KEY_F5: 0x3e, evdev.KEY_F6: 0x3f, evdev.KEY_F7: 0x40, evdev.KEY_F8: 0x41,
	evdev.KEY_F9: 0x42, evdev.KEY_F10: 0x43, evdev.KEY_F11: 0x44, evdev.KEY_F12: 0x45,

	evdev.KEY_INSERT:   0x49,
	evdev.KEY_HOME:     0x4a,
	evdev.KEY_PAGEUP:   0x4b,
	evdev.KEY_DELETE:   0x4c,
	evdev.KEY_END:      0x4d,
	evdev.KEY_PAGEDOWN: 0x4e,
	evdev.KEY_RIGHT:    0x4f,
	evdev.KEY_LEFT:     0x50,
	evdev.KEY_DOWN:     0x51,
	evdev.KEY_UP:       0x52,
}

// HIDUsage maps a kernel key code to a HID usage or a modifier bit.
// Exactly one of usage and mod is non-zero when ok is true.
func HIDUsage(code uint16) (usage, mod uint8, ok bool) {
	if m, ok := modifierBits[code]; ok {
		return 0, m, true
	}
	u, ok := hidUsages[code]
	return u, 0, ok
}

// Apply records a kernel key event in the state. Repeats (value 2) do not
// change it. It reports false for codes without a HID mapping.
func (st *KeyboardState) Apply(code uint16, value int32) bool {
	usage, mod, ok := HIDUsage(code)
	if !ok {
		return false
	}
	switch {
	case value == 0 && mod != 0:
		st.Modifiers &^= mod
	case value == 0:
		st.Release(usage)
	case value == 1 && mod != 0:
		st.Modifiers |= mod
	case value == 1:
		st.Press(usage)
	}
	return true
}
