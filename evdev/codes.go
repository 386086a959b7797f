package evdev

import "fmt"

// Linux input event types and codes used by padboard.
// Values sourced from include/uapi/linux/input-event-codes.h.
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03
	EV_MSC = 0x04

	SYN_REPORT = 0
)

// Absolute axes.
const (
	ABS_X     = 0x00
	ABS_Y     = 0x01
	ABS_Z     = 0x02
	ABS_RX    = 0x03
	ABS_RY    = 0x04
	ABS_RZ    = 0x05
	ABS_HAT0X = 0x10
	ABS_HAT0Y = 0x11
)

// Gamepad buttons.
const (
	BTN_A      = 0x130
	BTN_B      = 0x131
	BTN_C      = 0x132
	BTN_X      = 0x133
	BTN_Y      = 0x134
	BTN_Z      = 0x135
	BTN_TL     = 0x136
	BTN_TR     = 0x137
	BTN_TL2    = 0x138
	BTN_TR2    = 0x139
	BTN_SELECT = 0x13a
	BTN_START  = 0x13b
	BTN_MODE   = 0x13c
	BTN_THUMBL = 0x13d
	BTN_THUMBR = 0x13e
)

// Keyboard keys.
const (
	KEY_ESC        = 1
	KEY_1          = 2
	KEY_2          = 3
	KEY_3          = 4
	KEY_4          = 5
	KEY_5          = 6
	KEY_6          = 7
	KEY_7          = 8
	KEY_8          = 9
	KEY_9          = 10
	KEY_0          = 11
	KEY_MINUS      = 12
	KEY_EQUAL      = 13
	KEY_BACKSPACE  = 14
	KEY_TAB        = 15
	KEY_Q          = 16
	KEY_W          = 17
	KEY_E          = 18
	KEY_R          = 19
	KEY_T          = 20
	KEY_Y          = 21
	KEY_U          = 22
	KEY_I          = 23
	KEY_O          = 24
	KEY_P          = 25
	KEY_LEFTBRACE  = 26
	KEY_RIGHTBRACE = 27
	KEY_ENTER      = 28
	KEY_LEFTCTRL   = 29
	KEY_A          = 30
	KEY_S          = 31
	KEY_D          = 32
	KEY_F          = 33
	KEY_G          = 34
	KEY_H          = 35
	KEY_J          = 36
	KEY_K          = 37
	KEY_L          = 38
	KEY_SEMICOLON  = 39
	KEY_APOSTROPHE = 40
	KEY_GRAVE      = 41
	KEY_LEFTSHIFT  = 42
	KEY_BACKSLASH  = 43
	KEY_Z          = 44
	KEY_X          = 45
	KEY_C          = 46
	KEY_V          = 47
	KEY_B          = 48
	KEY_N          = 49
	KEY_M          = 50
	KEY_COMMA      = 51
	KEY_DOT        = 52
	KEY_SLASH      = 53
	KEY_RIGHTSHIFT = 54
	KEY_LEFTALT    = 56
	KEY_SPACE      = 57
	KEY_CAPSLOCK   = 58
	KEY_F1         = 59
	KEY_F2         = 60
	KEY_F3         = 61
	KEY_F4         = 62
	KEY_F5         = 63
	KEY_F6         = 64
	KEY_F7         = 65
	KEY_F8         = 66
	KEY_F9         = 67
	KEY_F10        = 68
	KEY_F11        = 87
	KEY_F12        = 88
	KEY_RIGHTCTRL  = 97
	KEY_RIGHTALT   = 100
	KEY_HOME       = 102
	KEY_UP         = 103
	KEY_PAGEUP     = 104
	KEY_LEFT       = 105
	KEY_RIGHT      = 106
	KEY_END        = 107
	KEY_DOWN       = 108
	KEY_PAGEDOWN   = 109
	KEY_INSERT     = 110
	KEY_DELETE     = 111
	KEY_LEFTMETA   = 125
	KEY_RIGHTMETA  = 126
)

// KeyCodes maps kernel key and button names to their codes.
var KeyCodes = map[string]uint16{
	"KEY_ESC": KEY_ESC, "KEY_1": KEY_1, "KEY_2": KEY_2, "KEY_3": KEY_3, "KEY_4": KEY_4,
	"KEY_5": KEY_5, "KEY_6": KEY_6, "KEY_7": KEY_7, "KEY_8": KEY_8, "KEY_9": KEY_9,
	"KEY_0": KEY_0, "KEY_MINUS": KEY_MINUS, "KEY_EQUAL": KEY_EQUAL,
	"KEY_BACKSPACE": KEY_BACKSPACE, "KEY_TAB": KEY_TAB,

	"KEY_Q": KEY_Q, "KEY_W": KEY_W, "KEY_E": KEY_E, "KEY_R": KEY_R, "KEY_T": KEY_T,
	"KEY_Y": KEY_Y, "KEY_U": KEY_U, "KEY_I": KEY_I, "KEY_O": KEY_O, "KEY_P": KEY_P,
	"KEY_LEFTBRACE": KEY_LEFTBRACE, "KEY_RIGHTBRACE": KEY_RIGHTBRACE, "KEY_ENTER": KEY_ENTER,

	"KEY_A": KEY_A, "KEY_S": KEY_S, "KEY_D": KEY_D, "KEY_F": KEY_F, "KEY_G": KEY_G,
	"KEY_H": KEY_H, "KEY_J": KEY_J, "KEY_K": KEY_K, "KEY_L": KEY_L,
	"KEY_SEMICOLON": KEY_SEMICOLON, "KEY_APOSTROPHE": KEY_APOSTROPHE, "KEY_GRAVE": KEY_GRAVE,

	"KEY_Z": KEY_Z, "KEY_X": KEY_X, "KEY_C": KEY_C, "KEY_V": KEY_V, "KEY_B": KEY_B,
	"KEY_N": KEY_N, "KEY_M": KEY_M, "KEY_COMMA": KEY_COMMA, "KEY_DOT": KEY_DOT,
	"KEY_SLASH": KEY_SLASH, "KEY_BACKSLASH": KEY_BACKSLASH, "KEY_SPACE": KEY_SPACE,

	"KEY_LEFTCTRL": KEY_LEFTCTRL, "KEY_RIGHTCTRL": KEY_RIGHTCTRL,
	"KEY_LEFTSHIFT": KEY_LEFTSHIFT, "KEY_RIGHTSHIFT": KEY_RIGHTSHIFT,
	"KEY_LEFTALT": KEY_LEFTALT, "KEY_RIGHTALT": KEY_RIGHTALT,
	"KEY_LEFTMETA": KEY_LEFTMETA, "KEY_RIGHTMETA": KEY_RIGHTMETA,
	"KEY_CAPSLOCK": KEY_CAPSLOCK,

	"KEY_F1": KEY_F1, "KEY_F2": KEY_F2, "KEY_F3": KEY_F3, "KEY_F4": KEY_F4,
	"KEY_F5": KEY_F5, "KEY_F6": KEY_F6, "KEY_F7": KEY_F7, "KEY_F8": KEY_F8,
	"KEY_F9": KEY_F9, "KEY_F10": KEY_F10, "KEY_F11": KEY_F11, "KEY_F12": KEY_F12,

	"KEY_HOME": KEY_HOME, "KEY_END": KEY_END, "KEY_PAGEUP": KEY_PAGEUP,
	"KEY_PAGEDOWN": KEY_PAGEDOWN, "KEY_INSERT": KEY_INSERT, "KEY_DELETE": KEY_DELETE,
	"KEY_UP": KEY_UP, "KEY_DOWN": KEY_DOWN, "KEY_LEFT": KEY_LEFT, "KEY_RIGHT": KEY_RIGHT,

	"BTN_A": BTN_A, "BTN_B": BTN_B, "BTN_C": BTN_C, "BTN_X": BTN_X, "BTN_Y": BTN_Y,
	"BTN_Z": BTN_Z, "BTN_TL": BTN_TL, "BTN_TR": BTN_TR, "BTN_TL2": BTN_TL2,
	"BTN_TR2": BTN_TR2, "BTN_SELECT": BTN_SELECT, "BTN_START": BTN_START,
	"BTN_MODE": BTN_MODE, "BTN_THUMBL": BTN_THUMBL, "BTN_THUMBR": BTN_THUMBR,
}

var typeNames = map[uint16]string{
	EV_SYN: "EV_SYN",
	EV_KEY: "EV_KEY",
	EV_REL: "EV_REL",
	EV_ABS: "EV_ABS",
	EV_MSC: "EV_MSC",
}

var absNames = map[uint16]string{
	ABS_X:     "ABS_X",
	ABS_Y:     "ABS_Y",
	ABS_Z:     "ABS_Z",
	ABS_RX:    "ABS_RX",
	ABS_RY:    "ABS_RY",
	ABS_RZ:    "ABS_RZ",
	ABS_HAT0X: "ABS_HAT0X",
	ABS_HAT0Y: "ABS_HAT0Y",
}

var keyNames = func() map[uint16]string {
	m := make(map[uint16]string, len(KeyCodes))
	for name, code := range KeyCodes {
		m[code] = name
	}
	return m
}()

// TypeName returns the kernel name of an event type, or its hex value.
func TypeName(typ uint16) string {
	if n, ok := typeNames[typ]; ok {
		return n
	}
	return hexName(typ)
}

// CodeName returns the kernel name of a code within an event type, or its hex value.
func CodeName(typ, code uint16) string {
	var (
		n  string
		ok bool
	)
	switch typ {
	case EV_ABS:
		n, ok = absNames[code]
	case EV_KEY:
		n, ok = keyNames[code]
	case EV_SYN:
		if code == SYN_REPORT {
			n, ok = "SYN_REPORT", true
		}
	}
	if ok {
		return n
	}
	return hexName(code)
}

func hexName(v uint16) string {
	return fmt.Sprintf("0x%04x", v)
}
