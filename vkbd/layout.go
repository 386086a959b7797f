package vkbd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alia5/padboard/evdev"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Key is one key on the on-screen keyboard.
type Key struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	// Name is a kernel key name such as KEY_A; it takes precedence over Code.
	Name string `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	Code uint16 `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
}

type Row struct {
	Keys []Key `json:"keys" yaml:"keys" toml:"keys"`
}

// Layout is a grid of keys, addressed by row then column.
type Layout struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Rows []Row  `json:"rows" yaml:"rows" toml:"rows"`
}

var ErrEmptyLayout = errors.New("layout has no keys")

// Resolve fills in codes from key names and default labels, and checks
// that every row has at least one key with a code.
func (l *Layout) Resolve() error {
	if len(l.Rows) == 0 {
		return ErrEmptyLayout
	}
	for ri := range l.Rows {
		row := &l.Rows[ri]
		if len(row.Keys) == 0 {
			return fmt.Errorf("row %d: %w", ri, ErrEmptyLayout)
		}
		for ki := range row.Keys {
			k := &row.Keys[ki]
			if k.Name != "" {
				code, ok := evdev.KeyCodes[strings.ToUpper(k.Name)]
				if !ok {
					return fmt.Errorf("row %d key %d: unknown key name %q", ri, ki, k.Name)
				}
				k.Code = code
			}
			if k.Code == 0 {
				return fmt.Errorf("row %d key %d: no key code", ri, ki)
			}
			if k.Label == "" {
				k.Label = defaultLabel(k)
			}
		}
	}
	return nil
}

// Codes returns every distinct key code in the layout.
func (l *Layout) Codes() []uint16 {
	seen := map[uint16]bool{}
	var out []uint16
	for _, row := range l.Rows {
		for _, k := range row.Keys {
			if !seen[k.Code] {
				seen[k.Code] = true
				out = append(out, k.Code)
			}
		}
	}
	return out
}

func defaultLabel(k *Key) string {
	name := k.Name
	if name == "" {
		name = evdev.CodeName(evdev.EV_KEY, k.Code)
	}
	return strings.ToLower(strings.TrimPrefix(strings.ToUpper(name), "KEY_"))
}

// LoadLayout reads a layout from a json, yaml or toml file, chosen by extension.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Layout
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &l)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &l)
	case ".toml":
		err = toml.Unmarshal(data, &l)
	default:
		return nil, fmt.Errorf("%s: unsupported layout format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if l.Name == "" {
		l.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := l.Resolve(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &l, nil
}

// DefaultLayout returns a US QWERTY layout.
func DefaultLayout() *Layout {
	row := func(keys ...string) Row {
		r := Row{}
		for _, k := range keys {
			label, name, _ := strings.Cut(k, " ")
			r.Keys = append(r.Keys, Key{Label: label, Name: name})
		}
		return r
	}
	l := &Layout{
		Name: "qwerty",
		Rows: []Row{
			row("1 KEY_1", "2 KEY_2", "3 KEY_3", "4 KEY_4", "5 KEY_5", "6 KEY_6", "7 KEY_7",
				"8 KEY_8", "9 KEY_9", "0 KEY_0", "- KEY_MINUS", "= KEY_EQUAL", "Bksp KEY_BACKSPACE"),
			row("q KEY_Q", "w KEY_W", "e KEY_E", "r KEY_R", "t KEY_T", "y KEY_Y", "u KEY_U",
				"i KEY_I", "o KEY_O", "p KEY_P", "[ KEY_LEFTBRACE", "] KEY_RIGHTBRACE", "\\ KEY_BACKSLASH"),
			row("a KEY_A", "s KEY_S", "d KEY_D", "f KEY_F", "g KEY_G", "h KEY_H", "j KEY_J",
				"k KEY_K", "l KEY_L", "; KEY_SEMICOLON", "' KEY_APOSTROPHE", "Enter KEY_ENTER"),
			row("Shift KEY_LEFTSHIFT", "z KEY_Z", "x KEY_X", "c KEY_C", "v KEY_V", "b KEY_B", "n KEY_N",
				"m KEY_M", ", KEY_COMMA", ". KEY_DOT", "/ KEY_SLASH"),
			row("Esc KEY_ESC", "Tab KEY_TAB", "Ctrl KEY_LEFTCTRL", "Space KEY_SPACE",
				"Left KEY_LEFT", "Down KEY_DOWN", "Up KEY_UP", "Right KEY_RIGHT"),
		},
	}
	if err := l.Resolve(); err != nil {
		panic(err)
	}
	return l
}
