package vkbd

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

const clearScreen = "\x1b[H\x1b[2J"

// TextRenderer draws the keyboard as text. On a terminal it redraws in
// place and clips lines to the terminal width.
type TextRenderer struct {
	w   io.Writer
	fd  int
	tty bool
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	r := &TextRenderer{w: w, fd: -1}
	if f, ok := w.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		r.fd = int(f.Fd())
		r.tty = true
	}
	return r
}

func (r *TextRenderer) Render(v View) {
	var b strings.Builder
	if r.tty {
		b.WriteString(clearScreen)
	}
	if !v.Visible {
		fmt.Fprintf(&b, "%s (hidden)\n", v.Layout.Name)
		io.WriteString(r.w, b.String())
		return
	}
	fmt.Fprintf(&b, "%s @ %d,%d\n", v.Layout.Name, v.X, v.Y)
	width := r.width()
	for ri, row := range v.Layout.Rows {
		var line strings.Builder
		for ci, k := range row.Keys {
			if ri == v.Row && ci == v.Col {
				fmt.Fprintf(&line, "[%s]", k.Label)
			} else {
				fmt.Fprintf(&line, " %s ", k.Label)
			}
		}
		s := line.String()
		if width > 0 && len(s) > width {
			s = s[:width]
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}
	io.WriteString(r.w, b.String())
}

func (r *TextRenderer) width() int {
	if !r.tty {
		return 0
	}
	w, _, err := term.GetSize(r.fd)
	if err != nil {
		return 0
	}
	return w
}
