// Command gridflow-term drives a gridflow engine from a raw terminal:
// keystrokes go straight to the controller, and the visible viewport is
// redrawn after every change.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"

	"github.com/closeread/gridflow"
	"github.com/closeread/gridflow/controller"
	"github.com/closeread/gridflow/mode"
)

const (
	viewportRows = 20
	viewportCols = 8
	colWidth     = 12
)

type byteEvent struct {
	b   byte
	err error
}

// ttyInput puts stdin/stdout into raw mode and feeds single bytes to a
// channel, mirroring how a line-oriented REPL reads a terminal but without
// the line-buffering: every keystroke is dispatched as it arrives.
type ttyInput struct {
	in     *os.File
	out    io.Writer
	state  *term.State
	events chan byteEvent
}

func newTTYInput(in io.Reader, out io.Writer) (*ttyInput, bool) {
	inFile, ok := in.(*os.File)
	if !ok {
		return nil, false
	}
	outFile, ok := out.(*os.File)
	if !ok {
		return nil, false
	}
	if !term.IsTerminal(int(inFile.Fd())) || !term.IsTerminal(int(outFile.Fd())) {
		return nil, false
	}
	state, err := term.MakeRaw(int(inFile.Fd()))
	if err != nil {
		return nil, false
	}
	t := &ttyInput{in: inFile, out: out, state: state, events: make(chan byteEvent, 128)}
	go t.readBytes()
	return t, true
}

func (t *ttyInput) Close() {
	if t == nil || t.state == nil {
		return
	}
	_ = term.Restore(int(t.in.Fd()), t.state)
}

func (t *ttyInput) readBytes() {
	defer close(t.events)
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			t.events <- byteEvent{b: buf[0]}
		}
		if err != nil {
			t.events <- byteEvent{err: err}
			return
		}
	}
}

func (t *ttyInput) readByteWithTimeout(d time.Duration) (byte, bool) {
	select {
	case ev, ok := <-t.events:
		if !ok || ev.err != nil {
			return 0, false
		}
		return ev.b, true
	case <-time.After(d):
		return 0, false
	}
}

// nextKey blocks for the next keystroke and decodes escape sequences for
// arrows into named controller.Key values.
func (t *ttyInput) nextKey() (controller.Key, bool) {
	ev, ok := <-t.events
	if !ok || ev.err != nil {
		return controller.Key{}, false
	}
	switch ev.b {
	case '\r', '\n':
		return controller.Key{Name: "Enter"}, true
	case 0x1b:
		next, ok := t.readByteWithTimeout(10 * time.Millisecond)
		if !ok {
			return controller.Key{Name: "Escape"}, true
		}
		if next != '[' && next != 'O' {
			return controller.Key{Name: "Escape"}, true
		}
		code, ok := t.readByteWithTimeout(10 * time.Millisecond)
		if !ok {
			return controller.Key{Name: "Escape"}, true
		}
		switch code {
		case 'A':
			return controller.Key{Name: "Up"}, true
		case 'B':
			return controller.Key{Name: "Down"}, true
		case 'C':
			return controller.Key{Name: "Right"}, true
		case 'D':
			return controller.Key{Name: "Left"}, true
		}
		return controller.Key{Name: "Escape"}, true
	case 0x7f, 0x08:
		return controller.Key{Name: "Backspace"}, true
	case 0x12: // Ctrl+R
		return controller.Key{Name: "r", Ctrl: true}, true
	case 0x03: // Ctrl+C
		return controller.Key{}, false
	default:
		return controller.Key{Rune: rune(ev.b)}, true
	}
}

func main() {
	engine := gridflow.NewEngine(gridflow.DefaultLimits())
	ctrl := controller.New(engine)

	tty, ok := newTTYInput(os.Stdin, os.Stdout)
	if !ok {
		fmt.Fprintln(os.Stderr, "gridflow-term requires an interactive terminal")
		os.Exit(1)
	}
	defer tty.Close()

	render(os.Stdout, engine, ctrl)
	for {
		key, ok := tty.nextKey()
		if !ok {
			break
		}
		ctrl.HandleKey(key)
		render(os.Stdout, engine, ctrl)
	}
	fmt.Fprint(os.Stdout, "\r\n")
}

func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[2J\x1b[H")
}

func render(w io.Writer, engine *gridflow.Engine, ctrl *controller.Controller) {
	clearScreen(w)
	cursor := ctrl.Cursor()
	state := ctrl.Mode()

	fmt.Fprintf(w, "gridflow -- cursor=%s  mode=%s\r\n\r\n", cursor.ToLabel(), tagLabel(state.Tag))

	fmt.Fprint(w, "      ")
	for col := uint32(0); col < viewportCols; col++ {
		fmt.Fprintf(w, "%-*s", colWidth, gridflow.ColumnLabel(col))
	}
	fmt.Fprint(w, "\r\n")

	for row := uint32(0); row < viewportRows; row++ {
		fmt.Fprintf(w, "%-6s", strconv.FormatUint(uint64(row+1), 10))
		for col := uint32(0); col < viewportCols; col++ {
			addr, err := gridflow.NewCellAddress(int(row), int(col))
			if err != nil {
				continue
			}
			text := displayValue(engine.GetValue(addr))
			marker := " "
			if addr == cursor {
				marker = ">"
			}
			fmt.Fprintf(w, "%s%-*s", marker, colWidth-1, truncate(text, colWidth-1))
		}
		fmt.Fprint(w, "\r\n")
	}
}

func tagLabel(tag mode.Tag) string {
	switch tag {
	case mode.TagNavigation:
		return "navigation"
	case mode.TagEditing:
		return "editing"
	case mode.TagCommand:
		return "command"
	case mode.TagResize:
		return "resize"
	default:
		return "unknown"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func displayValue(v gridflow.ComputedValue) string {
	if v.IsError() {
		return v.Err.Kind.String()
	}
	switch v.Kind {
	case gridflow.KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case gridflow.KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case gridflow.KindText:
		return v.Text
	default:
		return ""
	}
}
