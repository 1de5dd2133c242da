// Package controller wires raw keystrokes through the modal state machine
// and vim-style text buffer into engine operations, translating intents
// into facade/structural calls and emitting its own higher-level events.
package controller

import (
	"strconv"

	"github.com/closeread/gridflow"
	"github.com/closeread/gridflow/internal/glog"
	"github.com/closeread/gridflow/mode"
	"github.com/closeread/gridflow/vimtext"
)

// Key is one keystroke delivered by a terminal/UI adapter.
type Key struct {
	Rune  rune
	Name  string // non-empty for named keys: "Enter", "Escape", "Tab", "Left", "Right", "Up", "Down", "Backspace"
	Shift bool
	Ctrl  bool
}

// ControllerEventKind names the events the controller emits.
type ControllerEventKind int

const (
	EvStateChanged ControllerEventKind = iota
	EvCellValueChanged
	EvCommandExecuted
	EvViewportChanged
	EvError
)

// ControllerEvent is delivered to controller listeners.
type ControllerEvent struct {
	Kind    ControllerEventKind
	State   mode.State
	Address gridflow.CellAddress
	Value   gridflow.ComputedValue
	Command string
	Message string
}

// ControllerListener observes controller events.
type ControllerListener func(ControllerEvent)

// Controller is the interaction layer sitting above Engine: it owns the
// cursor position, the modal state machine, and the active cell's text
// buffer while editing.
type Controller struct {
	engine  *gridflow.Engine
	machine *mode.Machine
	buffer  *vimtext.Buffer

	cursor       gridflow.CellAddress
	pendingCount string
	editingAddr  gridflow.CellAddress

	awaitingOperatorArg bool
	pendingOperator     vimtext.Operator
	pendingOpCount      int

	awaitingTextObject  bool
	pendingObjectPrefix rune

	listeners []ControllerListener
	log       *glog.Logger
}

// New builds a controller driving engine, starting at the top-left cell.
func New(engine *gridflow.Engine) *Controller {
	c := &Controller{
		engine:  engine,
		machine: mode.NewMachine(),
		log:     glog.New("controller"),
	}
	c.machine.Subscribe(func(next, prev mode.State) {
		c.emit(ControllerEvent{Kind: EvStateChanged, State: next})
	})
	return c
}

// Subscribe registers a listener for controller events.
func (c *Controller) Subscribe(l ControllerListener) {
	c.listeners = append(c.listeners, l)
}

func (c *Controller) emit(e ControllerEvent) {
	for _, l := range c.listeners {
		c.dispatchSafely(l, e)
	}
}

func (c *Controller) dispatchSafely(l ControllerListener, e ControllerEvent) {
	defer func() { recover() }()
	l(e)
}

// Cursor returns the currently-selected cell.
func (c *Controller) Cursor() gridflow.CellAddress { return c.cursor }

// Mode returns the machine's current state.
func (c *Controller) Mode() mode.State { return c.machine.Current() }

// HandleKey is the controller's single entry point: it dispatches by
// mode, wraps any facade mutation in an implicit batch, and reports
// whatever state resulted.
func (c *Controller) HandleKey(k Key) mode.State {
	id := c.engine.BeginBatch()
	defer func() {
		if err := c.engine.CommitBatch(id); err != nil {
			c.emit(ControllerEvent{Kind: EvError, Message: err.Error()})
		}
	}()

	switch c.machine.Current().Tag {
	case mode.TagNavigation:
		c.handleNavigation(k)
	case mode.TagEditing:
		c.handleEditing(k)
	case mode.TagCommand:
		c.handleCommand(k)
	case mode.TagResize:
		c.handleResize(k)
	}
	return c.machine.Current()
}

func (c *Controller) handleNavigation(k Key) {
	if k.Name == "Escape" {
		c.pendingCount = ""
		return
	}
	if k.Rune >= '1' && k.Rune <= '9' || (k.Rune == '0' && c.pendingCount != "") {
		c.pendingCount += string(k.Rune)
		return
	}
	count := c.consumeCount()

	switch {
	case k.Name == "Left" || k.Rune == 'h':
		c.moveCursor(0, -count)
	case k.Name == "Right" || k.Rune == 'l':
		c.moveCursor(0, count)
	case k.Name == "Up" || k.Rune == 'k':
		c.moveCursor(-count, 0)
	case k.Name == "Down" || k.Rune == 'j':
		c.moveCursor(count, 0)
	case k.Name == "Enter" || k.Rune == 'i':
		c.startEditing()
	case k.Rune == ':':
		c.machine.Handle(mode.EvToggleInteractionMode, nil)
	case k.Rune == 'x':
		if err := c.engine.DeleteCell(c.cursor); err != nil {
			c.emit(ControllerEvent{Kind: EvError, Message: err.Error()})
			return
		}
		c.emit(ControllerEvent{Kind: EvCellValueChanged, Address: c.cursor, Value: c.engine.GetValue(c.cursor)})
	case k.Rune == 'u':
		c.engine.Undo()
		c.emit(ControllerEvent{Kind: EvCellValueChanged, Address: c.cursor, Value: c.engine.GetValue(c.cursor)})
	case k.Ctrl && k.Rune == 'r':
		c.engine.Redo()
		c.emit(ControllerEvent{Kind: EvCellValueChanged, Address: c.cursor, Value: c.engine.GetValue(c.cursor)})
	}
}

func (c *Controller) consumeCount() int {
	if c.pendingCount == "" {
		return 1
	}
	n, err := strconv.Atoi(c.pendingCount)
	c.pendingCount = ""
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (c *Controller) moveCursor(dRow, dCol int) {
	row := int(c.cursor.Row) + dRow
	col := int(c.cursor.Col) + dCol
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	addr, err := gridflow.NewCellAddress(row, col)
	if err != nil {
		return
	}
	c.cursor = addr
	c.emit(ControllerEvent{Kind: EvViewportChanged, Address: addr})
}

func (c *Controller) startEditing() {
	c.editingAddr = c.cursor
	existing := ""
	if cell, ok := c.engine.GetCell(c.cursor); ok {
		existing = cell.Raw.Text
		if cell.Raw.Kind != gridflow.KindFormula {
			existing = rawDisplayText(cell.Raw)
		}
	}
	c.buffer = vimtext.NewBuffer(existing)
	c.machine.Handle(mode.EvStartEditing, nil)
}

func rawDisplayText(raw gridflow.RawValue) string {
	switch raw.Kind {
	case gridflow.KindNumber:
		return strconv.FormatFloat(raw.Number, 'g', -1, 64)
	case gridflow.KindBool:
		if raw.Bool {
			return "TRUE"
		}
		return "FALSE"
	case gridflow.KindText:
		return raw.Text
	default:
		return ""
	}
}

func (c *Controller) handleEditing(k Key) {
	st := c.machine.Current()
	if k.Name == "Escape" {
		c.machine.Handle(mode.EvEscape, nil)
		if c.machine.Current().Tag == mode.TagNavigation {
			c.commitEdit()
		}
		return
	}
	if k.Name == "Enter" && st.EditMode != mode.EditInsert {
		c.machine.Handle(mode.EvStopEditing, nil)
		c.commitEdit()
		return
	}

	switch st.EditMode {
	case mode.EditInsert:
		c.handleInsertKey(k)
	case mode.EditNormal:
		c.handleNormalEditKey(k)
	case mode.EditVisual, mode.EditVisualBlock:
		c.handleVisualKey(k)
	}
}

func (c *Controller) handleInsertKey(k Key) {
	switch {
	case k.Name == "Backspace":
		c.buffer.Backspace()
	case k.Name == "Enter":
		c.machine.Handle(mode.EvExitInsert, nil)
		c.machine.Handle(mode.EvStopEditing, nil)
		c.commitEdit()
	case k.Rune != 0:
		c.buffer.Insert(string(k.Rune))
	}
}

func (c *Controller) handleNormalEditKey(k Key) {
	if c.awaitingTextObject {
		c.resolveTextObject(k)
		return
	}
	if c.awaitingOperatorArg {
		c.resolveOperatorArg(k)
		return
	}
	if k.Rune >= '1' && k.Rune <= '9' || (k.Rune == '0' && c.pendingCount != "") {
		c.pendingCount += string(k.Rune)
		return
	}
	count := c.consumeCount()

	switch k.Rune {
	case 'i':
		c.machine.Handle(mode.EvEnterInsert, nil)
		c.buffer.EnterInsert()
	case 'a':
		c.machine.Handle(mode.EvEnterInsert, nil)
		c.buffer.EnterInsert()
		c.buffer.ApplyMotion(vimtext.MotionRight, 1)
	case 'v':
		c.machine.Handle(mode.EvEnterVisual, c.buffer.Cursor)
		c.buffer.EnterVisual()
	case 'h':
		c.buffer.ApplyMotion(vimtext.MotionLeft, count)
	case 'l':
		c.buffer.ApplyMotion(vimtext.MotionRight, count)
	case 'w':
		c.buffer.ApplyMotion(vimtext.MotionWordForward, count)
	case 'b':
		c.buffer.ApplyMotion(vimtext.MotionWordBack, count)
	case 'e':
		c.buffer.ApplyMotion(vimtext.MotionWordEnd, count)
	case '0':
		c.buffer.Goto(vimtext.MotionLineStart)
	case '$':
		c.buffer.Goto(vimtext.MotionLineEnd)
	case 'x':
		c.buffer.DeleteUnderCursor()
	case 'p':
		c.buffer.Paste()
	case 'P':
		c.buffer.PasteBefore()
	case 'd', 'c', 'y':
		c.handleOperator(opFromRune(k.Rune), count)
	}
}

func opFromRune(r rune) vimtext.Operator {
	switch r {
	case 'c':
		return vimtext.OpChange
	case 'y':
		return vimtext.OpYank
	default:
		return vimtext.OpDelete
	}
}

// handleOperator parks op awaiting its motion/text-object/doubled form,
// which arrives on the controller's next HandleKey call (dw, d3w, dd,
// di", daw all span two keystrokes' worth of input).
func (c *Controller) handleOperator(op vimtext.Operator, count int) {
	c.pendingOperator = op
	c.pendingOpCount = count
	c.awaitingOperatorArg = true
}

var operatorDoubleRune = map[vimtext.Operator]rune{
	vimtext.OpDelete: 'd', vimtext.OpChange: 'c', vimtext.OpYank: 'y',
}

// resolveOperatorArg consumes the keystroke that completes a pending
// operator: the same letter doubled (dd/cc/yy, whole line), a motion
// (dw, d$, ...), or an i/a text-object prefix (diw, da", di().
func (c *Controller) resolveOperatorArg(k Key) {
	op, count := c.pendingOperator, c.pendingOpCount
	c.awaitingOperatorArg = false

	if k.Rune == operatorDoubleRune[op] {
		c.buffer.ApplyOperatorLine(op)
		c.finishOperator(op)
		return
	}
	if k.Rune == 'i' || k.Rune == 'a' {
		c.pendingOperator, c.pendingOpCount = op, count
		c.pendingObjectPrefix = k.Rune
		c.awaitingTextObject = true
		return
	}
	if m, ok := motionFromRune(k.Rune); ok {
		c.buffer.ApplyOperatorMotion(op, m, count)
		c.finishOperator(op)
	}
}

func motionFromRune(r rune) (vimtext.Motion, bool) {
	switch r {
	case 'h':
		return vimtext.MotionLeft, true
	case 'l':
		return vimtext.MotionRight, true
	case 'w':
		return vimtext.MotionWordForward, true
	case 'b':
		return vimtext.MotionWordBack, true
	case 'e':
		return vimtext.MotionWordEnd, true
	case '0':
		return vimtext.MotionLineStart, true
	case '$':
		return vimtext.MotionLineEnd, true
	default:
		return 0, false
	}
}

// resolveTextObject consumes the delimiter keystroke that names a text
// object after an i/a prefix: w (word), " (quote), ( or ) (paren pair).
func (c *Controller) resolveTextObject(k Key) {
	c.awaitingTextObject = false
	op := c.pendingOperator
	around := c.pendingObjectPrefix == 'a'

	var obj vimtext.TextObject
	switch k.Rune {
	case 'w':
		obj = pickObject(around, vimtext.ObjInnerWord, vimtext.ObjAWord)
	case '"':
		obj = pickObject(around, vimtext.ObjInnerQuote, vimtext.ObjAQuote)
	case '(', ')':
		obj = pickObject(around, vimtext.ObjInnerParen, vimtext.ObjAParen)
	default:
		return
	}
	c.buffer.ApplyOperatorObject(op, obj)
	c.finishOperator(op)
}

func pickObject(around bool, inner, outer vimtext.TextObject) vimtext.TextObject {
	if around {
		return outer
	}
	return inner
}

func (c *Controller) finishOperator(op vimtext.Operator) {
	if op == vimtext.OpChange {
		c.machine.Handle(mode.EvEnterInsert, nil)
	}
}

func (c *Controller) handleVisualKey(k Key) {
	switch k.Rune {
	case 'h':
		c.buffer.ApplyMotion(vimtext.MotionLeft, 1)
	case 'l':
		c.buffer.ApplyMotion(vimtext.MotionRight, 1)
	case 'w':
		c.buffer.ApplyMotion(vimtext.MotionWordForward, 1)
	case 'd', 'x':
		c.buffer.ApplyOperatorVisual(vimtext.OpDelete)
		c.machine.Handle(mode.EvExitVisual, nil)
	case 'y':
		c.buffer.ApplyOperatorVisual(vimtext.OpYank)
		c.machine.Handle(mode.EvExitVisual, nil)
	case 'c':
		c.buffer.ApplyOperatorVisual(vimtext.OpChange)
		c.machine.Handle(mode.EvExitVisual, nil)
		c.machine.Handle(mode.EvEnterInsert, nil)
	}
}

func (c *Controller) commitEdit() {
	if c.buffer == nil {
		return
	}
	text := c.buffer.String()
	if err := c.engine.SetCell(c.editingAddr, text); err != nil {
		c.emit(ControllerEvent{Kind: EvError, Message: err.Error()})
		return
	}
	c.emit(ControllerEvent{Kind: EvCellValueChanged, Address: c.editingAddr, Value: c.engine.GetValue(c.editingAddr)})
	c.buffer = nil
}

func (c *Controller) handleCommand(k Key) {
	switch {
	case k.Name == "Escape":
		c.machine.Handle(mode.EvToggleInteractionMode, nil)
	case k.Name == "Enter":
		st := c.machine.Current()
		cmd := st.CommandBuffer
		c.machine.Handle(mode.EvToggleInteractionMode, nil)
		c.emit(ControllerEvent{Kind: EvCommandExecuted, Command: cmd})
	case k.Name == "Backspace":
		st := c.machine.Current()
		if len(st.CommandBuffer) > 0 {
			st.CommandBuffer = st.CommandBuffer[:len(st.CommandBuffer)-1]
			c.machine.UpdateCurrent(st)
		}
	case k.Rune != 0:
		st := c.machine.Current()
		st.CommandBuffer += string(k.Rune)
		c.machine.UpdateCurrent(st)
	}
}

func (c *Controller) handleResize(k Key) {
	st := c.machine.Current()
	switch {
	case k.Name == "Escape" || k.Name == "Enter":
		c.machine.Handle(mode.EvExitResize, nil)
		return
	case k.Name == "Left" || k.Name == "Up":
		st.CurrentSize--
	case k.Name == "Right" || k.Name == "Down":
		st.CurrentSize++
	default:
		return
	}
	c.machine.UpdateCurrent(st)
}
