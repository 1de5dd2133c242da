// Package vimtext implements vim-style modal editing of a single-line
// cell string: normal-mode motions and operators, text objects, visual
// selection, and a one-slot clipboard.
package vimtext

// Mode distinguishes normal from insert editing within the buffer.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeVisual
)

// Buffer is one editable cell's text plus cursor and clipboard state.
type Buffer struct {
	Text   []rune
	Cursor int
	Mode   Mode

	visualAnchor int
	hasVisual    bool
	clipboard    string
}

// NewBuffer starts editing initial text with the cursor at its start.
func NewBuffer(initial string) *Buffer {
	return &Buffer{Text: []rune(initial), Cursor: 0, Mode: ModeNormal}
}

// String returns the buffer's current text.
func (b *Buffer) String() string { return string(b.Text) }

// clampNormal keeps the cursor in [0, len-1], or 0 if empty — normal mode
// never parks on the position just past the last character.
func (b *Buffer) clampNormal() {
	if len(b.Text) == 0 {
		b.Cursor = 0
		return
	}
	if b.Cursor < 0 {
		b.Cursor = 0
	}
	if b.Cursor > len(b.Text)-1 {
		b.Cursor = len(b.Text) - 1
	}
}

// clampInsert keeps the cursor in [0, len] — insert mode may sit just
// past the last character.
func (b *Buffer) clampInsert() {
	if b.Cursor < 0 {
		b.Cursor = 0
	}
	if b.Cursor > len(b.Text) {
		b.Cursor = len(b.Text)
	}
}

func (b *Buffer) clamp() {
	if b.Mode == ModeInsert {
		b.clampInsert()
	} else {
		b.clampNormal()
	}
}

// EnterInsert switches to insert mode without moving the cursor.
func (b *Buffer) EnterInsert() {
	b.Mode = ModeInsert
	b.clampInsert()
}

// ExitInsert switches back to normal mode, pulling the cursor back one
// position if it was sitting past the last character.
func (b *Buffer) ExitInsert() {
	b.Mode = ModeNormal
	b.clampNormal()
}

// EnterVisual anchors a visual selection at the current cursor.
func (b *Buffer) EnterVisual() {
	b.Mode = ModeVisual
	b.visualAnchor = b.Cursor
	b.hasVisual = true
}

// ExitVisual drops the selection and returns to normal mode.
func (b *Buffer) ExitVisual() {
	b.Mode = ModeNormal
	b.hasVisual = false
	b.clampNormal()
}

// Selection returns the inclusive [start, end] selection bounds when in
// visual mode.
func (b *Buffer) Selection() (start, end int, ok bool) {
	if !b.hasVisual {
		return 0, 0, false
	}
	start, end = b.visualAnchor, b.Cursor
	if start > end {
		start, end = end, start
	}
	return start, end, true
}

// Insert types text at the cursor (insert mode only) and advances the
// cursor past it.
func (b *Buffer) Insert(text string) {
	runes := []rune(text)
	b.Text = append(b.Text[:b.Cursor], append(runes, b.Text[b.Cursor:]...)...)
	b.Cursor += len(runes)
}

// Backspace deletes the rune before the cursor (insert mode).
func (b *Buffer) Backspace() {
	if b.Cursor == 0 {
		return
	}
	b.Text = append(b.Text[:b.Cursor-1], b.Text[b.Cursor:]...)
	b.Cursor--
}

// DeleteUnderCursor implements normal-mode 'x'.
func (b *Buffer) DeleteUnderCursor() {
	if len(b.Text) == 0 {
		return
	}
	b.Text = append(b.Text[:b.Cursor], b.Text[b.Cursor+1:]...)
	b.clampNormal()
}

// --- motions ---

// Motion names a normal-mode cursor motion.
type Motion int

const (
	MotionLeft Motion = iota
	MotionRight
	MotionWordForward
	MotionWordBack
	MotionWordEnd
	MotionLineStart
	MotionLineEnd
	MotionFileStart
	MotionFileEnd // single-line buffer: same as MotionLineEnd's position class
)

// Move applies a motion count times and returns the resulting cursor
// index without moving the buffer's actual cursor — callers combine this
// with operators (delete/yank/change) before committing a move.
func (b *Buffer) Move(m Motion, count int) int {
	if count < 1 {
		count = 1
	}
	pos := b.Cursor
	for i := 0; i < count; i++ {
		pos = b.moveOnce(m, pos)
	}
	return pos
}

// Goto moves the cursor to an absolute motion target (gg/G).
func (b *Buffer) Goto(m Motion) {
	switch m {
	case MotionFileStart, MotionLineStart:
		b.Cursor = 0
	case MotionFileEnd, MotionLineEnd:
		b.Cursor = max(0, len(b.Text)-1)
	}
	b.clamp()
}

// ApplyMotion moves the cursor by a motion/count, clamping per mode.
func (b *Buffer) ApplyMotion(m Motion, count int) {
	b.Cursor = b.Move(m, count)
	b.clamp()
}

func (b *Buffer) moveOnce(m Motion, pos int) int {
	switch m {
	case MotionLeft:
		if pos > 0 {
			return pos - 1
		}
	case MotionRight:
		limit := len(b.Text) - 1
		if b.Mode == ModeInsert {
			limit = len(b.Text)
		}
		if pos < limit {
			return pos + 1
		}
	case MotionWordForward:
		return wordForward(b.Text, pos)
	case MotionWordBack:
		return wordBack(b.Text, pos)
	case MotionWordEnd:
		return wordEnd(b.Text, pos)
	case MotionLineStart:
		return 0
	case MotionLineEnd:
		return max(0, len(b.Text)-1)
	}
	return pos
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

func isWordChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func classOf(r rune) int {
	switch {
	case isSpace(r):
		return 0
	case isWordChar(r):
		return 1
	default:
		return 2
	}
}

func wordForward(text []rune, pos int) int {
	n := len(text)
	if pos >= n {
		return pos
	}
	cls := classOf(text[pos])
	i := pos
	for i < n && classOf(text[i]) == cls {
		i++
	}
	for i < n && isSpace(text[i]) {
		i++
	}
	if i >= n {
		return max(0, n-1)
	}
	return i
}

func wordBack(text []rune, pos int) int {
	i := pos
	for i > 0 && isSpace(text[i-1]) {
		i--
	}
	if i == 0 {
		return 0
	}
	cls := classOf(text[i-1])
	for i > 0 && classOf(text[i-1]) == cls {
		i--
	}
	return i
}

func wordEnd(text []rune, pos int) int {
	n := len(text)
	i := pos + 1
	for i < n && isSpace(text[i]) {
		i++
	}
	if i >= n {
		return max(0, n-1)
	}
	cls := classOf(text[i])
	for i+1 < n && classOf(text[i+1]) == cls {
		i++
	}
	return i
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// --- operators ---

// Operator names a normal-mode operator (c/d/y), applied either to a
// motion's span or to a text object.
type Operator int

const (
	OpChange Operator = iota
	OpDelete
	OpYank
)

// ApplyOperatorMotion applies op to the span between the cursor and the
// result of motion m repeated count times (dw, d3w, y$, ...). For OpChange
// the buffer enters insert mode positioned at the deletion point.
func (b *Buffer) ApplyOperatorMotion(op Operator, m Motion, count int) {
	target := b.Move(m, count)
	start, end := b.Cursor, target
	if start > end {
		start, end = end, start
	}
	b.applyOperatorSpan(op, start, end)
}

// ApplyOperatorLine applies op to the whole buffer (dd/cc/yy on a
// single-line buffer means "the whole line").
func (b *Buffer) ApplyOperatorLine(op Operator) {
	b.applyOperatorSpan(op, 0, len(b.Text))
}

// ApplyOperatorObject applies op to a text object's span.
func (b *Buffer) ApplyOperatorObject(op Operator, obj TextObject) {
	start, end, ok := b.ResolveObject(obj)
	if !ok {
		return
	}
	b.applyOperatorSpan(op, start, end)
}

func (b *Buffer) applyOperatorSpan(op Operator, start, end int) {
	if end > len(b.Text) {
		end = len(b.Text)
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start, end = end, start
	}
	clip := string(b.Text[start:end])
	switch op {
	case OpYank:
		b.clipboard = clip
		b.Cursor = start
	case OpDelete:
		b.clipboard = clip
		b.Text = append(b.Text[:start], b.Text[end:]...)
		b.Cursor = start
		b.clampNormal()
	case OpChange:
		b.clipboard = clip
		b.Text = append(b.Text[:start], b.Text[end:]...)
		b.Cursor = start
		b.EnterInsert()
	}
}

// ApplyOperatorVisual applies op to the current visual selection and
// exits visual mode.
func (b *Buffer) ApplyOperatorVisual(op Operator) {
	start, end, ok := b.Selection()
	if !ok {
		return
	}
	b.ExitVisual()
	b.applyOperatorSpan(op, start, end+1)
}

// --- text objects ---

// TextObject names a vim text object (iw/aw/i"/a"/i(/a().
type TextObject int

const (
	ObjInnerWord TextObject = iota
	ObjAWord
	ObjInnerQuote
	ObjAQuote
	ObjInnerParen
	ObjAParen
)

// ResolveObject computes obj's [start, end) span around the cursor.
func (b *Buffer) ResolveObject(obj TextObject) (start, end int, ok bool) {
	switch obj {
	case ObjInnerWord, ObjAWord:
		return resolveWordObject(b.Text, b.Cursor, obj == ObjAWord)
	case ObjInnerQuote, ObjAQuote:
		return resolveDelimited(b.Text, b.Cursor, '"', '"', obj == ObjAQuote)
	case ObjInnerParen, ObjAParen:
		return resolveDelimited(b.Text, b.Cursor, '(', ')', obj == ObjAParen)
	}
	return 0, 0, false
}

func resolveWordObject(text []rune, pos int, around bool) (int, int, bool) {
	n := len(text)
	if n == 0 {
		return 0, 0, false
	}
	if pos >= n {
		pos = n - 1
	}
	cls := classOf(text[pos])
	start, end := pos, pos+1
	for start > 0 && classOf(text[start-1]) == cls {
		start--
	}
	for end < n && classOf(text[end]) == cls {
		end++
	}
	if around {
		trailing := end
		for trailing < n && isSpace(text[trailing]) {
			trailing++
		}
		if trailing > end {
			end = trailing
		}
	}
	return start, end, true
}

func resolveDelimited(text []rune, pos int, open, close rune, around bool) (int, int, bool) {
	n := len(text)
	openIdx := -1
	for i := pos; i >= 0; i-- {
		if text[i] == open {
			openIdx = i
			break
		}
		if i < pos && text[i] == close {
			break
		}
	}
	if openIdx == -1 {
		for i := pos; i < n; i++ {
			if text[i] == open {
				openIdx = i
				break
			}
		}
	}
	if openIdx == -1 {
		return 0, 0, false
	}
	closeIdx := -1
	for i := openIdx + 1; i < n; i++ {
		if text[i] == close {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return 0, 0, false
	}
	if around {
		return openIdx, closeIdx + 1, true
	}
	return openIdx + 1, closeIdx, true
}

// --- clipboard ---

// Paste implements 'p' (paste after cursor).
func (b *Buffer) Paste() {
	if b.clipboard == "" {
		return
	}
	pos := b.Cursor + 1
	if pos > len(b.Text) {
		pos = len(b.Text)
	}
	runes := []rune(b.clipboard)
	b.Text = append(b.Text[:pos], append(runes, b.Text[pos:]...)...)
	b.Cursor = pos
	b.clampNormal()
}

// PasteBefore implements 'P' (paste before cursor).
func (b *Buffer) PasteBefore() {
	if b.clipboard == "" {
		return
	}
	runes := []rune(b.clipboard)
	b.Text = append(b.Text[:b.Cursor], append(runes, b.Text[b.Cursor:]...)...)
	b.clampNormal()
}

// Clipboard returns the single clipboard slot's current contents.
func (b *Buffer) Clipboard() string { return b.clipboard }

// Len reports the buffer's length in runes.
func (b *Buffer) Len() int { return len(b.Text) }
