package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closeread/gridflow"
	"github.com/closeread/gridflow/mode"
)

func newTestController() (*Controller, *gridflow.Engine) {
	e := gridflow.NewEngine(gridflow.DefaultLimits())
	return New(e), e
}

func TestControllerStartsAtOriginInNavigation(t *testing.T) {
	c, _ := newTestController()
	assert.Equal(t, gridflow.CellAddress{Row: 0, Col: 0}, c.Cursor())
	assert.Equal(t, mode.TagNavigation, c.Mode().Tag)
}

func TestControllerMovesCursorWithHJKL(t *testing.T) {
	c, _ := newTestController()
	c.HandleKey(Key{Rune: 'l'})
	assert.Equal(t, uint32(1), c.Cursor().Col)
	c.HandleKey(Key{Rune: 'j'})
	assert.Equal(t, uint32(1), c.Cursor().Row)
	c.HandleKey(Key{Rune: 'h'})
	assert.Equal(t, uint32(0), c.Cursor().Col)
	c.HandleKey(Key{Rune: 'k'})
	assert.Equal(t, uint32(0), c.Cursor().Row)
}

func TestControllerCursorClampsAtZero(t *testing.T) {
	c, _ := newTestController()
	c.HandleKey(Key{Rune: 'h'})
	assert.Equal(t, uint32(0), c.Cursor().Col)
}

func TestControllerCountPrefixedMotion(t *testing.T) {
	c, _ := newTestController()
	c.HandleKey(Key{Rune: '3'})
	c.HandleKey(Key{Rune: 'l'})
	assert.Equal(t, uint32(3), c.Cursor().Col)
}

func TestControllerEnterEditingAndCommitInsertedText(t *testing.T) {
	c, e := newTestController()
	c.HandleKey(Key{Name: "Enter"})
	assert.Equal(t, mode.TagEditing, c.Mode().Tag)
	assert.Equal(t, mode.EditNormal, c.Mode().EditMode)

	c.HandleKey(Key{Rune: 'i'})
	assert.Equal(t, mode.EditInsert, c.Mode().EditMode)

	for _, r := range "42" {
		c.HandleKey(Key{Rune: r})
	}
	c.HandleKey(Key{Name: "Enter"})

	assert.Equal(t, mode.TagNavigation, c.Mode().Tag)
	assert.Equal(t, gridflow.NumberValue(42), e.GetValue(gridflow.CellAddress{Row: 0, Col: 0}))
}

func TestControllerEscapeFromInsertReturnsToNormalEditing(t *testing.T) {
	c, _ := newTestController()
	c.HandleKey(Key{Name: "Enter"})
	c.HandleKey(Key{Rune: 'i'})
	c.HandleKey(Key{Name: "Escape"})
	assert.Equal(t, mode.TagEditing, c.Mode().Tag)
	assert.Equal(t, mode.EditNormal, c.Mode().EditMode)
}

func TestControllerDoubleEscapeFromInsertReturnsToNavigation(t *testing.T) {
	c, _ := newTestController()
	c.HandleKey(Key{Name: "Enter"})
	c.HandleKey(Key{Rune: 'i'})
	c.HandleKey(Key{Name: "Escape"})
	c.HandleKey(Key{Name: "Escape"})
	assert.Equal(t, mode.TagNavigation, c.Mode().Tag)
}

func TestControllerDeleteCellWithX(t *testing.T) {
	c, e := newTestController()
	a1 := gridflow.CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "5"))
	c.HandleKey(Key{Rune: 'x'})
	_, ok := e.GetCell(a1)
	assert.False(t, ok)
}

func TestControllerUndoRedoKeys(t *testing.T) {
	c, e := newTestController()
	a1 := gridflow.CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "1"))
	require.NoError(t, e.SetCell(a1, "2"))

	c.HandleKey(Key{Rune: 'u'})
	assert.Equal(t, gridflow.NumberValue(1), e.GetValue(a1))

	c.HandleKey(Key{Rune: 'r', Ctrl: true})
	assert.Equal(t, gridflow.NumberValue(2), e.GetValue(a1))
}

func TestControllerDeleteWordOperator(t *testing.T) {
	c, e := newTestController()
	a1 := gridflow.CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "foo bar"))

	c.HandleKey(Key{Name: "Enter"}) // start editing, buffer = "foo bar"
	c.HandleKey(Key{Rune: 'd'})
	c.HandleKey(Key{Rune: 'w'})
	c.HandleKey(Key{Name: "Enter"}) // commit

	assert.Equal(t, gridflow.TextValue("bar"), e.GetValue(a1))
}

func TestControllerDoubledOperatorWholeLine(t *testing.T) {
	c, e := newTestController()
	a1 := gridflow.CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "hello"))

	c.HandleKey(Key{Name: "Enter"})
	c.HandleKey(Key{Rune: 'd'})
	c.HandleKey(Key{Rune: 'd'})
	c.HandleKey(Key{Name: "Enter"})

	assert.Equal(t, gridflow.EmptyValue(), e.GetValue(a1))
}

func TestControllerTextObjectInnerWord(t *testing.T) {
	c, e := newTestController()
	a1 := gridflow.CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "foo bar baz"))

	c.HandleKey(Key{Name: "Enter"})
	c.HandleKey(Key{Rune: 'w'}) // move to start of "bar"
	c.HandleKey(Key{Rune: 'd'})
	c.HandleKey(Key{Rune: 'i'})
	c.HandleKey(Key{Rune: 'w'})
	c.HandleKey(Key{Name: "Enter"})

	assert.Equal(t, gridflow.TextValue("foo  baz"), e.GetValue(a1))
}

func TestControllerCommandModeAccumulatesAndExecutes(t *testing.T) {
	c, _ := newTestController()
	var executed string
	c.Subscribe(func(ev ControllerEvent) {
		if ev.Kind == EvCommandExecuted {
			executed = ev.Command
		}
	})

	c.HandleKey(Key{Rune: ':'})
	assert.Equal(t, mode.TagCommand, c.Mode().Tag)
	for _, r := range "save" {
		c.HandleKey(Key{Rune: r})
	}
	c.HandleKey(Key{Name: "Enter"})

	assert.Equal(t, mode.TagNavigation, c.Mode().Tag)
	assert.Equal(t, "save", executed)
}

func TestControllerEventsFireOnStateChange(t *testing.T) {
	c, _ := newTestController()
	var kinds []ControllerEventKind
	c.Subscribe(func(ev ControllerEvent) { kinds = append(kinds, ev.Kind) })

	c.HandleKey(Key{Name: "Enter"})
	assert.Contains(t, kinds, EvStateChanged)
}
