package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRawValueKinds(t *testing.T) {
	assert.Equal(t, EmptyRaw(), ParseRawValue(""))
	assert.Equal(t, BoolRaw(true), ParseRawValue("TRUE"))
	assert.Equal(t, BoolRaw(true), ParseRawValue("true"))
	assert.Equal(t, BoolRaw(false), ParseRawValue("False"))
	assert.Equal(t, NumberRaw(42), ParseRawValue("42"))
	assert.Equal(t, NumberRaw(3.5), ParseRawValue("3.5"))
	assert.Equal(t, TextRaw("hello"), ParseRawValue("hello"))
	assert.Equal(t, FormulaRaw("=A1+1"), ParseRawValue("=A1+1"))
}

func TestInterpretLiteral(t *testing.T) {
	assert.Equal(t, EmptyValue(), interpretLiteral(EmptyRaw()))
	assert.Equal(t, NumberValue(7), interpretLiteral(NumberRaw(7)))
	assert.Equal(t, BoolValue(true), interpretLiteral(BoolRaw(true)))
	assert.Equal(t, TextValue("x"), interpretLiteral(TextRaw("x")))
}

func TestComputedValueEqual(t *testing.T) {
	assert.True(t, NumberValue(1).Equal(NumberValue(1)))
	assert.False(t, NumberValue(1).Equal(NumberValue(2)))
	assert.True(t, TextValue("a").Equal(TextValue("a")))
	assert.False(t, TextValue("a").Equal(NumberValue(1)))
	assert.True(t, ErrorComputedValue(NewErrorValue(ErrRef)).Equal(ErrorComputedValue(NewErrorValue(ErrRef))))
	assert.False(t, ErrorComputedValue(NewErrorValue(ErrRef)).Equal(ErrorComputedValue(NewErrorValue(ErrNum))))
}

func TestComputedValueIsError(t *testing.T) {
	assert.True(t, ErrorComputedValue(NewErrorValue(ErrValue)).IsError())
	assert.False(t, NumberValue(1).IsError())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "#DIV/0!", ErrDivZero.String())
	assert.Equal(t, "#CIRC!", ErrCirc.String())
}
