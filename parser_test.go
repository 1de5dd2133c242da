package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormulaPrecedence(t *testing.T) {
	node, err := ParseFormula("=1+2*3")
	require.Nil(t, err)
	assert.Equal(t, "1+2*3", node.ToString())

	bin, ok := node.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, BinAdd, bin.Op)
	rightBin, ok := bin.Right.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, BinMul, rightBin.Op)
}

func TestParseFormulaPowerRightAssociative(t *testing.T) {
	node, err := ParseFormula("=2^3^2")
	require.Nil(t, err)
	bin := node.(*BinaryNode)
	assert.Equal(t, BinPow, bin.Op)
	right := bin.Right.(*BinaryNode)
	assert.Equal(t, BinPow, right.Op)
}

func TestParseFormulaParentheses(t *testing.T) {
	node, err := ParseFormula("=(1+2)*3")
	require.Nil(t, err)
	bin := node.(*BinaryNode)
	assert.Equal(t, BinMul, bin.Op)
	_, ok := bin.Left.(*BinaryNode)
	assert.True(t, ok)
}

func TestParseFormulaFunctionCall(t *testing.T) {
	node, err := ParseFormula("=SUM(A1:A3,5)")
	require.Nil(t, err)
	fn := node.(*FunctionCallNode)
	assert.Equal(t, "SUM", fn.Name)
	require.Len(t, fn.Args, 2)
	_, isRange := fn.Args[0].(*RangeRefNode)
	assert.True(t, isRange)
}

func TestParseFormulaUnknownNameIsNameError(t *testing.T) {
	_, perr := ParseFormula("=FOOBAR+1")
	require.NotNil(t, perr)
	assert.True(t, isUnknownNameError(perr))
}

func TestParseFormulaComparisonChain(t *testing.T) {
	node, err := ParseFormula(`=A1<>"x"`)
	require.Nil(t, err)
	bin := node.(*BinaryNode)
	assert.Equal(t, BinNotEqual, bin.Op)
}

func TestParseFormulaConcat(t *testing.T) {
	node, err := ParseFormula(`="a"&"b"&"c"`)
	require.Nil(t, err)
	assert.Equal(t, `"a"&"b"&"c"`, node.ToString())
}

func TestParseFormulaMalformedRange(t *testing.T) {
	_, perr := ParseFormula("=SUM(A1:)")
	assert.NotNil(t, perr)
}

func TestParseFormulaMissingClosingParen(t *testing.T) {
	_, perr := ParseFormula("=SUM(A1,A2")
	assert.NotNil(t, perr)
}
