package gridflow

import (
	"fmt"
	"strings"
)

// NodePosition records a node's span in the original formula source. The
// reference scanner/rewriter do not use it; they track their own spans in
// ScannedRef.
type NodePosition struct {
	Start int
	End   int
}

// ASTNode is a parsed formula expression. Eval interprets the node against
// an evalContext; ToString renders it back to formula text, without the
// leading '='.
type ASTNode interface {
	Eval(ctx *evalContext) ComputedValue
	Position() NodePosition
	ToString() string
}

// LiteralNode is a numeric, string, or boolean literal.
type LiteralNode struct {
	Value ComputedValue
	Pos   NodePosition
}

func (n *LiteralNode) Eval(*evalContext) ComputedValue { return n.Value }
func (n *LiteralNode) Position() NodePosition          { return n.Pos }
func (n *LiteralNode) ToString() string {
	switch n.Value.Kind {
	case KindNumber:
		return formatNumber(n.Value.Number)
	case KindBool:
		if n.Value.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindText:
		return "\"" + strings.ReplaceAll(n.Value.Text, "\"", "\"\"") + "\""
	default:
		return ""
	}
}

// CellRefNode is a reference to a single cell.
type CellRefNode struct {
	Ref CellReference
	Pos NodePosition
}

func (n *CellRefNode) Eval(ctx *evalContext) ComputedValue {
	return ctx.valueAt(n.Ref.Address)
}
func (n *CellRefNode) Position() NodePosition { return n.Pos }
func (n *CellRefNode) ToString() string       { return n.Ref.ToLabel() }

// RangeRefNode is a reference to a rectangular range, used only as an
// aggregator-function argument.
type RangeRefNode struct {
	Start CellReference
	End   CellReference
	Pos   NodePosition
}

func (n *RangeRefNode) rangeAddress() RangeAddress {
	return NewRangeAddress(n.Start.Address, n.End.Address)
}

func (n *RangeRefNode) Eval(ctx *evalContext) ComputedValue {
	// A bare range outside an aggregator call has no scalar value; treat
	// it as #VALUE! under the text-in-arithmetic coercion rule.
	return ErrorComputedValue(NewErrorValue(ErrValue))
}
func (n *RangeRefNode) Position() NodePosition { return n.Pos }
func (n *RangeRefNode) ToString() string       { return n.Start.ToLabel() + ":" + n.End.ToLabel() }

// UnaryNode is a prefix unary +/- applied to an operand.
type UnaryNode struct {
	Op      UnaryOp
	Operand ASTNode
	Pos     NodePosition
}

type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
)

func (n *UnaryNode) Eval(ctx *evalContext) ComputedValue {
	v := n.Operand.Eval(ctx)
	if v.IsError() {
		return v
	}
	num, ok := coerceNumber(v)
	if !ok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	if n.Op == UnaryMinus {
		return NumberValue(-num)
	}
	return NumberValue(num)
}
func (n *UnaryNode) Position() NodePosition { return n.Pos }
func (n *UnaryNode) ToString() string {
	sign := "+"
	if n.Op == UnaryMinus {
		sign = "-"
	}
	return sign + n.Operand.ToString()
}

// BinaryOp enumerates the supported binary operators.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinPow
	BinConcat
	BinEqual
	BinNotEqual
	BinLess
	BinLessEqual
	BinGreater
	BinGreaterEqual
)

var binaryOpText = map[BinaryOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinPow: "^",
	BinConcat: "&", BinEqual: "=", BinNotEqual: "<>", BinLess: "<",
	BinLessEqual: "<=", BinGreater: ">", BinGreaterEqual: ">=",
}

// BinaryNode is a binary operator expression.
type BinaryNode struct {
	Op    BinaryOp
	Left  ASTNode
	Right ASTNode
	Pos   NodePosition
}

func (n *BinaryNode) Eval(ctx *evalContext) ComputedValue {
	left := n.Left.Eval(ctx)
	if left.IsError() {
		return left
	}
	right := n.Right.Eval(ctx)
	if right.IsError() {
		return right
	}
	return evalBinary(n.Op, left, right)
}
func (n *BinaryNode) Position() NodePosition { return n.Pos }
func (n *BinaryNode) ToString() string {
	return n.Left.ToString() + binaryOpText[n.Op] + n.Right.ToString()
}

// FunctionCallNode is a call NAME(args...); function name matching is
// case-insensitive.
type FunctionCallNode struct {
	Name string
	Args []ASTNode
	Pos  NodePosition
}

func (n *FunctionCallNode) Eval(ctx *evalContext) ComputedValue {
	return ctx.functions.Call(ctx, n.Name, n.Args)
}
func (n *FunctionCallNode) Position() NodePosition { return n.Pos }
func (n *FunctionCallNode) ToString() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.ToString()
	}
	return strings.ToUpper(n.Name) + "(" + strings.Join(parts, ",") + ")"
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
