package gridflow

import "math"

// evalContext is the read-only view the evaluator needs while interpreting
// a single formula: lookup of already-computed cell values (precedents are
// always evaluated before dependents thanks to topological ordering) and
// the shared built-in function table.
type evalContext struct {
	store     *CellStore
	functions *BuiltInFunctions
}

func (c *evalContext) valueAt(addr CellAddress) ComputedValue {
	cell, ok := c.store.Get(addr)
	if !ok {
		return EmptyValue()
	}
	return cell.Computed
}

// Evaluate interprets a parsed formula AST against the store, returning
// its ComputedValue. Evaluation never panics: any failure surfaces as an
// ErrorValue.
func Evaluate(store *CellStore, functions *BuiltInFunctions, node ASTNode) (result ComputedValue) {
	defer func() {
		if r := recover(); r != nil {
			result = ErrorComputedValue(NewErrorValue(ErrValue))
		}
	}()
	ctx := &evalContext{store: store, functions: functions}
	return node.Eval(ctx)
}

// coerceNumber implements the numeric coercion rules: Number stays
// itself, Bool becomes 0/1, Empty becomes 0, Text fails (ok=false, which
// callers turn into #VALUE!).
func coerceNumber(v ComputedValue) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindEmpty:
		return 0, true
	default:
		return 0, false
	}
}

// coerceText implements the text side of the coercion rules: Empty
// becomes "", Number/Bool format as text, Text stays itself.
func coerceText(v ComputedValue) string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return formatNumber(v.Number)
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

func evalBinary(op BinaryOp, left, right ComputedValue) ComputedValue {
	switch op {
	case BinConcat:
		return TextValue(coerceText(left) + coerceText(right))
	case BinEqual, BinNotEqual, BinLess, BinLessEqual, BinGreater, BinGreaterEqual:
		return evalComparison(op, left, right)
	default:
		return evalArithmetic(op, left, right)
	}
}

func evalArithmetic(op BinaryOp, left, right ComputedValue) ComputedValue {
	a, aok := coerceNumber(left)
	if !aok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	b, bok := coerceNumber(right)
	if !bok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	switch op {
	case BinAdd:
		return NumberValue(a + b)
	case BinSub:
		return NumberValue(a - b)
	case BinMul:
		return NumberValue(a * b)
	case BinDiv:
		if b == 0 {
			return ErrorComputedValue(NewErrorValue(ErrDivZero))
		}
		return NumberValue(a / b)
	case BinPow:
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			return ErrorComputedValue(NewErrorValue(ErrNum))
		}
		return NumberValue(r)
	}
	return ErrorComputedValue(NewErrorValue(ErrValue))
}

func evalComparison(op BinaryOp, left, right ComputedValue) ComputedValue {
	// Numbers compare numerically when both sides coerce; otherwise fall
	// back to text comparison (mirrors Excel's cross-type total ordering
	// without replicating its full collation rules).
	if ln, lok := coerceNumber(left); lok {
		if rn, rok := coerceNumber(right); rok {
			return BoolValue(compareOrdered(op, cmpFloat(ln, rn)))
		}
	}
	lt, rt := coerceText(left), coerceText(right)
	return BoolValue(compareOrdered(op, cmpString(lt, rt)))
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrdered(op BinaryOp, cmp int) bool {
	switch op {
	case BinEqual:
		return cmp == 0
	case BinNotEqual:
		return cmp != 0
	case BinLess:
		return cmp < 0
	case BinLessEqual:
		return cmp <= 0
	case BinGreater:
		return cmp > 0
	case BinGreaterEqual:
		return cmp >= 0
	}
	return false
}
