package gridflow

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BuiltInFunctions dispatches the engine's named built-in set:
// SUM, AVERAGE, COUNT, MIN, MAX, IF, CONCAT, UPPER, LOWER, SQRT, AND, OR,
// NOT, ABS, ROUND, MOD, and POWER. Function name matching is
// case-insensitive; FunctionCallNode.ToString already upper-cases the
// stored name.
type BuiltInFunctions struct {
	upperCaser cases.Caser
	lowerCaser cases.Caser
}

// NewBuiltInFunctions constructs the built-in table. golang.org/x/text/cases
// backs UPPER/LOWER instead of strings.ToUpper/ToLower, matching how the
// pack depends on x/text for text transforms rather than ASCII-only casing.
func NewBuiltInFunctions() *BuiltInFunctions {
	return &BuiltInFunctions{
		upperCaser: cases.Upper(language.Und),
		lowerCaser: cases.Lower(language.Und),
	}
}

// Call evaluates a function call's arguments (lazily, where the function
// needs it — IF never evaluates the untaken branch) and dispatches to the
// named built-in. An unrecognized name yields #NAME?.
func (bf *BuiltInFunctions) Call(ctx *evalContext, name string, args []ASTNode) ComputedValue {
	switch strings.ToUpper(name) {
	case "SUM":
		return bf.sum(ctx, args)
	case "AVERAGE":
		return bf.average(ctx, args)
	case "COUNT":
		return bf.count(ctx, args)
	case "MIN":
		return bf.minMax(ctx, args, false)
	case "MAX":
		return bf.minMax(ctx, args, true)
	case "IF":
		return bf.ifFn(ctx, args)
	case "AND":
		return bf.andOr(ctx, args, true)
	case "OR":
		return bf.andOr(ctx, args, false)
	case "NOT":
		return bf.not(ctx, args)
	case "CONCAT", "CONCATENATE":
		return bf.concat(ctx, args)
	case "UPPER":
		return bf.textTransform(ctx, args, bf.upperCaser.String)
	case "LOWER":
		return bf.textTransform(ctx, args, bf.lowerCaser.String)
	case "SQRT":
		return bf.sqrt(ctx, args)
	case "ABS":
		return bf.unaryMath(ctx, args, math.Abs)
	case "ROUND":
		return bf.round(ctx, args)
	case "POWER":
		return bf.binaryMath(ctx, args, math.Pow)
	case "MOD":
		return bf.mod(ctx, args)
	default:
		return ErrorComputedValue(NewErrorValue(ErrName))
	}
}

func evalArg(ctx *evalContext, arg ASTNode) ComputedValue {
	return arg.Eval(ctx)
}

// aggregateValues evaluates each argument — expanding RangeRefNode
// arguments over every cell address in the range — and calls visit for
// every resulting value. Missing (never-set) cells are skipped entirely.
// An ErrorValue anywhere in the arguments short-circuits the whole
// aggregation, preserving the first-observed error.
func (bf *BuiltInFunctions) aggregateValues(ctx *evalContext, args []ASTNode, visit func(ComputedValue)) *ErrorValue {
	for _, arg := range args {
		if rangeNode, ok := arg.(*RangeRefNode); ok {
			for addr := range rangeNode.rangeAddress().Addresses() {
				if _, ok := ctx.store.Get(addr); !ok {
					continue
				}
				v := ctx.valueAt(addr)
				if v.IsError() {
					e := v.Err
					return &e
				}
				visit(v)
			}
			continue
		}
		v := evalArg(ctx, arg)
		if v.IsError() {
			e := v.Err
			return &e
		}
		visit(v)
	}
	return nil
}

// coerceNumberForAgg treats Empty cells as "absent" (skipped) rather than
// 0, unlike arithmetic coercion — an empty cell in a SUM range shouldn't
// force COUNT to count it. Numbers and Booleans coerce; Text is skipped.
func coerceNumberForAgg(v ComputedValue) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func (bf *BuiltInFunctions) sum(ctx *evalContext, args []ASTNode) ComputedValue {
	var total float64
	if err := bf.aggregateValues(ctx, args, func(v ComputedValue) {
		if n, ok := coerceNumberForAgg(v); ok {
			total += n
		}
	}); err != nil {
		return ErrorComputedValue(*err)
	}
	return NumberValue(total)
}

func (bf *BuiltInFunctions) average(ctx *evalContext, args []ASTNode) ComputedValue {
	var total float64
	var n int
	if err := bf.aggregateValues(ctx, args, func(v ComputedValue) {
		if x, ok := coerceNumberForAgg(v); ok {
			total += x
			n++
		}
	}); err != nil {
		return ErrorComputedValue(*err)
	}
	if n == 0 {
		return ErrorComputedValue(NewErrorValue(ErrDivZero))
	}
	return NumberValue(total / float64(n))
}

func (bf *BuiltInFunctions) count(ctx *evalContext, args []ASTNode) ComputedValue {
	var n int
	if err := bf.aggregateValues(ctx, args, func(v ComputedValue) {
		if _, ok := coerceNumberForAgg(v); ok {
			n++
		}
	}); err != nil {
		return ErrorComputedValue(*err)
	}
	return NumberValue(float64(n))
}

func (bf *BuiltInFunctions) minMax(ctx *evalContext, args []ASTNode, wantMax bool) ComputedValue {
	var best float64
	have := false
	if err := bf.aggregateValues(ctx, args, func(v ComputedValue) {
		n, ok := coerceNumberForAgg(v)
		if !ok {
			return
		}
		if !have || (wantMax && n > best) || (!wantMax && n < best) {
			best = n
			have = true
		}
	}); err != nil {
		return ErrorComputedValue(*err)
	}
	if !have {
		return NumberValue(0)
	}
	return NumberValue(best)
}

func (bf *BuiltInFunctions) ifFn(ctx *evalContext, args []ASTNode) ComputedValue {
	if len(args) < 2 || len(args) > 3 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	cond := evalArg(ctx, args[0])
	if cond.IsError() {
		return cond
	}
	b, ok := coerceBool(cond)
	if !ok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	if b {
		return evalArg(ctx, args[1])
	}
	if len(args) == 3 {
		return evalArg(ctx, args[2])
	}
	return BoolValue(false)
}

func coerceBool(v ComputedValue) (bool, bool) {
	switch v.Kind {
	case KindBool:
		return v.Bool, true
	case KindNumber:
		return v.Number != 0, true
	case KindEmpty:
		return false, true
	default:
		return false, false
	}
}

func (bf *BuiltInFunctions) andOr(ctx *evalContext, args []ASTNode, isAnd bool) ComputedValue {
	if len(args) == 0 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	result := isAnd
	for _, arg := range args {
		v := evalArg(ctx, arg)
		if v.IsError() {
			return v
		}
		b, ok := coerceBool(v)
		if !ok {
			return ErrorComputedValue(NewErrorValue(ErrValue))
		}
		if isAnd {
			result = result && b
		} else {
			result = result || b
		}
	}
	return BoolValue(result)
}

func (bf *BuiltInFunctions) not(ctx *evalContext, args []ASTNode) ComputedValue {
	if len(args) != 1 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	v := evalArg(ctx, args[0])
	if v.IsError() {
		return v
	}
	b, ok := coerceBool(v)
	if !ok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	return BoolValue(!b)
}

func (bf *BuiltInFunctions) concat(ctx *evalContext, args []ASTNode) ComputedValue {
	var b strings.Builder
	for _, arg := range args {
		if rangeNode, ok := arg.(*RangeRefNode); ok {
			for addr := range rangeNode.rangeAddress().Addresses() {
				v := ctx.valueAt(addr)
				if v.IsError() {
					return v
				}
				b.WriteString(coerceText(v))
			}
			continue
		}
		v := evalArg(ctx, arg)
		if v.IsError() {
			return v
		}
		b.WriteString(coerceText(v))
	}
	return TextValue(b.String())
}

func (bf *BuiltInFunctions) textTransform(ctx *evalContext, args []ASTNode, transform func(string) string) ComputedValue {
	if len(args) != 1 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	v := evalArg(ctx, args[0])
	if v.IsError() {
		return v
	}
	return TextValue(transform(coerceText(v)))
}

func (bf *BuiltInFunctions) sqrt(ctx *evalContext, args []ASTNode) ComputedValue {
	if len(args) != 1 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	v := evalArg(ctx, args[0])
	if v.IsError() {
		return v
	}
	n, ok := coerceNumber(v)
	if !ok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	if n < 0 {
		return ErrorComputedValue(NewErrorValue(ErrNum))
	}
	return NumberValue(math.Sqrt(n))
}

func (bf *BuiltInFunctions) unaryMath(ctx *evalContext, args []ASTNode, fn func(float64) float64) ComputedValue {
	if len(args) != 1 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	v := evalArg(ctx, args[0])
	if v.IsError() {
		return v
	}
	n, ok := coerceNumber(v)
	if !ok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	return NumberValue(fn(n))
}

func (bf *BuiltInFunctions) binaryMath(ctx *evalContext, args []ASTNode, fn func(a, b float64) float64) ComputedValue {
	if len(args) != 2 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	left := evalArg(ctx, args[0])
	if left.IsError() {
		return left
	}
	right := evalArg(ctx, args[1])
	if right.IsError() {
		return right
	}
	a, aok := coerceNumber(left)
	b, bok := coerceNumber(right)
	if !aok || !bok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	r := fn(a, b)
	if math.IsNaN(r) {
		return ErrorComputedValue(NewErrorValue(ErrNum))
	}
	return NumberValue(r)
}

func (bf *BuiltInFunctions) round(ctx *evalContext, args []ASTNode) ComputedValue {
	if len(args) != 2 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	left := evalArg(ctx, args[0])
	if left.IsError() {
		return left
	}
	right := evalArg(ctx, args[1])
	if right.IsError() {
		return right
	}
	n, aok := coerceNumber(left)
	digits, bok := coerceNumber(right)
	if !aok || !bok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	factor := math.Pow(10, digits)
	return NumberValue(math.Round(n*factor) / factor)
}

func (bf *BuiltInFunctions) mod(ctx *evalContext, args []ASTNode) ComputedValue {
	if len(args) != 2 {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	left := evalArg(ctx, args[0])
	if left.IsError() {
		return left
	}
	right := evalArg(ctx, args[1])
	if right.IsError() {
		return right
	}
	a, aok := coerceNumber(left)
	b, bok := coerceNumber(right)
	if !aok || !bok {
		return ErrorComputedValue(NewErrorValue(ErrValue))
	}
	if b == 0 {
		return ErrorComputedValue(NewErrorValue(ErrDivZero))
	}
	return NumberValue(math.Mod(a, b))
}
