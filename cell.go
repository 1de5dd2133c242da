package gridflow

import (
	"strconv"
	"strings"
)

// ErrorKind enumerates the six first-class ErrorValue kinds.
type ErrorKind uint8

const (
	ErrDivZero ErrorKind = iota
	ErrValue
	ErrRef
	ErrName
	ErrNum
	ErrCirc
)

var errorKindText = map[ErrorKind]string{
	ErrDivZero: "#DIV/0!",
	ErrValue:   "#VALUE!",
	ErrRef:     "#REF!",
	ErrName:    "#NAME?",
	ErrNum:     "#NUM!",
	ErrCirc:    "#CIRC!",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindText[k]; ok {
		return s
	}
	return "#ERROR!"
}

// ErrorValue is a computed value representing an evaluation failure. It is
// a first-class value: it propagates through arithmetic like any other
// Primitive.
type ErrorValue struct {
	Kind ErrorKind
}

func (e ErrorValue) Error() string { return e.Kind.String() }

func NewErrorValue(kind ErrorKind) ErrorValue { return ErrorValue{Kind: kind} }

// ValueKind tags the variant held by a RawValue or ComputedValue.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindNumber
	KindBool
	KindText
	KindFormula // RawValue only
	KindError   // ComputedValue only
)

// RawValue is the tagged variant a user actually types into a cell: one of
// Empty, Number, Bool, Text, or Formula. A value is a formula iff its
// text begins with "=".
type RawValue struct {
	Kind   ValueKind
	Number float64
	Bool   bool
	Text   string // also holds the formula source (including leading '=') when Kind == KindFormula
}

func EmptyRaw() RawValue                { return RawValue{Kind: KindEmpty} }
func NumberRaw(n float64) RawValue      { return RawValue{Kind: KindNumber, Number: n} }
func BoolRaw(b bool) RawValue           { return RawValue{Kind: KindBool, Bool: b} }
func TextRaw(s string) RawValue         { return RawValue{Kind: KindText, Text: s} }
func FormulaRaw(source string) RawValue { return RawValue{Kind: KindFormula, Text: source} }

// ParseRawValue interprets literal user input into a RawValue, classifying
// it as a formula iff it begins with "=", otherwise inferring
// number/bool/text from the text.
func ParseRawValue(input string) RawValue {
	if strings.HasPrefix(input, "=") {
		return FormulaRaw(input)
	}
	if input == "" {
		return EmptyRaw()
	}
	switch strings.ToUpper(input) {
	case "TRUE":
		return BoolRaw(true)
	case "FALSE":
		return BoolRaw(false)
	}
	if n, ok := parseNumberLiteral(input); ok {
		return NumberRaw(n)
	}
	return TextRaw(input)
}

// ComputedValue is the tagged variant produced by interpreting a RawValue
// or evaluating a formula's AST.
type ComputedValue struct {
	Kind  ValueKind
	Number float64
	Bool   bool
	Text   string
	Err    ErrorValue
}

func EmptyValue() ComputedValue             { return ComputedValue{Kind: KindEmpty} }
func NumberValue(n float64) ComputedValue   { return ComputedValue{Kind: KindNumber, Number: n} }
func BoolValue(b bool) ComputedValue        { return ComputedValue{Kind: KindBool, Bool: b} }
func TextValue(s string) ComputedValue      { return ComputedValue{Kind: KindText, Text: s} }
func ErrorComputedValue(e ErrorValue) ComputedValue { return ComputedValue{Kind: KindError, Err: e} }

// IsError reports whether this value is an ErrorValue.
func (v ComputedValue) IsError() bool { return v.Kind == KindError }

// Equal reports whether two ComputedValues carry the same tag and payload.
func (v ComputedValue) Equal(o ComputedValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number == o.Number
	case KindBool:
		return v.Bool == o.Bool
	case KindText:
		return v.Text == o.Text
	case KindError:
		return v.Err.Kind == o.Err.Kind
	default:
		return true
	}
}

// Cell is a single grid location: its address, the user-entered RawValue,
// the last ComputedValue, and whether it currently holds a formula.
// Invariant: a non-formula cell's ComputedValue always equals the plain
// interpretation of its RawValue; a formula cell's ComputedValue is the
// last evaluator result or a propagated error.
type Cell struct {
	Address       CellAddress
	Raw           RawValue
	Computed      ComputedValue
	HasFormula    bool
}

// interpretLiteral converts a non-formula RawValue directly into a
// ComputedValue, with no evaluator involved.
func interpretLiteral(raw RawValue) ComputedValue {
	switch raw.Kind {
	case KindEmpty:
		return EmptyValue()
	case KindNumber:
		return NumberValue(raw.Number)
	case KindBool:
		return BoolValue(raw.Bool)
	case KindText:
		return TextValue(raw.Text)
	default:
		return EmptyValue()
	}
}

func parseNumberLiteral(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
