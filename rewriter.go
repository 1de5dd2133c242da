package gridflow

import "strings"

// StructuralOp names the four structural edits the rewriter understands.
type StructuralOp int

const (
	OpInsertRows StructuralOp = iota
	OpDeleteRows
	OpInsertCols
	OpDeleteCols
)

// StructuralChange describes a single structural edit: inserting or
// deleting count rows/columns starting at index (rows/cols at or after
// index shift; for delete, [index, index+count) is removed).
type StructuralChange struct {
	Op    StructuralOp
	Index uint32
	Count uint32
}

// RewriteFormula rewrites every cell/range reference in formula to account
// for change, applying edits right-to-left so earlier rune offsets stay
// valid as later ones are replaced. A reference whose axis is
// absolute is left untouched on that axis. A reference that falls inside a
// deleted span becomes the literal text #REF!; rewriting a range whose
// start or end lands on #REF! turns the whole range into #REF! too.
func RewriteFormula(formula string, change StructuralChange) string {
	refs := ScanReferences(formula)
	if len(refs) == 0 {
		return formula
	}

	out := []rune(formula)
	for i := len(refs) - 1; i >= 0; i-- {
		r := refs[i]
		var replacement string
		if r.IsRange {
			replacement = rewriteRange(r.Range[0], r.Range[1], change)
		} else {
			replacement = rewriteCell(r.Cell, change)
		}
		out = append(out[:r.Start], append([]rune(replacement), out[r.End:]...)...)
	}
	return string(out)
}

// WouldBeAffected reports whether applying change to formula would alter
// any reference it contains — used by the structural engine's analysis
// pass to flag FormulaReference warnings without committing a
// rewrite.
func WouldBeAffected(formula string, change StructuralChange) bool {
	return RewriteFormula(formula, change) != formula
}

func rewriteCell(ref CellReference, change StructuralChange) string {
	newAddr, broken := shiftAddress(ref.Address, ref.AbsRow, ref.AbsCol, change)
	if broken {
		return "#REF!"
	}
	out := CellReference{Address: newAddr, AbsRow: ref.AbsRow, AbsCol: ref.AbsCol}
	return out.ToLabel()
}

func rewriteRange(start, end CellReference, change StructuralChange) string {
	newStart, startBroken := shiftAddress(start.Address, start.AbsRow, start.AbsCol, change)
	newEnd, endBroken := shiftAddress(end.Address, end.AbsRow, end.AbsCol, change)
	if startBroken || endBroken {
		return "#REF!"
	}
	s := CellReference{Address: newStart, AbsRow: start.AbsRow, AbsCol: start.AbsCol}
	e := CellReference{Address: newEnd, AbsRow: end.AbsRow, AbsCol: end.AbsCol}
	return s.ToLabel() + ":" + e.ToLabel()
}

// shiftAddress applies change to addr, honoring absolute-axis flags.
// broken=true means the referenced cell fell inside a deleted span and the
// reference is no longer meaningful.
func shiftAddress(addr CellAddress, absRow, absCol bool, change StructuralChange) (CellAddress, bool) {
	row, col := addr.Row, addr.Col
	switch change.Op {
	case OpInsertRows:
		if !absRow && row >= change.Index {
			row += change.Count
		}
	case OpDeleteRows:
		if !absRow {
			if row >= change.Index && row < change.Index+change.Count {
				return CellAddress{}, true
			}
			if row >= change.Index+change.Count {
				row -= change.Count
			}
		}
	case OpInsertCols:
		if !absCol && col >= change.Index {
			col += change.Count
		}
	case OpDeleteCols:
		if !absCol {
			if col >= change.Index && col < change.Index+change.Count {
				return CellAddress{}, true
			}
			if col >= change.Index+change.Count {
				col -= change.Count
			}
		}
	}
	return CellAddress{Row: row, Col: col}, false
}

// referencesDeletedRange reports whether formula contains any reference
// that would be invalidated (turned into #REF!) by change, by rewriting it
// and looking for a #REF! that the original text did not already hold.
func referencesDeletedRange(formula string, change StructuralChange) bool {
	return strings.Contains(RewriteFormula(formula, change), "#REF!") &&
		!strings.Contains(formula, "#REF!")
}
