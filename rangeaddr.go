package gridflow

import "iter"

// RangeAddress is an ordered pair of CellAddress, normalized so Start <=
// End on both axes.
type RangeAddress struct {
	Start CellAddress
	End   CellAddress
}

// NewRangeAddress normalizes two corners into a RangeAddress.
func NewRangeAddress(a, b CellAddress) RangeAddress {
	r := RangeAddress{Start: a, End: b}
	if r.Start.Row > r.End.Row {
		r.Start.Row, r.End.Row = r.End.Row, r.Start.Row
	}
	if r.Start.Col > r.End.Col {
		r.Start.Col, r.End.Col = r.End.Col, r.Start.Col
	}
	return r
}

// Contains reports whether addr falls within the range, inclusive.
func (r RangeAddress) Contains(addr CellAddress) bool {
	return addr.Row >= r.Start.Row && addr.Row <= r.End.Row &&
		addr.Col >= r.Start.Col && addr.Col <= r.End.Col
}

// Addresses returns a lazy iterator over every address in the range, row
// major. Aggregator builtins (SUM, AVERAGE, ...) consume this instead of
// materializing a slice.
func (r RangeAddress) Addresses() iter.Seq[CellAddress] {
	return func(yield func(CellAddress) bool) {
		for row := r.Start.Row; row <= r.End.Row; row++ {
			for col := r.Start.Col; col <= r.End.Col; col++ {
				if !yield(CellAddress{Row: row, Col: col}) {
					return
				}
			}
			if row == ^uint32(0) {
				return
			}
		}
	}
}

// ToLabel formats a range as "A1:C3".
func (r RangeAddress) ToLabel() string {
	return r.Start.ToLabel() + ":" + r.End.ToLabel()
}
