package gridflow

import (
	"strconv"
	"strings"
)

// Default axis ceilings, matching the structural engine's configured
// limits: 1,048,576 rows and 16,384 columns.
const (
	MaxRows = 1048576
	MaxCols = 16384
)

// CellAddress is a zero-based (row, col) pair. Use NewCellAddress to
// construct one with bounds checking rather than a struct literal when the
// row/col come from untrusted input.
type CellAddress struct {
	Row uint32
	Col uint32
}

// NewCellAddress validates row and col against the configured maxima and
// returns an InvalidAddress error if either is out of range.
func NewCellAddress(row, col int) (CellAddress, error) {
	if row < 0 || col < 0 {
		return CellAddress{}, Errorf(InvalidAddress, "negative address (%d, %d)", row, col)
	}
	if row >= MaxRows {
		return CellAddress{}, Errorf(InvalidAddress, "row %d exceeds maximum %d", row, MaxRows-1)
	}
	if col >= MaxCols {
		return CellAddress{}, Errorf(InvalidAddress, "column %d exceeds maximum %d", col, MaxCols-1)
	}
	return CellAddress{Row: uint32(row), Col: uint32(col)}, nil
}

// CellReference is a CellAddress with absolute-axis flags. Rewriting
// leaves an absolute axis untouched.
type CellReference struct {
	Address  CellAddress
	AbsRow   bool
	AbsCol   bool
}

// NewReference validates row/col like NewCellAddress and attaches the
// absolute-axis flags.
func NewReference(row, col int, absRow, absCol bool) (CellReference, error) {
	addr, err := NewCellAddress(row, col)
	if err != nil {
		return CellReference{}, err
	}
	return CellReference{Address: addr, AbsRow: absRow, AbsCol: absCol}, nil
}

// ColumnLabel formats a zero-based column index as a bijective base-26
// letter run: 0 -> "A", 25 -> "Z", 26 -> "AA", 27 -> "AB", ...
func ColumnLabel(col uint32) string {
	n := int64(col) + 1
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}

// ParseColumnLabel parses a bijective base-26 letter run (case-insensitive)
// into a zero-based column index.
func ParseColumnLabel(label string) (uint32, error) {
	if label == "" {
		return 0, Errorf(InvalidAddress, "empty column label")
	}
	var n int64
	for _, r := range label {
		var v int64
		switch {
		case r >= 'A' && r <= 'Z':
			v = int64(r-'A') + 1
		case r >= 'a' && r <= 'z':
			v = int64(r-'a') + 1
		default:
			return 0, Errorf(InvalidAddress, "invalid column label %q", label)
		}
		n = n*26 + v
		if n-1 >= MaxCols {
			return 0, Errorf(InvalidAddress, "column label %q exceeds maximum", label)
		}
	}
	return uint32(n - 1), nil
}

// ToLabel formats a CellAddress as an A1-style label: column letters
// followed by a 1-based row number.
func (a CellAddress) ToLabel() string {
	return ColumnLabel(a.Col) + strconv.FormatUint(uint64(a.Row)+1, 10)
}

// ToLabel formats a CellReference as an A1-style label, prefixing each
// absolute axis with "$".
func (r CellReference) ToLabel() string {
	var b strings.Builder
	if r.AbsCol {
		b.WriteByte('$')
	}
	b.WriteString(ColumnLabel(r.Address.Col))
	if r.AbsRow {
		b.WriteByte('$')
	}
	b.WriteString(strconv.FormatUint(uint64(r.Address.Row)+1, 10))
	return b.String()
}

// FromLabel parses an A1-style address label (e.g. "A1", "$B$12") into a
// CellReference. It fails with InvalidAddress on malformed text or an
// out-of-range row/column.
func FromLabel(text string) (CellReference, error) {
	i := 0
	absCol := false
	if i < len(text) && text[i] == '$' {
		absCol = true
		i++
	}
	start := i
	for i < len(text) && isAlpha(text[i]) {
		i++
	}
	if i == start {
		return CellReference{}, Errorf(InvalidAddress, "malformed address %q: missing column letters", text)
	}
	colLabel := text[start:i]

	absRow := false
	if i < len(text) && text[i] == '$' {
		absRow = true
		i++
	}
	rowStart := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == rowStart || i != len(text) {
		return CellReference{}, Errorf(InvalidAddress, "malformed address %q: missing or trailing row digits", text)
	}

	col, err := ParseColumnLabel(colLabel)
	if err != nil {
		return CellReference{}, err
	}
	rowNum, err := strconv.ParseUint(text[rowStart:i], 10, 32)
	if err != nil || rowNum == 0 {
		return CellReference{}, Errorf(InvalidAddress, "malformed address %q: invalid row number", text)
	}
	return NewReference(int(rowNum-1), int(col), absRow, absCol)
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
