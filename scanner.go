package gridflow

import "strings"

// ScannedRef describes one cell or range reference found in raw formula
// text, at the exact rune span it occupies, along with its parsed form and
// absolute-axis flags. The rewriter (rewriter.go) consumes these spans to
// patch formula text directly, rather than re-serializing a parsed AST.
type ScannedRef struct {
	Start int // rune offset into the whole formula text (a leading '=' counts)
	End   int // exclusive
	Text  string
	IsRange bool
	Cell    CellReference  // valid when !IsRange
	Range   [2]CellReference // valid when IsRange
}

// ScanReferences walks formula's raw text (everything after a leading '=',
// if present) and returns every cell/range reference it finds, left to
// right. It never descends into string literals — a quoted "A1" is just
// text, never a reference. This is a hand-rolled character scan
// rather than a regex, per the engine's general avoidance of regex-driven
// text to formula analysis.
func ScanReferences(formula string) []ScannedRef {
	body := formula
	offset := 0
	if strings.HasPrefix(body, "=") {
		body = body[1:]
		offset = 1
	}

	runes := []rune(body)
	n := len(runes)
	var out []ScannedRef
	i := 0
	inString := false

	for i < n {
		c := runes[i]
		if inString {
			if c == '"' {
				if i+1 < n && runes[i+1] == '"' {
					i += 2
					continue
				}
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			i++
			continue
		}
		if isRefStart(c) {
			start := i
			end, ref, ok := scanOneRef(runes, i)
			if !ok {
				i++
				continue
			}
			i = end
			// a range is two refs joined by ':'
			if i < n && runes[i] == ':' {
				end2, ref2, ok2 := scanOneRef(runes, i+1)
				if ok2 {
					out = append(out, ScannedRef{
						Start:   start + offset,
						End:     end2 + offset,
						Text:    string(runes[start:end2]),
						IsRange: true,
						Range:   [2]CellReference{ref, ref2},
					})
					i = end2
					continue
				}
			}
			out = append(out, ScannedRef{
				Start: start + offset,
				End:   end + offset,
				Text:  string(runes[start:end]),
				Cell:  ref,
			})
			continue
		}
		i++
	}
	return out
}

func isRefStart(c rune) bool {
	return c == '$' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// scanOneRef attempts to consume one "$A$1"-style reference starting at
// pos. Returns ok=false (and leaves the caller to advance past an
// ordinary identifier) if the run doesn't end up looking like column
// letters immediately followed by row digits.
func scanOneRef(runes []rune, pos int) (end int, ref CellReference, ok bool) {
	n := len(runes)
	i := pos
	if i < n && runes[i] == '$' {
		i++
	}
	colStart := i
	for i < n && ((runes[i] >= 'A' && runes[i] <= 'Z') || (runes[i] >= 'a' && runes[i] <= 'z')) {
		i++
	}
	if i == colStart {
		return pos, CellReference{}, false
	}
	if i < n && runes[i] == '$' {
		i++
	}
	rowStart := i
	for i < n && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	if i == rowStart {
		return pos, CellReference{}, false
	}
	// reject if immediately followed by more identifier characters or '('
	// (a function name or a longer identifier, not a bare reference).
	if i < n && (isAlpha(byte(runes[i])) || runes[i] == '_' || runes[i] == '(') {
		return pos, CellReference{}, false
	}
	text := string(runes[pos:i])
	parsed, err := FromLabel(text)
	if err != nil {
		return pos, CellReference{}, false
	}
	return i, parsed, true
}
