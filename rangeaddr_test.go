package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRangeAddressNormalizes(t *testing.T) {
	a := CellAddress{Row: 5, Col: 5}
	b := CellAddress{Row: 0, Col: 10}
	r := NewRangeAddress(a, b)
	assert.Equal(t, uint32(0), r.Start.Row)
	assert.Equal(t, uint32(5), r.End.Row)
	assert.Equal(t, uint32(5), r.Start.Col)
	assert.Equal(t, uint32(10), r.End.Col)
}

func TestRangeAddressContains(t *testing.T) {
	r := NewRangeAddress(CellAddress{Row: 1, Col: 1}, CellAddress{Row: 3, Col: 3})
	assert.True(t, r.Contains(CellAddress{Row: 2, Col: 2}))
	assert.True(t, r.Contains(CellAddress{Row: 1, Col: 1}))
	assert.True(t, r.Contains(CellAddress{Row: 3, Col: 3}))
	assert.False(t, r.Contains(CellAddress{Row: 0, Col: 2}))
	assert.False(t, r.Contains(CellAddress{Row: 4, Col: 2}))
}

func TestRangeAddressAddressesIteratesRowMajor(t *testing.T) {
	r := NewRangeAddress(CellAddress{Row: 0, Col: 0}, CellAddress{Row: 1, Col: 1})
	var got []CellAddress
	for addr := range r.Addresses() {
		got = append(got, addr)
	}
	want := []CellAddress{
		{Row: 0, Col: 0}, {Row: 0, Col: 1},
		{Row: 1, Col: 0}, {Row: 1, Col: 1},
	}
	assert.Equal(t, want, got)
}

func TestRangeAddressAddressesEarlyStop(t *testing.T) {
	r := NewRangeAddress(CellAddress{Row: 0, Col: 0}, CellAddress{Row: 5, Col: 5})
	count := 0
	for range r.Addresses() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestRangeAddressToLabel(t *testing.T) {
	r := NewRangeAddress(CellAddress{Row: 0, Col: 0}, CellAddress{Row: 2, Col: 2})
	assert.Equal(t, "A1:C3", r.ToLabel())
}
