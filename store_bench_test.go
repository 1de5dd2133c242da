package gridflow

import (
	"testing"
)

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		store := NewCellStore()
		for row := uint32(0); row < 100; row++ {
			for col := uint32(0); col < 26; col++ {
				store.Set(&Cell{
					Address:  CellAddress{Row: row, Col: col},
					Computed: NumberValue(float64(row * col)),
				})
			}
		}
	}
}

func BenchmarkSparseMatrixBounds(b *testing.B) {
	store := NewCellStore()
	for row := uint32(0); row < 1000; row += 10 {
		for col := uint32(0); col < 1000; col += 10 {
			store.Set(&Cell{Address: CellAddress{Row: row, Col: col}, Computed: NumberValue(float64(row + col))})
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Bounds()
	}
}

func BenchmarkCellStoreInsertRows(b *testing.B) {
	for i := 0; i < b.N; i++ {
		store := NewCellStore()
		for row := uint32(0); row < 200; row++ {
			store.Set(&Cell{Address: CellAddress{Row: row, Col: 0}, Computed: NumberValue(float64(row))})
		}
		store.InsertRows(50, 10)
	}
}

func BenchmarkAddressLabelRoundTrip(b *testing.B) {
	for i := 0; i < b.N; i++ {
		for col := uint32(0); col < 700; col++ {
			label := ColumnLabel(col)
			_, _ = ParseColumnLabel(label)
		}
	}
}
