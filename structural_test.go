package gridflow

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineInsertRowsShiftsCellsAndFormulas(t *testing.T) {
	e := newTestEngine()
	a1 := CellAddress{Row: 0, Col: 0}
	a5 := CellAddress{Row: 4, Col: 0}
	b1 := CellAddress{Row: 0, Col: 1}
	require.NoError(t, e.SetCell(a1, "1"))
	require.NoError(t, e.SetCell(a5, "5"))
	require.NoError(t, e.SetCell(b1, "=A5+1"))

	_, err := e.InsertRows(2, 3)
	require.NoError(t, err)

	_, ok := e.GetCell(a5)
	assert.False(t, ok)
	shifted, ok := e.GetCell(CellAddress{Row: 7, Col: 0})
	require.True(t, ok)
	assert.Equal(t, NumberValue(5), shifted.Computed)

	bCell, _ := e.GetCell(b1)
	assert.Equal(t, "=A8+1", bCell.Raw.Text)
	assert.Equal(t, NumberValue(6), bCell.Computed)
}

func TestEngineDeleteRowsProducesRefError(t *testing.T) {
	e := newTestEngine()
	a1 := CellAddress{Row: 0, Col: 0}
	b1 := CellAddress{Row: 0, Col: 1}
	b2 := CellAddress{Row: 1, Col: 1}
	require.NoError(t, e.SetCell(a1, "1"))
	require.NoError(t, e.SetCell(b2, "=A1+1"))

	_, err := e.DeleteRows(0, 1)
	require.NoError(t, err)

	// B2 moves up into B1 once row 0 is gone.
	bCell, ok := e.GetCell(b1)
	require.True(t, ok)
	assert.Equal(t, "=#REF!+1", bCell.Raw.Text)
	require.True(t, bCell.Computed.IsError())
	assert.Equal(t, ErrRef, bCell.Computed.Err.Kind)
}

func TestEngineValidateRejectsOutOfBoundsInsert(t *testing.T) {
	e := newTestEngine()
	err := e.Validate(StructuralChange{Op: OpInsertRows, Index: 0, Count: MaxRows})
	require.Error(t, err)
	ge, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, OutOfBounds, ge.Code)
}

func TestEngineAnalyzeReportsDataLossAndFormulaReference(t *testing.T) {
	e := newTestEngine()
	a1 := CellAddress{Row: 0, Col: 0}
	b1 := CellAddress{Row: 0, Col: 1}
	require.NoError(t, e.SetCell(a1, "1"))
	require.NoError(t, e.SetCell(b1, "=A1+1"))

	analysis := e.Analyze(StructuralChange{Op: OpDeleteRows, Index: 0, Count: 1})
	assert.GreaterOrEqual(t, analysis.AffectedCount, 1)
	assert.NotEmpty(t, analysis.Warnings)
	assert.Greater(t, analysis.RiskScore, 0)
}

func TestStructuralAnalysisGrade(t *testing.T) {
	assert.Equal(t, "low", StructuralAnalysis{RiskScore: 0}.Grade())
	assert.Equal(t, "medium", StructuralAnalysis{RiskScore: 20}.Grade())
	assert.Equal(t, "high", StructuralAnalysis{RiskScore: 50}.Grade())
	assert.Equal(t, "critical", StructuralAnalysis{RiskScore: 75}.Grade())
}

func TestEngineStructuralOpIsUndoable(t *testing.T) {
	e := newTestEngine()
	a1 := CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "1"))

	_, err := e.InsertRows(0, 1)
	require.NoError(t, err)

	_, ok := e.GetCell(CellAddress{Row: 1, Col: 0})
	assert.True(t, ok)

	assert.True(t, e.Undo())
	cell, ok := e.GetCell(a1)
	require.True(t, ok)
	assert.Equal(t, NumberValue(1), cell.Computed)
	_, ok = e.GetCell(CellAddress{Row: 1, Col: 0})
	assert.False(t, ok)
}

func TestOrderStructuralChangesSortsDeletesAscendingInsertsDescendingDeletesFirst(t *testing.T) {
	changes := []StructuralChange{
		{Op: OpInsertRows, Index: 5},
		{Op: OpDeleteRows, Index: 3},
		{Op: OpInsertCols, Index: 2},
		{Op: OpDeleteCols, Index: 1},
	}

	ordered := orderStructuralChanges(changes)
	require.Len(t, ordered, 4)
	assert.Equal(t, StructuralChange{Op: OpDeleteCols, Index: 1}, ordered[0])
	assert.Equal(t, StructuralChange{Op: OpDeleteRows, Index: 3}, ordered[1])
	assert.Equal(t, StructuralChange{Op: OpInsertRows, Index: 5}, ordered[2])
	assert.Equal(t, StructuralChange{Op: OpInsertCols, Index: 2}, ordered[3])
}

func TestStructuralBatchExecuteAppliesQueuedChangesInOptimizedOrder(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.SetCell(CellAddress{Row: 0, Col: 0}, "1"))
	require.NoError(t, e.SetCell(CellAddress{Row: 1, Col: 0}, "2"))

	b := e.StartBatch()
	b.AddChange(StructuralChange{Op: OpInsertRows, Index: 0, Count: 1})
	b.AddChange(StructuralChange{Op: OpInsertCols, Index: 0, Count: 1})

	analyses, err := b.ExecuteBatch()
	require.NoError(t, err)
	assert.Len(t, analyses, 2)

	cell, ok := e.GetCell(CellAddress{Row: 1, Col: 1})
	require.True(t, ok)
	assert.Equal(t, NumberValue(1), cell.Computed)
}

func TestStructuralBatchCancelDiscardsQueuedChanges(t *testing.T) {
	e := newTestEngine()
	a1 := CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "1"))

	b := e.StartBatch()
	b.AddChange(StructuralChange{Op: OpDeleteRows, Index: 0, Count: 1})
	b.CancelBatch()

	analyses, err := b.ExecuteBatch()
	require.NoError(t, err)
	assert.Empty(t, analyses)

	_, ok := e.GetCell(a1)
	assert.True(t, ok, "cancelled batch must not have deleted anything")
}

func TestStructuralBatchExecuteStopsAtFirstError(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.SetCell(CellAddress{Row: 0, Col: 0}, "1"))

	b := e.StartBatch()
	b.AddChange(StructuralChange{Op: OpDeleteRows, Index: 0, Count: 1})
	b.AddChange(StructuralChange{Op: OpInsertRows, Index: 0, Count: MaxRows})

	analyses, err := b.ExecuteBatch()
	require.Error(t, err)
	assert.Len(t, analyses, 1, "the delete (ascending, applied first) should have succeeded before the failing insert")
}

func TestStructuralBatchExecuteAdjustsLaterDeletesForEarlierShifts(t *testing.T) {
	e := newTestEngine()
	for row := uint32(0); row < 12; row++ {
		require.NoError(t, e.SetCell(CellAddress{Row: row, Col: 0}, strconv.Itoa(int(row))))
	}

	b := e.StartBatch()
	// Queued out of order; ExecuteBatch must still resolve both indices
	// against the original, pre-batch row numbering.
	b.AddChange(StructuralChange{Op: OpDeleteRows, Index: 10, Count: 1})
	b.AddChange(StructuralChange{Op: OpDeleteRows, Index: 5, Count: 1})

	_, err := b.ExecuteBatch()
	require.NoError(t, err)

	rows, _ := e.store.Bounds()
	assert.Equal(t, uint32(9), rows)
	for row := uint32(0); row <= rows; row++ {
		_, ok := e.GetCell(CellAddress{Row: row, Col: 0})
		assert.True(t, ok, "row %d should still hold a cell", row)
	}
	// Original rows 5 and 10 are gone, so the last row holds original row 11.
	assert.Equal(t, NumberValue(11), e.GetValue(CellAddress{Row: 9, Col: 0}))
}

func TestEngineInsertColumnsAndDeleteColumns(t *testing.T) {
	e := newTestEngine()
	a1 := CellAddress{Row: 0, Col: 0}
	require.NoError(t, e.SetCell(a1, "7"))

	_, err := e.InsertColumns(0, 2)
	require.NoError(t, err)
	cell, ok := e.GetCell(CellAddress{Row: 0, Col: 2})
	require.True(t, ok)
	assert.Equal(t, NumberValue(7), cell.Computed)

	_, err = e.DeleteColumns(0, 2)
	require.NoError(t, err)
	cell, ok = e.GetCell(a1)
	require.True(t, ok)
	assert.Equal(t, NumberValue(7), cell.Computed)
}
