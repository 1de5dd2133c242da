package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanReferencesSingleCell(t *testing.T) {
	refs := ScanReferences("=A1+1")
	require.Len(t, refs, 1)
	assert.False(t, refs[0].IsRange)
	assert.Equal(t, "A1", refs[0].Text)
	assert.Equal(t, 1, refs[0].Start)
	assert.Equal(t, 3, refs[0].End)
}

func TestScanReferencesRange(t *testing.T) {
	refs := ScanReferences("=SUM(A1:B2)")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsRange)
	assert.Equal(t, "A1:B2", refs[0].Text)
}

func TestScanReferencesIgnoresStringLiterals(t *testing.T) {
	refs := ScanReferences(`="A1"&B2`)
	require.Len(t, refs, 1)
	assert.Equal(t, "B2", refs[0].Text)
}

func TestScanReferencesAbsoluteMarkers(t *testing.T) {
	refs := ScanReferences("=$A$1+1")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Cell.AbsRow)
	assert.True(t, refs[0].Cell.AbsCol)
}

func TestScanReferencesSkipsFunctionNames(t *testing.T) {
	refs := ScanReferences("=SUM(1,2)")
	assert.Empty(t, refs)
}

func TestScanReferencesMultiple(t *testing.T) {
	refs := ScanReferences("=A1+B2+C3")
	require.Len(t, refs, 3)
	assert.Equal(t, "A1", refs[0].Text)
	assert.Equal(t, "B2", refs[1].Text)
	assert.Equal(t, "C3", refs[2].Text)
}
