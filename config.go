package gridflow

// EngineLimits configures the back-pressure and structural-safety ceilings
// the engine enforces. Construct one with DefaultLimits
// and override only the fields that need to differ, rather than building
// the struct from a zero value (a zero MaxCellsPerStructuralOp rejects every
// structural op on a non-empty store).
type EngineLimits struct {
	// MaxMemoryBytes bounds the store's estimated footprint (CellStore.EstimatedBytes).
	MaxMemoryBytes int64
	// MaxCellsPerStructuralOp bounds how many cells a single insert/delete
	// rows/cols call is allowed to touch before it's rejected outright.
	MaxCellsPerStructuralOp int
	// MaxUndoDepth bounds the undo/redo stacks.
	MaxUndoDepth int
}

// DefaultLimits returns the engine's out-of-the-box configuration.
func DefaultLimits() EngineLimits {
	return EngineLimits{
		MaxMemoryBytes:          512 * 1024 * 1024,
		MaxCellsPerStructuralOp: 100_000,
		MaxUndoDepth:            100,
	}
}
