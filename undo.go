package gridflow

import "github.com/mohae/deepcopy"

// undoEntry is one undo-able unit. Cell-level edits (SetCell/DeleteCell,
// and batches of them) populate before/after; a structural op instead
// populates the whole-store snapshots, since an insert/delete of rows or
// columns changes the address a cell lives at and a per-address journal
// can't describe that (the same Cell ends up keyed differently before
// and after).
type undoEntry struct {
	id     BatchId
	before []journalEntry
	after  map[CellAddress]*Cell

	structural     bool
	storeBefore    *CellStore
	storeAfter     *CellStore
}

// undoManager holds the bounded LIFO undo/redo stacks, defaulting
// to 100 entries. Redo snapshots are produced with mohae/deepcopy rather
// than a hand-rolled per-field copier, matching how the broader pack
// leans on a deep-copy library for snapshot-style state instead of
// reimplementing structural cloning.
type undoManager struct {
	maxDepth  int
	undoStack []undoEntry
	redoStack []undoEntry
}

func newUndoManager(maxDepth int) *undoManager {
	if maxDepth <= 0 {
		maxDepth = 100
	}
	return &undoManager{maxDepth: maxDepth}
}

// pushUndo records a committed batch. after is the store holding the
// batch's net result; only the journaled addresses' current cells are
// captured (deep-copied) for redo. Any existing redo history is
// discarded — once a new edit happens, old redo entries no longer apply.
func (m *undoManager) pushUndo(id BatchId, journal []journalEntry, after *CellStore) {
	if len(journal) == 0 {
		return
	}
	afterCells := make(map[CellAddress]*Cell, len(journal))
	for _, entry := range journal {
		if cell, ok := after.Get(entry.Address); ok {
			afterCells[entry.Address] = deepcopy.Copy(cell).(*Cell)
		}
	}
	m.undoStack = append(m.undoStack, undoEntry{id: id, before: journal, after: afterCells})
	if len(m.undoStack) > m.maxDepth {
		m.undoStack = m.undoStack[len(m.undoStack)-m.maxDepth:]
	}
	m.redoStack = nil
}

// pushStructural records a structural op as a single undo-able unit
// holding full before/after store snapshots rather than per-address
// entries.
func (m *undoManager) pushStructural(id BatchId, before, after *CellStore) {
	m.undoStack = append(m.undoStack, undoEntry{id: id, structural: true, storeBefore: before, storeAfter: after})
	if len(m.undoStack) > m.maxDepth {
		m.undoStack = m.undoStack[len(m.undoStack)-m.maxDepth:]
	}
	m.redoStack = nil
}

func (m *undoManager) popUndo() (undoEntry, bool) {
	n := len(m.undoStack)
	if n == 0 {
		return undoEntry{}, false
	}
	e := m.undoStack[n-1]
	m.undoStack = m.undoStack[:n-1]
	return e, true
}

func (m *undoManager) pushRedo(e undoEntry) {
	m.redoStack = append(m.redoStack, e)
}

func (m *undoManager) popRedo() (undoEntry, bool) {
	n := len(m.redoStack)
	if n == 0 {
		return undoEntry{}, false
	}
	e := m.redoStack[n-1]
	m.redoStack = m.redoStack[:n-1]
	return e, true
}

// Undo reverts the most recent committed batch, recomputes its
// dependents, and emits the resulting events immediately (undo is not
// itself undo-journaled the way a normal edit is — it moves the entry to
// the redo stack instead). Returns false if there is nothing to undo.
func (e *Engine) Undo() bool {
	entry, ok := e.undo.popUndo()
	if !ok {
		return false
	}
	if entry.structural {
		e.restoreStore(entry.storeBefore)
	} else {
		e.applyJournal(entry.before)
	}
	e.events.flush()
	e.undo.pushRedo(entry)
	return true
}

// Redo reapplies a batch previously undone, restoring its post-commit
// cells from the deep-copied snapshot and then recomputing the touched
// cells and their dependents. Returns false if there is nothing to redo.
func (e *Engine) Redo() bool {
	entry, ok := e.undo.popRedo()
	if !ok {
		return false
	}
	if entry.structural {
		e.restoreStore(entry.storeAfter)
	} else {
		var touched []CellAddress
		for _, j := range entry.before {
			addr := j.Address
			touched = append(touched, addr)
			if cell, ok := entry.after[addr]; ok {
				e.store.Set(cell)
				e.graph.UpdateDependencies(addr, precedentsOf(cell), rangesOf(cell))
			} else {
				e.store.Remove(addr)
				e.graph.RemoveCell(addr)
			}
		}
		e.recalculate(touched, false)
	}
	e.events.flush()
	e.undo.undoStack = append(e.undo.undoStack, entry)
	return true
}

// restoreStore replaces the engine's store wholesale with a clone of
// snapshot and rebuilds the dependency graph from its formulas — the
// only correct way to undo/redo a structural op, since row/column shifts
// change the addresses cells live at.
func (e *Engine) restoreStore(snapshot *CellStore) {
	e.store = snapshot.Clone()
	e.rebuildGraph()
	var seeds []CellAddress
	for addr, cell := range e.store.All() {
		if cell.HasFormula {
			seeds = append(seeds, addr)
		}
	}
	e.recalculate(seeds, false)
}
