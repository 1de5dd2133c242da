package gridflow

import (
	"strings"

	"github.com/closeread/gridflow/internal/glog"
)

// Engine is the single entry point into the grid. Every mutation —
// set_cell, delete_cell, a structural op, an undo/redo — goes through it,
// so it is the only place that touches the store, graph, evaluator, and
// event bus together.
type Engine struct {
	limits    EngineLimits
	store     *CellStore
	graph     *DependencyGraph
	functions *BuiltInFunctions
	events    *eventBus
	batches   batchStack
	undo      *undoManager
	log       *glog.Logger
}

// NewEngine constructs an empty engine configured with limits.
func NewEngine(limits EngineLimits) *Engine {
	return &Engine{
		limits:    limits,
		store:     NewCellStore(),
		graph:     NewDependencyGraph(),
		functions: NewBuiltInFunctions(),
		events:    newEventBus(),
		undo:      newUndoManager(limits.MaxUndoDepth),
		log:       glog.New("gridflow"),
	}
}

// Subscribe registers a listener for every event the engine emits.
func (e *Engine) Subscribe(l Listener) {
	e.events.Subscribe(l)
}

// inBatch reports whether a mutation is currently nested inside an
// explicit or implicit batch.
func (e *Engine) inBatch() bool { return e.batches.depth() > 0 }

// BeginBatch opens a new (possibly nested) batch. Events and the undo
// stack only see the outermost batch's net effect once it commits.
func (e *Engine) BeginBatch() BatchId {
	f := e.batches.push()
	return f.id
}

// CommitBatch closes the batch identified by id, which must be the
// innermost open batch — nesting is LIFO, so a commit naming any other
// frame fails with BatchState rather than silently popping the wrong
// one. At depth 0 it records one undo entry for the whole frame's
// journal and flushes buffered events; at depth > 0 it simply folds
// into the parent frame.
func (e *Engine) CommitBatch(id BatchId) error {
	top := e.batches.top()
	if top == nil {
		return NewError(BatchState, "commit_batch called with no open batch")
	}
	if top.id != id {
		return NewError(BatchState, "commit_batch called out of LIFO order")
	}
	f := e.batches.pop()
	if e.batches.depth() == 0 {
		if len(f.journal) > 0 {
			e.undo.pushUndo(f.id, f.journal, e.snapshotFor(f.journal))
		}
		e.events.flush()
	}
	return nil
}

// RollbackBatch reverts every mutation recorded since the matching
// BeginBatch, discards the batch's buffered events, and — if this was the
// outermost frame — restores the store to its exact pre-batch state. id
// must name the innermost open batch; as with CommitBatch, an
// out-of-order rollback fails with BatchState instead of unwinding the
// wrong frame.
func (e *Engine) RollbackBatch(id BatchId) error {
	top := e.batches.top()
	if top == nil {
		return NewError(BatchState, "rollback_batch called with no open batch")
	}
	if top.id != id {
		return NewError(BatchState, "rollback_batch called out of LIFO order")
	}
	f := e.batches.pop()
	e.applyJournal(f.journal)
	if e.batches.depth() == 0 {
		e.events.discard()
	}
	return nil
}

// applyJournal restores every journaled address to its pre-batch state,
// in reverse recording order, then recomputes affected dependents without
// emitting events (used for rollback, not for undo/redo which manage
// their own event emission via Undo/Redo).
func (e *Engine) applyJournal(journal []journalEntry) {
	var touched []CellAddress
	for i := len(journal) - 1; i >= 0; i-- {
		entry := journal[i]
		if entry.Had {
			e.store.Set(entry.Previous)
			e.graph.UpdateDependencies(entry.Address, precedentsOf(entry.Previous), rangesOf(entry.Previous))
		} else {
			e.store.Remove(entry.Address)
			e.graph.RemoveCell(entry.Address)
		}
		touched = append(touched, entry.Address)
	}
	e.recalculate(touched, false)
}

func (e *Engine) snapshotFor(journal []journalEntry) *CellStore {
	return e.store.Clone()
}

// SetCell parses/interprets input and stores it at addr, then recomputes
// every cell transitively dependent on addr (including addr itself) in
// topological order. A malformed formula still occupies the cell (so it
// remains a valid dependency source for its raw text) but computes to
// #VALUE! or #NAME? as appropriate.
func (e *Engine) SetCell(addr CellAddress, input string) error {
	implicit := !e.inBatch()
	var id BatchId
	if implicit {
		id = e.BeginBatch()
	}

	prev, had := e.store.Get(addr)
	e.batches.top().record(addr, had, prev)

	raw := ParseRawValue(input)
	cell := &Cell{Address: addr, Raw: raw}

	var refs []CellAddress
	var ranges []RangeAddress
	if raw.Kind == KindFormula {
		cell.HasFormula = true
		node, perr := ParseFormula(raw.Text)
		if perr != nil {
			if isUnknownNameError(perr) {
				cell.Computed = ErrorComputedValue(NewErrorValue(ErrName))
			} else {
				cell.Computed = ErrorComputedValue(NewErrorValue(ErrValue))
			}
		} else {
			refs, ranges = collectReferences(node)
			cell.Computed = Evaluate(e.store, e.functions, node)
		}
	} else {
		cell.Computed = interpretLiteral(raw)
	}

	var before ComputedValue
	if had {
		before = prev.Computed
	} else {
		before = EmptyValue()
	}

	e.store.Set(cell)
	e.graph.UpdateDependencies(addr, refs, ranges)

	e.events.queue(Event{Kind: EventCellChanged, Address: addr, Before: before, After: cell.Computed})

	e.recalculate([]CellAddress{addr}, true)

	if implicit {
		return e.CommitBatch(id)
	}
	return nil
}

// GetCell returns the cell stored at addr, if any.
func (e *Engine) GetCell(addr CellAddress) (*Cell, bool) {
	return e.store.Get(addr)
}

// GetValue returns addr's current ComputedValue, EmptyValue() if unset.
func (e *Engine) GetValue(addr CellAddress) ComputedValue {
	cell, ok := e.store.Get(addr)
	if !ok {
		return EmptyValue()
	}
	return cell.Computed
}

// DeleteCell removes addr and recomputes its dependents.
func (e *Engine) DeleteCell(addr CellAddress) error {
	implicit := !e.inBatch()
	var id BatchId
	if implicit {
		id = e.BeginBatch()
	}

	prev, had := e.store.Get(addr)
	if !had {
		if implicit {
			return e.CommitBatch(id)
		}
		return nil
	}
	e.batches.top().record(addr, had, prev)

	e.store.Remove(addr)
	e.graph.ClearDependencies(addr)

	e.events.queue(Event{Kind: EventCellChanged, Address: addr, Before: prev.Computed, After: EmptyValue()})

	e.recalculate([]CellAddress{addr}, true)

	if implicit {
		return e.CommitBatch(id)
	}
	return nil
}

// recalculate recomputes the seeds that hold formulas and every cell
// transitively dependent on them in topological order, flags #CIRC! on
// cells caught in a cycle, journals each recomputed cell's prior value
// into the current batch frame when journalSeeds is set, and queues a
// single cells_recomputed event.
func (e *Engine) recalculate(seeds []CellAddress, journalSeeds bool) {
	order, cycle := e.graph.TopologicalOrder(seeds)
	if len(order) == 0 {
		return
	}

	var recomputed []CellAddress
	top := e.batches.top()

	for _, addr := range order {
		cell, ok := e.store.Get(addr)
		if !ok || !cell.HasFormula {
			continue
		}
		if cycle[addr] {
			if top != nil && journalSeeds {
				prevCopy := *cell
				top.record(addr, true, &prevCopy)
			}
			cell.Computed = ErrorComputedValue(NewErrorValue(ErrCirc))
			recomputed = append(recomputed, addr)
			continue
		}
		node, perr := ParseFormula(cell.Raw.Text)
		if perr != nil {
			if top != nil && journalSeeds {
				prevCopy := *cell
				top.record(addr, true, &prevCopy)
			}
			kind := ErrValue
			if strings.Contains(cell.Raw.Text, "#REF!") {
				kind = ErrRef
			} else if isUnknownNameError(perr) {
				kind = ErrName
			}
			cell.Computed = ErrorComputedValue(NewErrorValue(kind))
			recomputed = append(recomputed, addr)
			continue
		}
		if top != nil && journalSeeds {
			prevCopy := *cell
			top.record(addr, true, &prevCopy)
		}
		cell.Computed = Evaluate(e.store, e.functions, node)
		recomputed = append(recomputed, addr)
	}

	if len(recomputed) > 0 {
		e.events.queue(Event{Kind: EventCellsRecomputed, Addresses: recomputed})
	}
}

func precedentsOf(c *Cell) []CellAddress {
	if c == nil || !c.HasFormula {
		return nil
	}
	node, perr := ParseFormula(c.Raw.Text)
	if perr != nil {
		return nil
	}
	refs, _ := collectReferences(node)
	return refs
}

func rangesOf(c *Cell) []RangeAddress {
	if c == nil || !c.HasFormula {
		return nil
	}
	node, perr := ParseFormula(c.Raw.Text)
	if perr != nil {
		return nil
	}
	_, ranges := collectReferences(node)
	return ranges
}

// collectReferences walks a parsed AST collecting every CellRefNode and
// RangeRefNode it contains, for wiring into the dependency graph.
func collectReferences(node ASTNode) ([]CellAddress, []RangeAddress) {
	var refs []CellAddress
	var ranges []RangeAddress
	var walk func(n ASTNode)
	walk = func(n ASTNode) {
		switch t := n.(type) {
		case *CellRefNode:
			refs = append(refs, t.Ref.Address)
		case *RangeRefNode:
			ranges = append(ranges, t.rangeAddress())
		case *UnaryNode:
			walk(t.Operand)
		case *BinaryNode:
			walk(t.Left)
			walk(t.Right)
		case *FunctionCallNode:
			for _, a := range t.Args {
				walk(a)
			}
		}
	}
	walk(node)
	return refs, ranges
}

func isUnknownNameError(perr *ParseError) bool {
	return len(perr.Reason) >= 12 && perr.Reason[:12] == "unknown name"
}
