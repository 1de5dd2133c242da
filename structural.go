package gridflow

import "sort"

// WarningSeverity ranks a structural-analysis warning.
type WarningSeverity int

const (
	SeverityLow WarningSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// WarningKind classifies what a structural warning is about.
type WarningKind int

const (
	WarnFormulaReference WarningKind = iota
	WarnDataLoss
	WarnPerformance
)

// StructuralWarning is one finding from analyzing a prospective structural
// change before it is applied.
type StructuralWarning struct {
	Kind     WarningKind
	Severity WarningSeverity
	Address  CellAddress
	Message  string
}

// StructuralAnalysis is the result of validating and analyzing a change
// without applying it.
type StructuralAnalysis struct {
	Change        StructuralChange
	AffectedCount int
	Warnings      []StructuralWarning
	RiskScore     int // 0-100, higher is riskier
}

// Grade buckets RiskScore into a coarse letter grade for callers that
// don't want to interpret the raw number.
func (a StructuralAnalysis) Grade() string {
	switch {
	case a.RiskScore >= 75:
		return "critical"
	case a.RiskScore >= 50:
		return "high"
	case a.RiskScore >= 20:
		return "medium"
	default:
		return "low"
	}
}

// Validate checks a prospective change against limits without touching
// the store: out-of-bounds shifts and operations that would exceed
// MaxCellsPerStructuralOp are rejected up front.
func (e *Engine) Validate(change StructuralChange) error {
	rows, cols := e.store.Bounds()
	switch change.Op {
	case OpInsertRows:
		if uint64(rows)+uint64(change.Count) >= MaxRows {
			return Errorf(OutOfBounds, "insert_rows would exceed maximum row count")
		}
	case OpInsertCols:
		if uint64(cols)+uint64(change.Count) >= MaxCols {
			return Errorf(OutOfBounds, "insert_cols would exceed maximum column count")
		}
	}
	if e.store.Size() > e.limits.MaxCellsPerStructuralOp {
		return Errorf(LimitExceeded, "store holds more cells than a single structural op may touch")
	}
	return nil
}

// Analyze reports what change would do without applying it: how many
// formulas reference a cell that would be deleted (DataLoss/
// FormulaReference warnings) and a coarse performance warning when the
// op would touch a large fraction of the store.
func (e *Engine) Analyze(change StructuralChange) StructuralAnalysis {
	analysis := StructuralAnalysis{Change: change}

	for addr, cell := range e.store.All() {
		affected := false
		if isInDeletedSpan(addr, change) {
			affected = true
			analysis.Warnings = append(analysis.Warnings, StructuralWarning{
				Kind: WarnDataLoss, Severity: SeverityHigh, Address: addr,
				Message: "cell contents will be removed by this operation",
			})
		}
		if cell.HasFormula && WouldBeAffected(cell.Raw.Text, change) {
			affected = true
			sev := SeverityLow
			if referencesDeletedRange(cell.Raw.Text, change) {
				sev = SeverityCritical
				analysis.Warnings = append(analysis.Warnings, StructuralWarning{
					Kind: WarnFormulaReference, Severity: sev, Address: addr,
					Message: "formula reference would become #REF!",
				})
			} else {
				analysis.Warnings = append(analysis.Warnings, StructuralWarning{
					Kind: WarnFormulaReference, Severity: sev, Address: addr,
					Message: "formula references will be shifted",
				})
			}
		}
		if affected {
			analysis.AffectedCount++
		}
	}

	total := e.store.Size()
	if total > 0 && analysis.AffectedCount*4 >= total {
		analysis.Warnings = append(analysis.Warnings, StructuralWarning{
			Kind: WarnPerformance, Severity: SeverityMedium,
			Message: "operation touches a large fraction of the populated grid",
		})
	}

	analysis.RiskScore = scoreWarnings(analysis.Warnings)
	return analysis
}

func scoreWarnings(warnings []StructuralWarning) int {
	score := 0
	for _, w := range warnings {
		switch w.Severity {
		case SeverityLow:
			score += 1
		case SeverityMedium:
			score += 5
		case SeverityHigh:
			score += 10
		case SeverityCritical:
			score += 25
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func isInDeletedSpan(addr CellAddress, change StructuralChange) bool {
	switch change.Op {
	case OpDeleteRows:
		return addr.Row >= change.Index && addr.Row < change.Index+change.Count
	case OpDeleteCols:
		return addr.Col >= change.Index && addr.Col < change.Index+change.Count
	default:
		return false
	}
}

// ApplyStructuralChange runs the full validate -> analyze -> snapshot ->
// apply -> rebuild pipeline for a single structural change: every
// formula in the store is rewritten in place, the store itself is
// shifted, and the dependency graph is rebuilt from the rewritten
// formulas. Rollback on failure and undo both work from the
// pre-change store clone taken below, not a batch frame — the change
// touches every formula in the store, which the batch journal's
// per-address recording isn't shaped for.
func (e *Engine) ApplyStructuralChange(change StructuralChange) (StructuralAnalysis, error) {
	if err := e.Validate(change); err != nil {
		return StructuralAnalysis{}, err
	}
	analysis := e.Analyze(change)

	before := e.store.Clone()

	for _, cell := range e.store.All() {
		if cell.HasFormula {
			rewritten := RewriteFormula(cell.Raw.Text, change)
			if rewritten != cell.Raw.Text {
				cell.Raw = FormulaRaw(rewritten)
			}
		}
	}

	if err := e.shiftStore(change); err != nil {
		e.store = before
		e.rebuildGraph()
		return StructuralAnalysis{}, err
	}

	e.rebuildGraph()
	e.recalculateAll()
	e.events.flush()

	e.undo.pushStructural(newBatchId(), before, e.store.Clone())
	return analysis, nil
}

func (e *Engine) shiftStore(change StructuralChange) error {
	switch change.Op {
	case OpInsertRows:
		return e.store.InsertRows(change.Index, change.Count)
	case OpDeleteRows:
		return e.store.DeleteRows(change.Index, change.Count)
	case OpInsertCols:
		return e.store.InsertColumns(change.Index, change.Count)
	case OpDeleteCols:
		return e.store.DeleteColumns(change.Index, change.Count)
	}
	return nil
}

// rebuildGraph reconstructs every dependency edge from the store's
// current (post-rewrite) formulas, since a structural shift can move any
// number of cells and patching the graph incrementally would be as
// expensive as rebuilding it.
func (e *Engine) rebuildGraph() {
	e.graph = NewDependencyGraph()
	for addr, cell := range e.store.All() {
		if !cell.HasFormula {
			continue
		}
		node, perr := ParseFormula(cell.Raw.Text)
		if perr != nil {
			continue
		}
		refs, ranges := collectReferences(node)
		e.graph.UpdateDependencies(addr, refs, ranges)
	}
}

// recalculateAll re-evaluates every formula cell in topological order,
// used after a structural rebuild where every formula's references may
// have moved.
func (e *Engine) recalculateAll() {
	var seeds []CellAddress
	for addr, cell := range e.store.All() {
		if cell.HasFormula {
			seeds = append(seeds, addr)
		}
	}
	e.recalculate(seeds, true)
}

// InsertRows, DeleteRows, InsertColumns, and DeleteColumns are the
// facade-level convenience wrappers over ApplyStructuralChange.
func (e *Engine) InsertRows(before, n uint32) (StructuralAnalysis, error) {
	return e.ApplyStructuralChange(StructuralChange{Op: OpInsertRows, Index: before, Count: n})
}

func (e *Engine) DeleteRows(start, n uint32) (StructuralAnalysis, error) {
	return e.ApplyStructuralChange(StructuralChange{Op: OpDeleteRows, Index: start, Count: n})
}

func (e *Engine) InsertColumns(before, n uint32) (StructuralAnalysis, error) {
	return e.ApplyStructuralChange(StructuralChange{Op: OpInsertCols, Index: before, Count: n})
}

func (e *Engine) DeleteColumns(start, n uint32) (StructuralAnalysis, error) {
	return e.ApplyStructuralChange(StructuralChange{Op: OpDeleteCols, Index: start, Count: n})
}

// StructuralBatch queues a run of structural changes for one combined
// execute, rather than applying each as soon as it's described. Changes
// are not touched until ExecuteBatch reorders and applies them.
type StructuralBatch struct {
	engine  *Engine
	changes []StructuralChange
}

// StartBatch begins a queued structural batch against e.
func (e *Engine) StartBatch() *StructuralBatch {
	return &StructuralBatch{engine: e}
}

// AddChange queues change without applying it.
func (b *StructuralBatch) AddChange(change StructuralChange) {
	b.changes = append(b.changes, change)
}

// CancelBatch discards every queued change; nothing in it is ever applied.
func (b *StructuralBatch) CancelBatch() {
	b.changes = nil
}

// ExecuteBatch applies every queued change, reordered so deletes run in
// ascending index order and inserts in descending index order, deletes
// before inserts. Every queued index is interpreted against the
// pre-batch layout, so as each delete is applied it is shifted back by
// however many rows/columns earlier deletes on the same axis already
// removed at or below it — without that adjustment, an ascending
// sequence of deletes would target the wrong (already-shifted) rows
// after the first one runs. Descending inserts need no such adjustment:
// an insert at a higher original index never moves the position of a
// still-pending insert at a lower one. Mixing inserts and deletes on
// the same axis in one batch is not reconciled against each other —
// inserts run after every delete has already shifted the store, so an
// insert's index is resolved against the post-delete layout, not the
// original one. Each queued change is still applied through
// ApplyStructuralChange (so it gets its own validate/analyze/snapshot/
// undo entry); execution stops at the first failing change, returning
// the analyses completed so far alongside the error. The queue is
// cleared whether or not execution succeeds.
func (b *StructuralBatch) ExecuteBatch() ([]StructuralAnalysis, error) {
	ordered := orderStructuralChanges(b.changes)
	b.changes = nil

	var rowsRemoved, colsRemoved uint32
	analyses := make([]StructuralAnalysis, 0, len(ordered))
	for _, change := range ordered {
		switch change.Op {
		case OpDeleteRows:
			change.Index -= rowsRemoved
			rowsRemoved += change.Count
		case OpDeleteCols:
			change.Index -= colsRemoved
			colsRemoved += change.Count
		}
		analysis, err := b.engine.ApplyStructuralChange(change)
		if err != nil {
			return analyses, err
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// orderStructuralChanges sorts deletes ascending by index and inserts
// descending by index, deletes first. ExecuteBatch's delete-index
// adjustment depends on the ascending delete order: it subtracts every
// earlier delete on the same axis, which is only right when those deletes
// sat at lower indices. Row and column changes are independent of each
// other regardless of interleaving.
func orderStructuralChanges(changes []StructuralChange) []StructuralChange {
	var deletes, inserts []StructuralChange
	for _, c := range changes {
		switch c.Op {
		case OpDeleteRows, OpDeleteCols:
			deletes = append(deletes, c)
		default:
			inserts = append(inserts, c)
		}
	}
	sort.SliceStable(deletes, func(i, j int) bool { return deletes[i].Index < deletes[j].Index })
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].Index > inserts[j].Index })
	return append(deletes, inserts...)
}
