package mir

import (
	"fmt"
	"slices"

	"dropelab/internal/source"
	"dropelab/internal/types"
)

// Patch is a log of edits against an unmodified body. Passes record new
// blocks, locals, statements and terminator replacements while they keep
// reading the original Func; nothing becomes visible until Apply.
type Patch struct {
	f *Func

	patchMap      map[BlockID]Terminator
	newBlocks     []Block
	newStatements []pendingStatement
	newLocals     []Local
	resumeBlock   BlockID
}

type pendingStatement struct {
	loc   Location
	instr Instr
}

// NewPatch starts an empty patch for f. An existing empty cleanup block that
// only resumes is reused as the resume block.
func NewPatch(f *Func) *Patch {
	p := &Patch{
		f:           f,
		patchMap:    make(map[BlockID]Terminator),
		resumeBlock: NoBlockID,
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if bb.Cleanup && len(bb.Instrs) == 0 && bb.Term.Kind == TermResume {
			p.resumeBlock = BlockID(i) //nolint:gosec // bounded by block count
			break
		}
	}
	return p
}

// ResumeBlock returns the shared cleanup block that resumes unwinding,
// creating it on first use.
func (p *Patch) ResumeBlock() BlockID {
	if p.resumeBlock == NoBlockID {
		p.resumeBlock = p.NewBlock(Block{
			Term:    Terminator{Kind: TermResume, Span: p.f.Span},
			Cleanup: true,
		})
	}
	return p.resumeBlock
}

// IsPatched reports whether bb's terminator has been replaced.
func (p *Patch) IsPatched(bb BlockID) bool {
	_, ok := p.patchMap[bb]
	return ok
}

// TerminatorFor returns the terminator bb will have after Apply.
func (p *Patch) TerminatorFor(bb BlockID) *Terminator {
	if t, ok := p.patchMap[bb]; ok {
		return &t
	}
	return &p.block(bb).Term
}

// NewBlock records a new block and returns the id it will have after Apply.
func (p *Patch) NewBlock(b Block) BlockID {
	id := BlockID(len(p.f.Blocks) + len(p.newBlocks)) //nolint:gosec // bounded by block count
	b.ID = id
	p.newBlocks = append(p.newBlocks, b)
	return id
}

// NewTemp records a fresh internal local.
func (p *Patch) NewTemp(ty types.TypeID, span source.Span) LocalID {
	return p.NewLocal(Local{Type: ty, Span: span, Internal: true})
}

// NewLocal records a fresh local and returns the id it will have after
// Apply.
func (p *Patch) NewLocal(l Local) LocalID {
	id := LocalID(len(p.f.Locals) + len(p.newLocals)) //nolint:gosec // bounded by local count
	p.newLocals = append(p.newLocals, l)
	return id
}

// PatchError is the panic value for misuse of a Patch.
type PatchError struct {
	Block BlockID
	Msg   string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("mir: bb%d: %s", e.Block, e.Msg)
}

// PatchTerminator replaces bb's terminator. Patching a block twice is a bug
// in the caller and panics with *PatchError.
func (p *Patch) PatchTerminator(bb BlockID, term Terminator) {
	if p.IsPatched(bb) {
		panic(&PatchError{Block: bb, Msg: "terminator patched twice"})
	}
	if term.Span == (source.Span{}) {
		term.Span = p.block(bb).Term.Span
	}
	p.patchMap[bb] = term
}

// AddStatement inserts ins before the statement at loc. Statements added at
// the same location keep their insertion order.
func (p *Patch) AddStatement(loc Location, ins Instr) {
	if ins.Span == (source.Span{}) {
		ins.Span = p.SpanForLocation(loc)
	}
	p.newStatements = append(p.newStatements, pendingStatement{loc: loc, instr: ins})
}

// AddAssign inserts `place = rv` before the statement at loc.
func (p *Patch) AddAssign(loc Location, place Place, rv RValue) {
	p.AddStatement(loc, Assign(place, rv))
}

// SpanForLocation returns the span of the statement or terminator at loc,
// looking into blocks created by this patch as well.
func (p *Patch) SpanForLocation(loc Location) source.Span {
	bb := p.block(loc.Block)
	if loc.Index < len(bb.Instrs) {
		return bb.Instrs[loc.Index].Span
	}
	return bb.Term.Span
}

func (p *Patch) block(id BlockID) *Block {
	if int(id) >= len(p.f.Blocks) {
		return &p.newBlocks[int(id)-len(p.f.Blocks)]
	}
	return &p.f.Blocks[id]
}

// Apply writes every recorded edit into f, which must be the body the patch
// was created for.
func (p *Patch) Apply(f *Func) {
	f.Locals = append(f.Locals, p.newLocals...)
	f.Blocks = append(f.Blocks, p.newBlocks...)

	for bb, term := range p.patchMap {
		f.Blocks[bb].Term = term
	}

	stmts := slices.Clone(p.newStatements)
	slices.SortStableFunc(stmts, func(a, b pendingStatement) int {
		return a.loc.Compare(b.loc)
	})
	delta := 0
	lastBB := NoBlockID
	for _, st := range stmts {
		if st.loc.Block != lastBB {
			delta = 0
			lastBB = st.loc.Block
		}
		bb := &f.Blocks[st.loc.Block]
		bb.Instrs = slices.Insert(bb.Instrs, st.loc.Index+delta, st.instr)
		delta++
	}
}

func (p *Patch) NumNewBlocks() int          { return len(p.newBlocks) }
func (p *Patch) NumNewLocals() int          { return len(p.newLocals) }
func (p *Patch) NumNewStatements() int      { return len(p.newStatements) }
func (p *Patch) NumPatchedTerminators() int { return len(p.patchMap) }

// NewBlocks returns the blocks recorded so far.
func (p *Patch) NewBlocks() []Block {
	return p.newBlocks
}
