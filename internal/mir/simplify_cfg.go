package mir

// SimplifyCFG performs control flow graph simplification on a function.
// Transformations:
// 1. Remove trivial goto blocks (0 instructions + goto terminator)
// 2. Collapse goto chains
// 3. Remove unreachable blocks
// 4. Renumber blocks deterministically
//
// A trivial block is only bypassed when it agrees with its target on being
// a cleanup block, so unwind edges keep landing on cleanup code.
func SimplifyCFG(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}

	// Phase 1: Build redirect map for trivial goto blocks
	redirects := buildRedirectMap(f)

	// Phase 2: Apply redirects to all terminators
	applyRedirects(f, redirects)

	// Phase 3: Compute reachability and remove dead blocks
	reachable := Reachable(f)

	// Phase 4: Compact and renumber blocks
	compactBlocks(f, reachable)
}

// buildRedirectMap finds all trivial goto blocks and builds a mapping
// from their IDs to their final targets (following chains).
func buildRedirectMap(f *Func) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)

	for i := range f.Blocks {
		if !isTrivialGotoBlock(f, BlockID(i)) { //nolint:gosec // bounded by block count
			continue
		}
		bb := &f.Blocks[i]
		target := bb.Term.Goto.Target
		// Follow chain to final target
		visited := map[BlockID]bool{BlockID(i): true} //nolint:gosec // bounded by block count
		for !visited[target] {
			visited[target] = true

			if next, ok := redirects[target]; ok {
				target = next
				continue
			}
			if isTrivialGotoBlock(f, target) {
				target = f.Blocks[target].Term.Goto.Target
				continue
			}
			break
		}
		if visited[target] && isTrivialGotoBlock(f, target) {
			// goto cycle: leave it in place
			continue
		}
		redirects[BlockID(i)] = target //nolint:gosec // bounded by block count
	}
	return redirects
}

// isTrivialGotoBlock checks if a block is a trivial goto block
// (0 instructions and a goto terminator to a block of the same kind).
func isTrivialGotoBlock(f *Func, id BlockID) bool {
	bb := f.Block(id)
	if bb == nil || len(bb.Instrs) != 0 || bb.Term.Kind != TermGoto {
		return false
	}
	target := f.Block(bb.Term.Goto.Target)
	return target != nil && target.Cleanup == bb.Cleanup
}

// applyRedirects updates all terminators to use the redirected targets.
func applyRedirects(f *Func, redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}

	redirect := func(id BlockID) BlockID {
		if newID, ok := redirects[id]; ok {
			return newID
		}
		return id
	}

	for i := range f.Blocks {
		f.Blocks[i].Term.MapTargets(redirect)
	}

	// Also redirect entry if needed
	f.Entry = redirect(f.Entry)
}

// compactBlocks removes unreachable blocks and renumbers the remaining ones.
func compactBlocks(f *Func, reachable []bool) {
	// Count reachable blocks
	count := 0
	for _, r := range reachable {
		if r {
			count++
		}
	}

	// If all blocks are reachable, just update IDs
	if count == len(f.Blocks) {
		for i := range f.Blocks {
			f.Blocks[i].ID = BlockID(i) //nolint:gosec // G115: bounded by existing block count
		}
		return
	}

	// Build old→new ID mapping
	oldToNew := make(map[BlockID]BlockID)
	newBlocks := make([]Block, 0, count)

	for i, keep := range reachable {
		if keep {
			//nolint:gosec // G115: bounded by existing block count
			oldToNew[BlockID(i)] = BlockID(len(newBlocks))
			newBlocks = append(newBlocks, f.Blocks[i])
		}
	}

	// Update all block references
	remap := func(id BlockID) BlockID {
		if newID, ok := oldToNew[id]; ok {
			return newID
		}
		return id // Should not happen if reachability is correct
	}

	for i := range newBlocks {
		newBlocks[i].ID = BlockID(i) //nolint:gosec // G115: bounded by newBlocks length
		newBlocks[i].Term.MapTargets(remap)
	}

	f.Blocks = newBlocks
	f.Entry = remap(f.Entry)
}
