package mir

// Reachable performs a DFS from the entry block and reports which blocks
// can execute. Unwind edges count as reachable edges.
func Reachable(f *Func) []bool {
	reachable := make([]bool, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			return
		}
		reachable[id] = true
		for _, succ := range Successors(&f.Blocks[id].Term) {
			visit(succ)
		}
	}

	visit(f.Entry)
	return reachable
}

// ReversePostorder returns reachable blocks in reverse postorder, the
// preferred visiting order for forward dataflow.
func ReversePostorder(f *Func) []BlockID {
	seen := make([]bool, len(f.Blocks))
	post := make([]BlockID, 0, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || seen[id] {
			return
		}
		seen[id] = true
		for _, succ := range Successors(&f.Blocks[id].Term) {
			visit(succ)
		}
		post = append(post, id)
	}
	visit(f.Entry)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
