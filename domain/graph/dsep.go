package graph

// DSeparated reports whether x and y are d-separated by the conditioning set
// z in this graph, which must be a DAG of directed edges. It runs the
// standard reachability procedure: a trail through a non-collider is active
// when the middle node is unobserved, a trail through a collider is active
// when the collider or one of its descendants is observed.
func (g *Graph) DSeparated(x, y *Node, z []*Node) bool {
	if x == y {
		return false
	}
	observed := make(map[*Node]bool, len(z))
	for _, n := range z {
		observed[n] = true
	}
	if observed[x] || observed[y] {
		return true
	}

	// Ancestors of the conditioning set, including the set itself. A collider
	// opens exactly when it lies in this closure.
	anc := make(map[*Node]bool)
	stack := append([]*Node(nil), z...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if anc[n] {
			continue
		}
		anc[n] = true
		stack = append(stack, g.Parents(n)...)
	}

	type state struct {
		node       *Node
		fromParent bool
	}
	// Starting "from child" lets the walk leave x in every direction.
	frontier := []state{{node: x, fromParent: false}}
	seen := make(map[state]bool)

	for len(frontier) > 0 {
		s := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if seen[s] {
			continue
		}
		seen[s] = true

		n := s.node
		if s.fromParent {
			// Arrived along p --> n. Chains continue downward when n is
			// unobserved; colliders continue upward when n opens.
			if !observed[n] {
				if n == y {
					return false
				}
				for _, c := range g.Children(n) {
					frontier = append(frontier, state{node: c, fromParent: true})
				}
			}
			if anc[n] {
				for _, p := range g.Parents(n) {
					frontier = append(frontier, state{node: p, fromParent: false})
				}
			}
		} else {
			// Arrived along n <-- c (or at the start). Blocked entirely when
			// n is observed.
			if observed[n] {
				continue
			}
			if n == y {
				return false
			}
			for _, p := range g.Parents(n) {
				frontier = append(frontier, state{node: p, fromParent: false})
			}
			for _, c := range g.Children(n) {
				frontier = append(frontier, state{node: c, fromParent: true})
			}
		}
	}
	return true
}
