package discovery

import (
	"gocausal/domain/graph"
)

// unshieldedTriples lists ordered triples (x, y, z) of distinct nodes where
// x-y and y-z are edges but x and z are not adjacent. Both orderings of every
// such triple appear, in node-index order.
func unshieldedTriples(g *graph.Graph) []triple {
	nodes := g.Nodes()
	var out []triple
	for _, x := range nodes {
		for _, y := range nodes {
			if y == x || !g.IsAdjacent(x, y) {
				continue
			}
			for _, z := range nodes {
				if z == x || z == y {
					continue
				}
				if g.IsAdjacent(y, z) && !g.IsAdjacent(x, z) {
					out = append(out, triple{x, y, z})
				}
			}
		}
	}
	return out
}

// triangles lists ordered triples (y, x, z) where all three pairs are
// adjacent. Every ordering of a triangle appears.
func triangles(g *graph.Graph) []triple {
	nodes := g.Nodes()
	var out []triple
	for _, y := range nodes {
		for _, x := range nodes {
			if x == y || !g.IsAdjacent(y, x) {
				continue
			}
			for _, z := range nodes {
				if z == y || z == x {
					continue
				}
				if g.IsAdjacent(x, z) && g.IsAdjacent(y, z) {
					out = append(out, triple{y, x, z})
				}
			}
		}
	}
	return out
}

// kites lists ordered quads (y, x, w, z) where y is adjacent to x, w and z,
// both x and w are adjacent to z, and x, w are not adjacent to each other.
// Both (y, x, w, z) and (y, w, x, z) appear for every kite.
func kites(g *graph.Graph) []quad {
	nodes := g.Nodes()
	var out []quad
	for _, y := range nodes {
		for _, x := range nodes {
			if x == y || !g.IsAdjacent(y, x) {
				continue
			}
			for _, w := range nodes {
				if w == y || w == x {
					continue
				}
				if !g.IsAdjacent(y, w) || g.IsAdjacent(x, w) {
					continue
				}
				for _, z := range nodes {
					if z == y || z == x || z == w {
						continue
					}
					if g.IsAdjacent(y, z) && g.IsAdjacent(x, z) && g.IsAdjacent(w, z) {
						out = append(out, quad{y, x, w, z})
					}
				}
			}
		}
	}
	return out
}

// propagate applies three orientation rules to g2 until none fires, keeping a
// record of every application. A rule is skipped when its target pair is
// marked ambiguous and still bidirected in g1, so unresolved conflicts are
// not treated as settled orientations. Arrowheads are set without regard to
// the target edge's current mark, so contradictory derivations surface as
// bidirected edges for the next stage to retract.
func (st *search) propagate(g1, g2 *graph.Graph) error {
	tri := triangles(g1)
	kite := kites(g1)

	for again := true; again; {
		again = false

		// Away from collider: x -> y and y - z with x, z non-adjacent.
		for _, t := range st.ut {
			x, y, z := t.A, t.B, t.C
			if !g2.IsDirected(x, y) {
				continue
			}
			if st.conflicted(g1, y, z) {
				continue
			}
			if st.hasR0(t) || st.hasR1(t) {
				continue
			}
			if err := arrow(g2, y, z); err != nil {
				return err
			}
			st.addR1(t)
			again = true
		}

		// Acyclicity: y -> x -> z with y - z closing the triangle.
		for _, t := range tri {
			y, x, z := t.A, t.B, t.C
			if !g2.IsDirected(y, x) || !g2.IsDirected(x, z) {
				continue
			}
			if st.conflicted(g1, y, z) {
				continue
			}
			if st.hasR2(t) {
				continue
			}
			if err := arrow(g2, y, z); err != nil {
				return err
			}
			st.addR2(t)
			again = true
		}

		// Kite: y - x and y - w undirected, x -> z and w -> z directed.
		for _, k := range kite {
			y, x, w, z := k.A, k.B, k.C, k.D
			if !g2.IsUndirected(y, x) || !g2.IsUndirected(y, w) {
				continue
			}
			if !g2.IsDirected(x, z) || !g2.IsDirected(w, z) {
				continue
			}
			if st.conflicted(g1, y, z) {
				continue
			}
			if st.hasR3(k) || st.hasR3(quad{y, w, x, z}) {
				continue
			}
			if err := arrow(g2, y, z); err != nil {
				return err
			}
			st.addR3(k)
			st.addR3(quad{y, w, x, z})
			again = true
		}
	}

	// The same orientation derived through a triangle outranks a kite
	// derivation; drop the kite records it subsumes.
	kept := st.r3[:0]
	for _, k := range st.r3 {
		if st.hasR2(triple{k.A, k.B, k.D}) || st.hasR2(triple{k.A, k.C, k.D}) {
			delete(st.r3seen, k)
			continue
		}
		kept = append(kept, k)
	}
	st.r3 = kept
	return nil
}

// conflicted reports whether the pair was marked ambiguous during retraction
// and remains bidirected in the pre-retraction graph.
func (st *search) conflicted(g1 *graph.Graph, y, z *graph.Node) bool {
	return st.amb.has(Pair{y, z}) && g1.IsBidirected(y, z)
}
