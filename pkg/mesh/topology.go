package mesh

// BuildLoopToPolyMap returns, for every corner index, the index of its
// owning polygon.
func BuildLoopToPolyMap(polys []Poly, numLoops int) []int {
	loopToPoly := make([]int, numLoops)
	for pi, p := range polys {
		for li := p.LoopStart; li < p.LoopStart+p.LoopTotal; li++ {
			loopToPoly[li] = pi
		}
	}
	return loopToPoly
}

// BuildEdges derives the edge table and the per-corner edge indices from
// the polygon and corner-vertex tables, deduplicating edges shared between
// polygons. Existing edges (and their sharp flags) are discarded.
func (m *Mesh) BuildEdges() {
	known := make(map[uint64]int)
	m.Edges = m.Edges[:0]
	if cap(m.CornerEdges) < len(m.CornerVerts) {
		m.CornerEdges = make([]int, len(m.CornerVerts))
	} else {
		m.CornerEdges = m.CornerEdges[:len(m.CornerVerts)]
	}

	for _, p := range m.Polys {
		last := p.LoopStart + p.LoopTotal - 1
		for li := p.LoopStart; li <= last; li++ {
			v1 := m.CornerVerts[li]
			v2 := m.CornerVerts[p.LoopStart]
			if li < last {
				v2 = m.CornerVerts[li+1]
			}

			a, b := uint64(v1), uint64(v2)
			if b < a {
				a, b = b, a
			}
			key := a | b<<32

			ei, ok := known[key]
			if !ok {
				ei = len(m.Edges)
				m.Edges = append(m.Edges, Edge{V1: v1, V2: v2})
				known[key] = ei
			}
			m.CornerEdges[li] = ei
		}
	}
}

// Sentinels for the second slot of an edge-to-loops entry. A fresh entry is
// all zeros; once the first corner touches the edge, the second slot holds
// either loopUnset (smooth so far), loopInvalid (proven sharp) or the second
// corner's index (2-manifold smooth edge). Loose edges stay all-zero and
// never join a fan.
const (
	loopUnset   = -1 << 31
	loopInvalid = -1
)

// edgeToLoops records, per edge, the first two corner indices referencing it,
// using the sentinel scheme above.
type edgeToLoops [][2]int

func newEdgeToLoops(numEdges int) edgeToLoops {
	return make(edgeToLoops, numEdges)
}

// sharp reports whether the edge is resolved sharp (or still unset, which
// walkers must treat as a fan boundary too).
func (e2l edgeToLoops) sharp(edge int) bool {
	second := e2l[edge][1]
	return second == loopUnset || second == loopInvalid
}

// otherLoop returns the corner on the far side of a smooth 2-manifold edge.
func (e2l edgeToLoops) otherLoop(edge, loop int) int {
	if e2l[edge][0] == loop {
		return e2l[edge][1]
	}
	return e2l[edge][0]
}

// otherVert returns the edge endpoint that is not v.
func (e Edge) otherVert(v int) int {
	if e.V1 == v {
		return e.V2
	}
	return e.V1
}
