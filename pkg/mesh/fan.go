package mesh

// fanStep advances one step around the pivot vertex: it jumps to the corner
// on the far side of the current edge, then picks whichever neighbor corner
// within that polygon (successor or predecessor in winding order) also
// touches the pivot.
//
// loopCurr is the corner whose edge is being traversed; loopVert is the
// corner that actually references the pivot vertex (the two differ when the
// neighboring polygon winds the other way around the edge).
func (d *splitData) fanStep(e2lCurr [2]int, pivot, loopCurr, loopVert, polyCurr int) (nextLoopCurr, nextLoopVert, nextPolyCurr int) {
	vertCurr := d.m.CornerVerts[loopCurr]

	if e2lCurr[0] == loopCurr {
		loopCurr = e2lCurr[1]
	} else {
		loopCurr = e2lCurr[0]
	}
	polyCurr = d.loopToPoly[loopCurr]
	vertNext := d.m.CornerVerts[loopCurr]
	p := d.m.Polys[polyCurr]

	if (vertCurr == vertNext) == (vertCurr == pivot) {
		// The far corner is the pivot's own corner; step back to its
		// predecessor for the next edge.
		loopVert = loopCurr
		loopCurr--
		if loopCurr < p.LoopStart {
			loopCurr = p.LoopStart + p.LoopTotal - 1
		}
	} else {
		// The far corner precedes the pivot's corner; its successor is both
		// the pivot's corner and the next edge holder.
		loopCurr++
		if loopCurr >= p.LoopStart+p.LoopTotal {
			loopCurr = p.LoopStart
		}
		loopVert = loopCurr
	}
	return loopCurr, loopVert, polyCurr
}

// checkCyclicSmoothFan walks the whole smooth fan containing loopCurr and
// reports whether this corner is the canonical entry point of a
// never-yet-visited cyclic fan. Cyclic fans have no sharp-edge entry, so
// without this pre-pass they would either be skipped entirely or processed
// once per member.
//
// Every corner visited is marked in skipLoops, so each cyclic fan is walked
// from exactly one entry over the whole generator run.
func (d *splitData) checkCyclicSmoothFan(skipLoops []bool, loopCurr, loopPrev, polyIdx int) bool {
	pivot := d.m.CornerVerts[loopCurr]

	e2lFan := d.e2l[d.m.CornerEdges[loopPrev]]
	if d.e2l.sharp(d.m.CornerEdges[loopPrev]) {
		// Sharp incoming edge: a regular fan with a boundary, not cyclic.
		return false
	}

	fanLoopCurr := loopPrev
	fanLoopVert := loopCurr
	fanPolyCurr := polyIdx

	skipLoops[fanLoopVert] = true

	for {
		fanLoopCurr, fanLoopVert, fanPolyCurr = d.fanStep(e2lFan, pivot, fanLoopCurr, fanLoopVert, fanPolyCurr)

		edge := d.m.CornerEdges[fanLoopCurr]
		e2lFan = d.e2l[edge]
		if d.e2l.sharp(edge) {
			return false
		}
		if skipLoops[fanLoopVert] {
			// Back to our own start: an undiscovered cyclic fan, and this
			// corner is its entry. Any other visited corner means a previous
			// walk already owns the fan.
			return fanLoopVert == loopCurr
		}
		skipLoops[fanLoopVert] = true
	}
}
