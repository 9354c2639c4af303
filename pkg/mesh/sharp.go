package mesh

import "github.com/Faultbox/meshnorm/pkg/math"

// splitData is the state shared by the sharp-edge pass and the fan/split
// passes. Different tasks always touch disjoint loop ranges, so the mutable
// slices need no locking.
type splitData struct {
	m *Mesh

	polyNormals []math.Vec3
	vertNormals []math.Vec3
	loopToPoly  []int
	e2l         edgeToLoops

	loopNormals []math.Vec3  // may be nil during pure angle tagging
	clnors      []NormalCode // may be nil
	spaces      *SpaceArray  // may be nil
}

// sharpEdgesTag populates the edge-to-loops adjacency and classifies every
// edge smooth or sharp in a single linear scan over all corners. An edge
// resolves sharp when its polygon is flat-shaded, it carries a persistent
// sharp flag, its two corners indicate flipped winding (both reference the
// same vertex), more than two corners touch it, or - with checkAngle - the
// adjacent face normals diverge beyond splitAngle.
//
// When tagSharp is set, edges whose sharpness was decided by the angle test
// alone also get their persistent Sharp flag written back.
func (d *splitData) sharpEdgesTag(checkAngle bool, splitAngle float32, tagSharp bool) {
	m := d.m

	var angleSharp []bool
	if tagSharp {
		angleSharp = make([]bool, len(m.Edges))
	}

	splitAngleCos := float32(-1)
	if checkAngle {
		splitAngleCos = math.Cos(splitAngle)
	}

	for pi := range m.Polys {
		p := &m.Polys[pi]
		for li := p.LoopStart; li < p.LoopStart+p.LoopTotal; li++ {
			vi := m.CornerVerts[li]
			ei := m.CornerEdges[li]
			e2l := &d.e2l[ei]

			// Pre-fill loop normals as if everything were smooth; sharp fans
			// overwrite these later.
			if d.loopNormals != nil {
				d.loopNormals[li] = d.vertNormals[vi]
			}

			switch {
			case e2l[0] == 0 && e2l[1] == 0:
				// First corner on this edge. A flat polygon disqualifies the
				// edge immediately, otherwise keep it pending.
				e2l[0] = li
				if p.Smooth {
					e2l[1] = loopUnset
				} else {
					e2l[1] = loopInvalid
				}

			case e2l[1] == loopUnset:
				isAngleSharp := checkAngle &&
					d.polyNormals[d.loopToPoly[e2l[0]]].Dot(d.polyNormals[pi]) < splitAngleCos

				if !p.Smooth || m.Edges[ei].Sharp || vi == m.CornerVerts[e2l[0]] || isAngleSharp {
					e2l[1] = loopInvalid
					// Only tag edges whose sharpness came from the angle
					// test, not ones already sharp for other reasons.
					if tagSharp && isAngleSharp {
						angleSharp[ei] = true
					}
				} else {
					e2l[1] = li
				}

			case !d.e2l.sharp(ei):
				// Third or later corner: non-manifold, always sharp.
				e2l[1] = loopInvalid
				if tagSharp {
					angleSharp[ei] = false
				}
			}
			// Already sharp: nothing more to do.
		}
	}

	if tagSharp {
		for ei, sharp := range angleSharp {
			if sharp {
				m.Edges[ei].Sharp = true
			}
		}
	}
}

// SharpEdgesFromAngle sets the persistent Sharp flag on every edge whose
// adjacent face normals diverge by more than splitAngle (radians). A
// splitAngle of pi or more disables the check entirely.
func SharpEdgesFromAngle(m *Mesh, splitAngle float32) {
	if splitAngle >= math.Pi {
		return
	}

	d := &splitData{
		m:           m,
		polyNormals: m.PolyNormals(),
		loopToPoly:  BuildLoopToPolyMap(m.Polys, m.NumLoops()),
		e2l:         newEdgeToLoops(len(m.Edges)),
	}
	d.sharpEdgesTag(true, splitAngle, true)
}
