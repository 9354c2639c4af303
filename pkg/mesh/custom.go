package mesh

import "github.com/Faultbox/meshnorm/pkg/math"

// SetCustomLoopNormals encodes one target normal per corner into the mesh's
// persistent NormalCode array. Edges are tagged sharp wherever the natural
// smooth fans would blend target normals that disagree, so that recomputed
// fans reproduce the targets. Zero target vectors mean "keep the computed
// normal" and are replaced in place.
func (m *Mesh) SetCustomLoopNormals(custom []math.Vec3) {
	m.setCustomNormals(custom, false)
}

// SetCustomNormalsFromVerts is SetCustomLoopNormals with one target normal
// per vertex, applied to all of the vertex's corners. No extra sharp edges
// are needed in this mode: corners of one vertex share one target.
func (m *Mesh) SetCustomNormalsFromVerts(custom []math.Vec3) {
	m.setCustomNormals(custom, true)
}

// setCustomNormals is the two-pass reconciliation driver. The correct
// sharp-edge partition is only knowable after comparing the targets against
// the geometry-driven fans, hence: compute fans, split where targets
// disagree, recompute fans, then encode.
func (m *Mesh) setCustomNormals(custom []math.Vec3, useVertices bool) {
	numLoops := m.NumLoops()

	if len(m.CustomNormals) != numLoops {
		m.CustomNormals = make([]NormalCode, numLoops)
	} else {
		for i := range m.CustomNormals {
			m.CustomNormals[i] = NormalCode{}
		}
	}

	// Pass one: fans from geometry alone, angle check off.
	loopNormals, spaces := m.LoopNormals(LoopNormalOptions{
		Split:      true,
		SplitAngle: math.Pi,
		WantSpaces: true,
	})

	// Zero targets fall back to the default computed normal.
	if useVertices {
		vertNormals := m.VertexNormals()
		for vi := range custom {
			if custom[vi].IsZero() {
				custom[vi] = vertNormals[vi]
			}
		}
	} else {
		for li := range custom {
			if custom[li].IsZero() {
				custom[li] = loopNormals[li]
			}
		}
	}

	if !useVertices {
		m.splitFansForCustom(spaces, custom)

		// Pass two: fans now match the target partition.
		_, spaces = m.LoopNormals(LoopNormalOptions{
			Split:      true,
			SplitAngle: math.Pi,
			WantSpaces: true,
		})
	}

	m.encodeCustomNormals(spaces, custom, useVertices)
}

// splitFansForCustom walks every multi-corner fan in member order and tags
// the edge between two consecutive members sharp whenever their target
// normals diverge beyond the parallel threshold, including across the
// wrap-around from last back to first member. Edges are only ever sharpened
// here, never smoothed.
func (m *Mesh) splitFansForCustom(spaces *SpaceArray, custom []math.Vec3) {
	loopToPoly := BuildLoopToPolyMap(m.Polys, m.NumLoops())
	done := make([]bool, m.NumLoops())

	// Tags the boundary before member li, given the previously accepted
	// member. Of the two candidate edges at li (its own edge and its
	// predecessor's within the polygon), the one shared with the previous
	// member's corner is the fan-internal boundary to split.
	tagEdge := func(cornerPrev, li int) {
		p := m.Polys[loopToPoly[li]]
		predecessor := li - 1
		if li == p.LoopStart {
			predecessor = p.LoopStart + p.LoopTotal - 1
		}
		edge := m.CornerEdges[li]
		edgeP := m.CornerEdges[predecessor]
		prevEdge := m.CornerEdges[cornerPrev]
		if prevEdge == edgeP {
			m.Edges[prevEdge].Sharp = true
		} else {
			m.Edges[edge].Sharp = true
		}
	}

	for i := 0; i < m.NumLoops(); i++ {
		space := spaces.LoopSpaces[i]
		if space == nil {
			// Rare ill-formed geometry can leave a corner without a space;
			// nothing to compare then.
			done[i] = true
			continue
		}
		if done[i] || space.Single {
			done[i] = true
			continue
		}

		// Compare each member against a running reference instead of its
		// direct neighbor, so small steps cannot drift across the threshold
		// unnoticed.
		cornerPrev := -1
		var orgNor math.Vec3
		haveOrg := false

		for _, li := range space.Loops {
			nor := custom[li]
			if !haveOrg {
				orgNor = nor
				haveOrg = true
			} else if orgNor.Dot(nor) < trigoThreshold {
				tagEdge(cornerPrev, li)
				orgNor = nor
			}
			cornerPrev = li
			done[li] = true
		}

		// Wrap-around: the boundary between the last and first member.
		if haveOrg && len(space.Loops) > 0 {
			li := space.Loops[0]
			if orgNor.Dot(custom[li]) < trigoThreshold {
				tagEdge(cornerPrev, li)
			}
		}
	}
}

// encodeCustomNormals writes the final per-corner codes. Corners sharing one
// space get their targets averaged first and the resulting code broadcast to
// all of them, so tiny input differences cannot blow up into diverging 2D
// factors.
func (m *Mesh) encodeCustomNormals(spaces *SpaceArray, custom []math.Vec3, useVertices bool) {
	done := make([]bool, m.NumLoops())

	for i := 0; i < m.NumLoops(); i++ {
		space := spaces.LoopSpaces[i]
		if space == nil || done[i] {
			continue
		}
		done[i] = true

		if space.Single {
			nidx := i
			if useVertices {
				nidx = m.CornerVerts[i]
			}
			m.CustomNormals[i] = space.EncodeNormal(custom[nidx])
			continue
		}

		var avg math.Vec3
		for _, li := range space.Loops {
			nidx := li
			if useVertices {
				nidx = m.CornerVerts[li]
			}
			avg = avg.Add(custom[nidx])
			done[li] = true
		}
		avg = avg.Scale(1 / float32(len(space.Loops)))

		code := space.EncodeNormal(avg)
		for _, li := range space.Loops {
			m.CustomNormals[li] = code
		}
	}
}
