package mesh

import (
	"testing"

	"github.com/Faultbox/meshnorm/pkg/math"
)

func classify(m *Mesh, checkAngle bool, splitAngle float32) *splitData {
	d := &splitData{
		m:           m,
		polyNormals: m.PolyNormals(),
		vertNormals: m.VertexNormals(),
		loopToPoly:  BuildLoopToPolyMap(m.Polys, m.NumLoops()),
		e2l:         newEdgeToLoops(len(m.Edges)),
	}
	d.sharpEdgesTag(checkAngle, splitAngle, false)
	return d
}

func TestSharpDisabledAngleNeverSharp(t *testing.T) {
	// Strongly bent quads, but split angle pi disables the check.
	m := twoQuads(true, 2)
	d := classify(m, true, math.Pi)
	if d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("shared edge sharp with angle check disabled")
	}
}

func TestSharpZeroAngleAlwaysSharp(t *testing.T) {
	// Any non-zero divergence exceeds a zero split angle.
	m := twoQuads(true, 0.1)
	d := classify(m, true, 0)
	if !d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("diverging shared edge not sharp with split angle 0")
	}
}

func TestSharpCoplanarZeroAngle(t *testing.T) {
	// Exactly coplanar faces: dot == 1 is never below cos(0).
	m := twoQuads(true, 0)
	d := classify(m, true, 0)
	if d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("coplanar shared edge sharp with split angle 0")
	}
}

func TestSharpFlatPoly(t *testing.T) {
	m := twoQuads(false, 0)
	d := classify(m, false, math.Pi)
	if !d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("edge of flat-shaded polygon not sharp")
	}
}

func TestSharpPersistentFlag(t *testing.T) {
	m := twoQuads(true, 0)
	m.Edges[m.CornerEdges[1]].Sharp = true
	d := classify(m, false, math.Pi)
	if !d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("flagged edge not classified sharp")
	}
}

func TestSharpInconsistentWinding(t *testing.T) {
	// The second quad reuses edge 1-2 in the first quad's direction, so the
	// two windings disagree. Both corners on the edge then reference the
	// same vertex, which resolves it sharp without any flag or angle check.
	m := &Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 2, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 0},
		},
		Polys: []Poly{
			{LoopStart: 0, LoopTotal: 4, Smooth: true},
			{LoopStart: 4, LoopTotal: 4, Smooth: true},
		},
		CornerVerts: []int{0, 1, 2, 3, 1, 2, 5, 4},
	}
	m.BuildEdges()

	d := classify(m, false, math.Pi)
	if !d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("edge shared by inconsistently wound polygons not sharp")
	}
}

func TestSharpNonManifold(t *testing.T) {
	// Three quads sharing the edge 1-2.
	m := twoQuads(true, 0)
	m.Positions = append(m.Positions, math.Vec3{X: 1, Y: 0, Z: 1}, math.Vec3{X: 1, Y: 1, Z: 1})
	m.Polys = append(m.Polys, Poly{LoopStart: 8, LoopTotal: 4, Smooth: true})
	m.CornerVerts = append(m.CornerVerts, 2, 1, 6, 7)
	m.BuildEdges()

	d := classify(m, false, math.Pi)
	if !d.e2l.sharp(m.CornerEdges[1]) {
		t.Errorf("non-manifold edge (3 users) not sharp")
	}
}

func TestSharpEdgesFromAngle(t *testing.T) {
	m := twoQuads(true, 2)
	shared := m.CornerEdges[1]

	SharpEdgesFromAngle(m, math.Pi/4)
	if !m.Edges[shared].Sharp {
		t.Errorf("strongly bent shared edge not tagged sharp")
	}

	// Boundary edges must stay untagged: their sharpness does not come from
	// the angle test.
	for ei := range m.Edges {
		if ei != shared && m.Edges[ei].Sharp {
			t.Errorf("edge %d tagged sharp, only the shared edge should be", ei)
		}
	}

	// Disabled threshold tags nothing.
	m2 := twoQuads(true, 2)
	SharpEdgesFromAngle(m2, math.Pi)
	for ei := range m2.Edges {
		if m2.Edges[ei].Sharp {
			t.Errorf("edge %d tagged with split angle pi (disabled)", ei)
		}
	}
}
