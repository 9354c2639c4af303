package mesh

import (
	"testing"

	"github.com/Faultbox/meshnorm/pkg/math"
)

func vecClose(a, b math.Vec3, eps float32) bool {
	return a.Equals(b, eps)
}

func TestVertexNormalsFlatQuad(t *testing.T) {
	m := &Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		},
		Polys:       []Poly{{LoopStart: 0, LoopTotal: 4, Smooth: true}},
		CornerVerts: []int{0, 1, 2, 3},
	}
	m.BuildEdges()

	up := math.Vec3{X: 0, Y: 0, Z: 1}
	for vi, n := range m.VertexNormals() {
		if !vecClose(n, up, 1e-6) {
			t.Errorf("vertex %d normal = %v, want %v", vi, n, up)
		}
	}

	// Every boundary edge has a single user, so all four corners split into
	// singles carrying the face normal.
	loopNormals, spaces := m.LoopNormals(LoopNormalOptions{Split: true, SplitAngle: math.Pi, WantSpaces: true})
	for li, n := range loopNormals {
		if !vecClose(n, up, 1e-6) {
			t.Errorf("corner %d normal = %v, want %v", li, n, up)
		}
	}
	if spaces.NumSpaces != 4 {
		t.Errorf("NumSpaces = %d, want 4", spaces.NumSpaces)
	}
}

// cube is a unit cube with outward-facing quads, flat-shaded unless smooth.
func cube(smooth bool) *Mesh {
	m := &Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		CornerVerts: []int{
			0, 3, 2, 1, // bottom, -z
			4, 5, 6, 7, // top, +z
			0, 1, 5, 4, // front, -y
			1, 2, 6, 5, // right, +x
			2, 3, 7, 6, // back, +y
			3, 0, 4, 7, // left, -x
		},
	}
	for i := 0; i < 6; i++ {
		m.Polys = append(m.Polys, Poly{LoopStart: 4 * i, LoopTotal: 4, Smooth: smooth})
	}
	m.BuildEdges()
	return m
}

func TestCubeFacetedLoopNormals(t *testing.T) {
	m := cube(false)

	want := []math.Vec3{
		{X: 0, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: -1, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: -1, Y: 0, Z: 0},
	}
	polyNormals := m.PolyNormals()
	for pi, n := range polyNormals {
		if !vecClose(n, want[pi], 1e-6) {
			t.Fatalf("poly %d normal = %v, want %v", pi, n, want[pi])
		}
	}

	// Flat polygons force every edge sharp, so each corner is its own single
	// space and carries its face normal. No corner leaks a neighbor's normal.
	loopNormals, spaces := m.LoopNormals(LoopNormalOptions{Split: true, SplitAngle: math.Pi, WantSpaces: true})
	for li, n := range loopNormals {
		pi := li / 4
		if !vecClose(n, want[pi], 1e-6) {
			t.Errorf("corner %d normal = %v, want %v", li, n, want[pi])
		}
	}
	if spaces.NumSpaces != m.NumLoops() {
		t.Errorf("NumSpaces = %d, want %d", spaces.NumSpaces, m.NumLoops())
	}
}

func TestVertexNormalsWorkerCountInvariant(t *testing.T) {
	// Enough polygons around one pole vertex to spread across many blocks
	// and make the apex accumulation genuinely contended.
	m := cone(4096, true)
	defer SetWorkers(0)

	results := make(map[int][]math.Vec3)
	for _, workers := range []int{1, 4, 16} {
		SetWorkers(workers)
		polyNormals := make([]math.Vec3, len(m.Polys))
		vertNormals := make([]math.Vec3, len(m.Positions))
		CalcPolyAndVertexNormals(m.Positions, m.Polys, m.CornerVerts, polyNormals, vertNormals)
		results[workers] = vertNormals
	}

	// Accumulation order differs between runs, so only rounding noise may
	// differ, never structure.
	ref := results[1]
	for _, workers := range []int{4, 16} {
		got := results[workers]
		for vi := range ref {
			if !vecClose(got[vi], ref[vi], 1e-4) {
				t.Fatalf("workers=%d vertex %d normal = %v, want %v", workers, vi, got[vi], ref[vi])
			}
		}
	}

	apex := ref[0]
	if !vecClose(apex, math.Vec3{X: 0, Y: 0, Z: 1}, 1e-3) {
		t.Errorf("apex normal = %v, want ~(0,0,1)", apex)
	}
}

func TestNormalCacheRecompute(t *testing.T) {
	m := twoQuads(true, 0.5)

	m.VertexNormals()
	m.VertexNormals()
	m.PolyNormals()
	if got := m.NormalRecomputes(); got != 1 {
		t.Fatalf("recomputes after repeated reads = %d, want 1", got)
	}

	m.Positions[4] = math.Vec3{X: 2, Y: 0, Z: 2}
	m.Positions[5] = math.Vec3{X: 2, Y: 1, Z: 2}
	m.TagNormalsDirty()

	refreshed := m.PolyNormals()[1]
	if got := m.NormalRecomputes(); got != 2 {
		t.Fatalf("recomputes after invalidation = %d, want 2", got)
	}
	// Quad B now slopes along z = 2(x-1).
	want := math.Vec3{X: -2, Y: 0, Z: 1}.Normalize()
	if !vecClose(refreshed, want, 1e-6) {
		t.Errorf("poly 1 normal after vertex move = %v, want %v", refreshed, want)
	}
}

func TestVertexNormalFallbackToPosition(t *testing.T) {
	// Vertex 3 belongs to no polygon; its accumulated sum stays zero and the
	// normalized position takes over.
	m := &Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 2},
		},
		Polys:       []Poly{{LoopStart: 0, LoopTotal: 3, Smooth: true}},
		CornerVerts: []int{0, 1, 2},
	}
	m.BuildEdges()

	vertNormals := m.VertexNormals()
	if want := (math.Vec3{X: 0, Y: 0, Z: 1}); !vecClose(vertNormals[3], want, 1e-6) {
		t.Errorf("isolated vertex normal = %v, want %v", vertNormals[3], want)
	}
}

func TestLoopNormalsNoSplit(t *testing.T) {
	flat := twoQuads(false, 1)
	loopNormals, spaces := flat.LoopNormals(LoopNormalOptions{Split: false})
	if spaces != nil {
		t.Fatalf("no-split request returned spaces")
	}
	polyNormals := flat.PolyNormals()
	for li, n := range loopNormals {
		want := polyNormals[li/4]
		if !vecClose(n, want, 1e-6) {
			t.Errorf("flat corner %d normal = %v, want %v", li, n, want)
		}
	}

	smooth := twoQuads(true, 1)
	loopNormals, _ = smooth.LoopNormals(LoopNormalOptions{Split: false})
	vertNormals := smooth.VertexNormals()
	for li, n := range loopNormals {
		want := vertNormals[smooth.CornerVerts[li]]
		if !vecClose(n, want, 1e-6) {
			t.Errorf("smooth corner %d normal = %v, want %v", li, n, want)
		}
	}
}

func TestLoopNormalsToVertex(t *testing.T) {
	cornerVerts := []int{0, 1, 1, 2}
	loopNormals := []math.Vec3{
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}

	got := LoopNormalsToVertex(cornerVerts, loopNormals, 4)
	if want := (math.Vec3{X: 0, Y: 0, Z: 1}); !vecClose(got[0], want, 1e-6) {
		t.Errorf("vertex 0 = %v, want %v", got[0], want)
	}
	if want := (math.Vec3{X: 0.5, Y: 0.5, Z: 0}); !vecClose(got[1], want, 1e-6) {
		t.Errorf("vertex 1 = %v, want %v", got[1], want)
	}
	if got[3] != (math.Vec3{}) {
		t.Errorf("unreferenced vertex = %v, want zero", got[3])
	}
}
