package formats

import (
	"testing"

	"github.com/Faultbox/meshnorm/pkg/math"
	"github.com/Faultbox/meshnorm/pkg/mesh"
)

// flatCube is a faceted unit cube: every corner keeps its face normal.
func flatCube() *mesh.Mesh {
	m := &mesh.Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		CornerVerts: []int{
			0, 3, 2, 1, 4, 5, 6, 7, 0, 1, 5, 4,
			1, 2, 6, 5, 2, 3, 7, 6, 3, 0, 4, 7,
		},
	}
	for i := 0; i < 6; i++ {
		m.Polys = append(m.Polys, mesh.Poly{LoopStart: 4 * i, LoopTotal: 4})
	}
	m.BuildEdges()
	return m
}

func TestGLTFRoundTrip(t *testing.T) {
	m := flatCube()
	loopNormals, _ := m.LoopNormals(mesh.LoopNormalOptions{Split: true, SplitAngle: math.Pi})

	doc, err := ToGLTF(m, loopNormals)
	if err != nil {
		t.Fatalf("ToGLTF() error = %v", err)
	}

	back, err := FromGLTF(doc)
	if err != nil {
		t.Fatalf("FromGLTF() error = %v", err)
	}

	// Each cube vertex touches three faces with three distinct normals, so
	// welding splits it three ways.
	if got := back.Mesh.NumVerts(); got != 24 {
		t.Errorf("NumVerts() = %d, want 24", got)
	}
	if got := len(back.Mesh.Polys); got != 12 {
		t.Errorf("len(Polys) = %d, want 12", got)
	}
	if back.LoopNormals == nil {
		t.Fatal("LoopNormals = nil after round trip")
	}

	// Triangulated corners must still carry their source face's normal, and
	// corner positions must match what the fan triangulation emitted.
	for pi, p := range back.Mesh.Polys {
		srcNormal := loopNormals[(pi/2)*4]
		for li := p.LoopStart; li < p.LoopStart+p.LoopTotal; li++ {
			if got := back.LoopNormals[li]; !got.Equals(srcNormal, 1e-6) {
				t.Fatalf("triangle %d corner %d normal = %v, want %v", pi, li, got, srcNormal)
			}
		}
	}
}

func TestGLTFNoNormals(t *testing.T) {
	m := flatCube()

	doc, err := ToGLTF(m, nil)
	if err != nil {
		t.Fatalf("ToGLTF() error = %v", err)
	}
	if _, ok := doc.Meshes[0].Primitives[0].Attributes["NORMAL"]; ok {
		t.Error("NORMAL attribute present without loop normals")
	}

	back, err := FromGLTF(doc)
	if err != nil {
		t.Fatalf("FromGLTF() error = %v", err)
	}
	if back.LoopNormals != nil {
		t.Error("LoopNormals != nil for a document without normals")
	}
	// Without normals to split on, all eight cube vertices weld back.
	if got := back.Mesh.NumVerts(); got != 8 {
		t.Errorf("NumVerts() = %d, want 8", got)
	}
}

func TestGLTFEmptyMesh(t *testing.T) {
	if _, err := ToGLTF(&mesh.Mesh{}, nil); err != ErrGLTFNoMesh {
		t.Errorf("ToGLTF(empty) error = %v, want ErrGLTFNoMesh", err)
	}
}
