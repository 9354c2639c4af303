package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshnorm/pkg/math"
	"github.com/Faultbox/meshnorm/pkg/mesh"
)

// glTF format errors.
var (
	ErrGLTFNoMesh       = errors.New("gltf: document contains no mesh")
	ErrGLTFNotTriangles = errors.New("gltf: only triangle primitives are supported")
	ErrGLTFIndexRange   = errors.New("gltf: index out of range")
)

// GLTF is a mesh decoded from a glTF document, all primitives merged.
// LoopNormals is nil when no primitive carried a NORMAL attribute.
type GLTF struct {
	Mesh        *mesh.Mesh
	LoopNormals []math.Vec3
}

// FromGLTF flattens every triangle primitive of every mesh in the document
// into one Mesh. glTF normals are per vertex, so each corner takes its
// vertex's normal.
func FromGLTF(doc *gltf.Document) (*GLTF, error) {
	m := &mesh.Mesh{}
	var loopNormals []math.Vec3
	haveNormals := false

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				return nil, ErrGLTFNotTriangles
			}

			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				return nil, fmt.Errorf("gltf: primitive without POSITION attribute")
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("gltf: reading positions: %w", err)
			}

			var normals [][3]float32
			if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
				normals, err = modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
				if err != nil {
					return nil, fmt.Errorf("gltf: reading normals: %w", err)
				}
				haveNormals = true
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("gltf: reading indices: %w", err)
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}
			if len(indices)%3 != 0 {
				return nil, ErrGLTFNotTriangles
			}

			base := m.NumVerts()
			for _, p := range positions {
				m.Positions = append(m.Positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
			}

			for i := 0; i < len(indices); i += 3 {
				m.Polys = append(m.Polys, mesh.Poly{
					LoopStart: m.NumLoops(), LoopTotal: 3, Smooth: true,
				})
				for k := 0; k < 3; k++ {
					vi := int(indices[i+k])
					if vi >= len(positions) {
						return nil, ErrGLTFIndexRange
					}
					m.CornerVerts = append(m.CornerVerts, base+vi)
					if normals != nil {
						n := normals[vi]
						loopNormals = append(loopNormals, math.Vec3{X: n[0], Y: n[1], Z: n[2]})
					} else {
						loopNormals = append(loopNormals, math.Vec3{})
					}
				}
			}
		}
	}

	if len(m.Polys) == 0 {
		return nil, ErrGLTFNoMesh
	}
	m.BuildEdges()

	g := &GLTF{Mesh: m}
	if haveNormals {
		g.LoopNormals = loopNormals
	}
	return g, nil
}

// OpenGLTF reads a .gltf or .glb file from disk.
func OpenGLTF(path string) (*GLTF, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF file: %w", err)
	}
	return FromGLTF(doc)
}

// ToGLTF builds a single-mesh glTF document. Polygons are fan-triangulated,
// and the per-corner loopNormals become the vertex NORMAL attribute; corners
// of one vertex with different normals split into separate glTF vertices, so
// hard edges and custom normals are preserved exactly.
func ToGLTF(m *mesh.Mesh, loopNormals []math.Vec3) (*gltf.Document, error) {
	if len(m.Polys) == 0 {
		return nil, ErrGLTFNoMesh
	}

	type weldKey struct {
		vert   int
		normal math.Vec3
	}
	weld := make(map[weldKey]uint32, m.NumVerts())

	var positions, normals [][3]float32
	var indices []uint32

	cornerIndex := func(li int) uint32 {
		var n math.Vec3
		if loopNormals != nil {
			n = loopNormals[li]
		}
		key := weldKey{vert: m.CornerVerts[li], normal: n}
		if idx, ok := weld[key]; ok {
			return idx
		}
		idx := uint32(len(positions))
		p := m.Positions[key.vert]
		positions = append(positions, [3]float32{p.X, p.Y, p.Z})
		normals = append(normals, [3]float32{n.X, n.Y, n.Z})
		weld[key] = idx
		return idx
	}

	for _, p := range m.Polys {
		for li := p.LoopStart + 2; li < p.LoopStart+p.LoopTotal; li++ {
			indices = append(indices,
				cornerIndex(p.LoopStart),
				cornerIndex(li-1),
				cornerIndex(li))
		}
	}

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, positions),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
	if loopNormals != nil {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}

	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// SaveGLTF writes the mesh to disk, binary (.glb) or JSON (.gltf) by
// extension.
func SaveGLTF(path string, m *mesh.Mesh, loopNormals []math.Vec3) error {
	doc, err := ToGLTF(m, loopNormals)
	if err != nil {
		return err
	}
	if strings.HasSuffix(strings.ToLower(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("writing glTF file: %w", err)
	}
	return nil
}
