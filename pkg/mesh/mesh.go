// Package mesh computes per-face, per-vertex and per-corner normals for
// polygonal meshes, detects smooth fans around vertices, and encodes custom
// (artist-authored) normals into a compact per-corner two-component form.
//
// The topology model follows the usual corner ("loop") representation: each
// polygon owns a contiguous run of corners, and each corner references one
// vertex plus the edge leaving that vertex in winding order.
package mesh

import (
	"sync"

	"github.com/Faultbox/meshnorm/pkg/math"
)

// Poly describes one polygon as a contiguous run of corners.
type Poly struct {
	LoopStart int
	LoopTotal int
	// Smooth is the shading flag; flat polygons force all their edges sharp.
	Smooth bool
}

// Edge is an unordered pair of vertex indices with a persistent sharp flag.
type Edge struct {
	V1, V2 int
	Sharp  bool
}

// NormalCode is a custom normal encoded in its corner's normal space as two
// signed 16-bit fixed-point angle fractions. The zero value means "no
// override, use the computed normal".
type NormalCode [2]int16

// Mesh holds mesh topology plus lazily computed normal caches.
//
// Topology slices are treated as stable for the duration of any computation
// call; callers that edit vertices or topology must call TagNormalsDirty
// before the next normals read.
type Mesh struct {
	Positions   []math.Vec3
	Polys       []Poly
	CornerVerts []int
	CornerEdges []int
	Edges       []Edge

	// CustomNormals is the persistent per-corner code array, or nil when the
	// mesh carries no custom normals. Populated by SetCustomLoopNormals /
	// SetCustomNormalsFromVerts and consumed by LoopNormals.
	CustomNormals []NormalCode

	normalsMu        sync.Mutex
	vertNormals      []math.Vec3
	polyNormals      []math.Vec3
	vertNormalsValid bool
	polyNormalsValid bool
	recomputes       int
}

// NumVerts returns the vertex count.
func (m *Mesh) NumVerts() int { return len(m.Positions) }

// NumLoops returns the corner count.
func (m *Mesh) NumLoops() int { return len(m.CornerVerts) }

// TagNormalsDirty invalidates both cached normal arrays. Must be called
// after any vertex move or topology edit.
func (m *Mesh) TagNormalsDirty() {
	m.normalsMu.Lock()
	m.vertNormalsValid = false
	m.polyNormalsValid = false
	m.normalsMu.Unlock()
}

// NormalRecomputes returns how many cache recomputations have run. Intended
// for tests verifying the lazy cache does not duplicate work.
func (m *Mesh) NormalRecomputes() int {
	m.normalsMu.Lock()
	defer m.normalsMu.Unlock()
	return m.recomputes
}

// VertexNormals returns the cached per-vertex normals, recomputing them
// (together with polygon normals) when dirty. Safe for concurrent callers:
// the check-compute-store sequence runs under the mesh's normals mutex, so
// racing readers never duplicate the computation.
func (m *Mesh) VertexNormals() []math.Vec3 {
	m.normalsMu.Lock()
	defer m.normalsMu.Unlock()

	if m.vertNormalsValid {
		return m.vertNormals
	}

	if cap(m.vertNormals) < len(m.Positions) {
		m.vertNormals = make([]math.Vec3, len(m.Positions))
	} else {
		m.vertNormals = m.vertNormals[:len(m.Positions)]
	}
	if cap(m.polyNormals) < len(m.Polys) {
		m.polyNormals = make([]math.Vec3, len(m.Polys))
	} else {
		m.polyNormals = m.polyNormals[:len(m.Polys)]
	}

	CalcPolyAndVertexNormals(m.Positions, m.Polys, m.CornerVerts, m.polyNormals, m.vertNormals)
	m.vertNormalsValid = true
	m.polyNormalsValid = true
	m.recomputes++
	return m.vertNormals
}

// PolyNormals returns the cached per-polygon normals, recomputing when dirty.
func (m *Mesh) PolyNormals() []math.Vec3 {
	m.normalsMu.Lock()
	defer m.normalsMu.Unlock()

	if m.polyNormalsValid {
		return m.polyNormals
	}

	if cap(m.polyNormals) < len(m.Polys) {
		m.polyNormals = make([]math.Vec3, len(m.Polys))
	} else {
		m.polyNormals = m.polyNormals[:len(m.Polys)]
	}

	CalcPolyNormals(m.Positions, m.Polys, m.CornerVerts, m.polyNormals)
	m.polyNormalsValid = true
	m.recomputes++
	return m.polyNormals
}
