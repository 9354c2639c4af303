package mesh

import "github.com/Faultbox/meshnorm/pkg/math"

// zUp is the fallback normal for degenerate (zero-area) faces.
var zUp = math.Vec3{X: 0, Y: 0, Z: 1}

// normalTri returns the unit normal of a triangle with CCW winding.
func normalTri(v1, v2, v3 math.Vec3) math.Vec3 {
	return v1.Sub(v2).Cross(v2.Sub(v3)).NormalizeOrFallback(zUp)
}

// normalQuad returns the unit normal of a quad from the cross product of its
// diagonals, which is symmetric in all four corners and tolerates mild
// non-planarity.
func normalQuad(v1, v2, v3, v4 math.Vec3) math.Vec3 {
	return v1.Sub(v3).Cross(v2.Sub(v4)).NormalizeOrFallback(zUp)
}

// normalNgon returns the unit normal of an arbitrary polygon using Newell's
// method over the vertex cycle.
func normalNgon(positions []math.Vec3, verts []int) math.Vec3 {
	var sum math.Vec3
	prev := positions[verts[len(verts)-1]]
	for _, vi := range verts {
		curr := positions[vi]
		sum = sum.Add(math.NewellTerm(prev, curr))
		prev = curr
	}
	return sum.NormalizeOrFallback(zUp)
}

// FaceNormal computes the unit normal of the polygon whose corner vertex
// indices are given in winding order. Degenerate faces yield (0,0,1).
func FaceNormal(positions []math.Vec3, verts []int) math.Vec3 {
	switch len(verts) {
	case 3:
		return normalTri(positions[verts[0]], positions[verts[1]], positions[verts[2]])
	case 4:
		return normalQuad(positions[verts[0]], positions[verts[1]], positions[verts[2]], positions[verts[3]])
	default:
		if len(verts) > 4 {
			return normalNgon(positions, verts)
		}
		return zUp
	}
}

// polyVerts returns the corner-vertex slice of polygon pi.
func polyVerts(polys []Poly, cornerVerts []int, pi int) []int {
	p := polys[pi]
	return cornerVerts[p.LoopStart : p.LoopStart+p.LoopTotal]
}
