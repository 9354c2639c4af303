package mesh

import "github.com/Faultbox/meshnorm/pkg/math"

// CalcPolyNormals fills polyNormals with the unit normal of every polygon,
// in parallel across polygon blocks.
func CalcPolyNormals(positions []math.Vec3, polys []Poly, cornerVerts []int, polyNormals []math.Vec3) {
	parallelRange(len(polys), func(start, end int) {
		for pi := start; pi < end; pi++ {
			polyNormals[pi] = FaceNormal(positions, polyVerts(polys, cornerVerts, pi))
		}
	})
}

// CalcPolyAndVertexNormals fills polyNormals and vertNormals in one pass.
// Vertex normals are the normalized sum of adjacent polygon normals weighted
// by the corner angle of each polygon at that vertex. Polygons accumulate
// into the shared vertex array concurrently, so each contribution lands via
// an atomic add; no updates are lost regardless of interleaving.
//
// A vertex whose accumulated sum degenerates to zero falls back to the
// normalized vertex position, matching the usual convention for isolated or
// fully-cancelling geometry.
func CalcPolyAndVertexNormals(positions []math.Vec3, polys []Poly, cornerVerts []int, polyNormals, vertNormals []math.Vec3) {
	for i := range vertNormals {
		vertNormals[i] = math.Vec3{}
	}

	parallelRange(len(polys), func(start, end int) {
		for pi := start; pi < end; pi++ {
			verts := polyVerts(polys, cornerVerts, pi)
			iEnd := len(verts) - 1

			// Newell normal, also feeding the edge vectors below.
			var pnor math.Vec3
			{
				var sum math.Vec3
				prev := positions[verts[iEnd]]
				for _, vi := range verts {
					curr := positions[vi]
					sum = sum.Add(math.NewellTerm(prev, curr))
					prev = curr
				}
				pnor = sum.NormalizeOrFallback(zUp)
				polyNormals[pi] = pnor
			}

			// Accumulate the angle-weighted polygon normal into each corner's
			// vertex. Edge vectors are reused between iterations so each one
			// is normalized exactly once.
			vCurr := positions[verts[iEnd]]
			edvecPrev := positions[verts[iEnd-1]].Sub(vCurr).Normalize()
			edvecEnd := edvecPrev

			iCurr := iEnd
			for iNext := 0; iNext <= iEnd; iNext++ {
				vNext := positions[verts[iNext]]

				var edvecNext math.Vec3
				if iNext != iEnd {
					edvecNext = vCurr.Sub(vNext).Normalize()
				} else {
					edvecNext = edvecEnd
				}

				fac := math.Acos(-edvecPrev.Dot(edvecNext))
				addVec3Atomic(&vertNormals[verts[iCurr]], pnor.Scale(fac))

				vCurr = vNext
				edvecPrev = edvecNext
				iCurr = iNext
			}
		}
	})

	parallelRange(len(positions), func(start, end int) {
		for vi := start; vi < end; vi++ {
			vertNormals[vi] = vertNormals[vi].NormalizeOrFallback(positions[vi].Normalize())
		}
	})
}

// LoopNormalsToVertex averages per-corner normals back into a per-vertex
// array. Vertices referenced by no corner keep a zero normal.
func LoopNormalsToVertex(cornerVerts []int, loopNormals []math.Vec3, numVerts int) []math.Vec3 {
	vertNormals := make([]math.Vec3, numVerts)
	counts := make([]int, numVerts)

	for li, vi := range cornerVerts {
		vertNormals[vi] = vertNormals[vi].Add(loopNormals[li])
		counts[vi]++
	}
	for vi := range vertNormals {
		if counts[vi] > 0 {
			vertNormals[vi] = vertNormals[vi].Scale(1 / float32(counts[vi]))
		}
	}
	return vertNormals
}
