package mesh

import (
	"sync"

	"github.com/Faultbox/meshnorm/pkg/math"
)

// Fan tasks are dispatched to workers in blocks of this many; below the
// sequential threshold the pool is bypassed entirely.
const (
	taskBlockSize       = 1024
	sequentialThreshold = taskBlockSize * 8
)

// splitTask is one unit of fan work: either a trivial single corner (both
// surrounding edges sharp) or the entry corner of a smooth fan.
type splitTask struct {
	space    *NormalSpace // nil when spaces are not requested
	loopCurr int
	loopPrev int
	polyIdx  int
	single   bool
}

// LoopNormalOptions controls LoopNormals.
type LoopNormalOptions struct {
	// Split splits normals at sharp edges. When false, corner normals are
	// simply filled from vertex normals (smooth polygons) or polygon normals
	// (flat polygons).
	Split bool
	// SplitAngle is the face-angle threshold in radians beyond which an edge
	// becomes sharp; Pi or more disables the angle check.
	SplitAngle float32
	// Custom supplies per-corner normal codes to decode. Its presence
	// disables the angle check entirely.
	Custom []NormalCode
	// WantSpaces requests the per-fan normal spaces alongside the normals.
	WantSpaces bool
}

// LoopNormals computes one normal per corner. With Split set, corners are
// grouped into smooth fans bounded by sharp edges and every fan blends its
// polygons' normals weighted by corner angle; flat and sharp topology keeps
// faceted normals. Custom codes, when given, are decoded through each fan's
// normal space.
func (m *Mesh) LoopNormals(opts LoopNormalOptions) ([]math.Vec3, *SpaceArray) {
	loopNormals := make([]math.Vec3, m.NumLoops())

	vertNormals := m.VertexNormals()
	polyNormals := m.PolyNormals()

	if !opts.Split {
		// No splitting: flat polygons take their face normal, smooth ones
		// the blended vertex normal.
		for pi := range m.Polys {
			p := &m.Polys[pi]
			for li := p.LoopStart; li < p.LoopStart+p.LoopTotal; li++ {
				if p.Smooth {
					loopNormals[li] = vertNormals[m.CornerVerts[li]]
				} else {
					loopNormals[li] = polyNormals[pi]
				}
			}
		}
		return loopNormals, nil
	}

	var spaces *SpaceArray
	if opts.WantSpaces || opts.Custom != nil {
		spaces = NewSpaceArray(m.NumLoops())
	}

	d := &splitData{
		m:           m,
		polyNormals: polyNormals,
		vertNormals: vertNormals,
		loopToPoly:  BuildLoopToPolyMap(m.Polys, m.NumLoops()),
		e2l:         newEdgeToLoops(len(m.Edges)),
		loopNormals: loopNormals,
		clnors:      opts.Custom,
		spaces:      spaces,
	}

	// Custom normal data makes the angle check meaningless: the explicit
	// codes define the splits.
	checkAngle := opts.SplitAngle < math.Pi && opts.Custom == nil
	d.sharpEdgesTag(checkAngle, opts.SplitAngle, false)

	if m.NumLoops() < sequentialThreshold {
		var edgeVectors []math.Vec3
		d.genSplitTasks(func(t splitTask) {
			d.runTask(t, &edgeVectors)
		})
	} else {
		blocks := make(chan []splitTask, numWorkers)
		var wg sync.WaitGroup
		wg.Add(numWorkers)
		for w := 0; w < numWorkers; w++ {
			go func() {
				defer wg.Done()
				var edgeVectors []math.Vec3
				for block := range blocks {
					for _, t := range block {
						d.runTask(t, &edgeVectors)
					}
				}
			}()
		}

		buf := make([]splitTask, 0, taskBlockSize)
		d.genSplitTasks(func(t splitTask) {
			buf = append(buf, t)
			if len(buf) == taskBlockSize {
				blocks <- buf
				buf = make([]splitTask, 0, taskBlockSize)
			}
		})
		if len(buf) > 0 {
			blocks <- buf
		}
		close(blocks)
		wg.Wait()
	}

	if !opts.WantSpaces {
		spaces = nil
	}
	return loopNormals, spaces
}

// genSplitTasks walks all corners sequentially, deciding which ones start a
// single or fan task, and emits them in order. The sequential pre-pass owns
// the cyclic-fan deduplication; workers then touch disjoint loop sets.
func (d *splitData) genSplitTasks(emit func(splitTask)) {
	m := d.m
	skipLoops := make([]bool, m.NumLoops())

	for pi := range m.Polys {
		p := &m.Polys[pi]
		loopLast := p.LoopStart + p.LoopTotal - 1
		loopPrev := loopLast

		for loopCurr := p.LoopStart; loopCurr <= loopLast; loopCurr++ {
			currSharp := d.e2l.sharp(m.CornerEdges[loopCurr])
			prevSharp := d.e2l.sharp(m.CornerEdges[loopPrev])

			// A smooth current edge might belong to a cyclic fan, which has
			// no sharp entry point; only the canonical discovery corner of
			// such a fan may start a task, every other corner is either
			// handled through some sharp-entry walk or already claimed.
			if !currSharp && (skipLoops[loopCurr] ||
				!d.checkCyclicSmoothFan(skipLoops, loopCurr, loopPrev, pi)) {
				loopPrev = loopCurr
				continue
			}

			t := splitTask{
				loopCurr: loopCurr,
				loopPrev: loopPrev,
				polyIdx:  pi,
				single:   currSharp && prevSharp,
			}
			if d.spaces != nil {
				t.space = d.spaces.create()
			}
			emit(t)

			loopPrev = loopCurr
		}
	}
}

func (d *splitData) runTask(t splitTask, edgeVectors *[]math.Vec3) {
	if t.single {
		d.singleDo(t)
	} else {
		d.fanDo(t, edgeVectors)
	}
}

// singleDo handles a corner whose both polygon-adjacent edges are sharp: the
// corner simply takes its polygon's face normal.
func (d *splitData) singleDo(t splitTask) {
	m := d.m
	lnor := d.polyNormals[t.polyIdx]
	d.loopNormals[t.loopCurr] = lnor

	if d.spaces == nil {
		return
	}

	pivot := m.CornerVerts[t.loopCurr]
	pivotPos := m.Positions[pivot]

	eCurr := m.Edges[m.CornerEdges[t.loopCurr]]
	ePrev := m.Edges[m.CornerEdges[t.loopPrev]]
	vecCurr := m.Positions[eCurr.otherVert(pivot)].Sub(pivotPos).Normalize()
	vecPrev := m.Positions[ePrev.otherVert(pivot)].Sub(pivotPos).Normalize()

	t.space.define(lnor, vecCurr, vecPrev, nil)
	d.spaces.addLoop(t.space, t.loopCurr, true)

	if d.clnors != nil {
		d.loopNormals[t.loopCurr] = t.space.DecodeNormal(d.clnors[t.loopCurr])
	}
}

// fanDo walks the smooth fan entered at t and accumulates the angle-weighted
// face normals of every member polygon into one shared normal, written back
// to every member corner. With spaces requested it also builds the fan's
// normal space, and with custom codes present it validates them (averaging
// mismatched codes across the fan) and decodes the final custom normal.
func (d *splitData) fanDo(t splitTask, edgeVectorsScratch *[]math.Vec3) {
	m := d.m

	pivot := m.CornerVerts[t.loopCurr]
	pivotPos := m.Positions[pivot]
	edgeOrg := m.CornerEdges[t.loopCurr]

	edgeVectors := (*edgeVectorsScratch)[:0]

	vecOrg := m.Positions[m.Edges[edgeOrg].otherVert(pivot)].Sub(pivotPos).Normalize()
	vecPrev := vecOrg
	var vecCurr math.Vec3

	if d.spaces != nil {
		edgeVectors = append(edgeVectors, vecOrg)
	}

	fanLoopCurr := t.loopPrev
	fanLoopVert := t.loopCurr
	fanPoly := t.polyIdx
	e2lFan := d.e2l[m.CornerEdges[t.loopPrev]]

	var lnor math.Vec3
	// Member corners in walk order; doubles as the write-back list for both
	// the final normal and repaired custom codes.
	fanLoops := make([]int, 0, 8)

	var codeRef NormalCode
	var codesInvalid bool
	var codeAvg [2]int

	for {
		edgeCurr := m.CornerEdges[fanLoopCurr]
		vecCurr = m.Positions[m.Edges[edgeCurr].otherVert(pivot)].Sub(pivotPos).Normalize()

		// Corner angle between the two edges incident on the pivot.
		fac := math.Acos(vecCurr.Dot(vecPrev))
		lnor = lnor.MulAdd(d.polyNormals[fanPoly], fac)

		if d.clnors != nil {
			code := d.clnors[fanLoopVert]
			if len(fanLoops) > 0 {
				codesInvalid = codesInvalid || code != codeRef
			} else {
				codeRef = code
			}
			codeAvg[0] += int(code[0])
			codeAvg[1] += int(code[1])
		}

		fanLoops = append(fanLoops, fanLoopVert)

		if d.spaces != nil {
			d.spaces.addLoop(t.space, fanLoopVert, false)
			if edgeCurr != edgeOrg {
				edgeVectors = append(edgeVectors, vecCurr)
			}
		}

		if d.e2l.sharp(edgeCurr) || edgeCurr == edgeOrg {
			// Sharp boundary reached, or a full cyclic turn completed.
			break
		}

		vecPrev = vecCurr

		fanLoopCurr, fanLoopVert, fanPoly = d.fanStep(e2lFan, pivot, fanLoopCurr, fanLoopVert, fanPoly)
		e2lFan = d.e2l[m.CornerEdges[fanLoopCurr]]
	}

	*edgeVectorsScratch = edgeVectors[:0]

	lnorLen := lnor.Length()
	lnor = lnor.Normalize()

	if d.spaces != nil {
		if lnorLen == 0 {
			// Degenerate accumulation; the prefilled vertex normal will do.
			lnor = d.loopNormals[fanLoops[len(fanLoops)-1]]
			lnorLen = 1
		}

		t.space.define(lnor, vecOrg, vecCurr, edgeVectors)

		if d.clnors != nil {
			if codesInvalid {
				codeRef = NormalCode{
					int16(codeAvg[0] / len(fanLoops)),
					int16(codeAvg[1] / len(fanLoops)),
				}
				for _, li := range fanLoops {
					d.clnors[li] = codeRef
				}
			}
			lnor = t.space.DecodeNormal(codeRef)
		}
	}

	if lnorLen != 0 {
		for _, li := range fanLoops {
			d.loopNormals[li] = lnor
		}
	}
}
