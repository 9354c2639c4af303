package mesh

import "github.com/Faultbox/meshnorm/pkg/math"

// trigoThreshold guards basis construction and fan splitting: two unit
// vectors whose dot exceeds it are considered parallel for our purposes.
// Touchy value, float precision wise; this one holds up in practice.
const trigoThreshold = 1.0 - 1e-4

// NormalSpace is the orthonormal basis of one smooth fan (or one isolated
// sharp corner), used to encode custom normals as two fixed-point angles.
// RefAlpha is the mean angle of the fan's edge vectors to Lnor; RefBeta the
// signed angle of the second reference around Lnor. Both are zero when the
// space is degenerate, in which case every code decodes to Lnor.
type NormalSpace struct {
	Lnor  math.Vec3
	Ref   math.Vec3
	Ortho math.Vec3

	RefAlpha float32
	RefBeta  float32

	// Single marks a trivial one-corner space.
	Single bool
	// Loops lists the member corners in fan walk order. Empty for singles.
	Loops []int
}

// SpaceArray maps every corner to its normal space. Corners of one fan all
// share a single space instance.
type SpaceArray struct {
	LoopSpaces []*NormalSpace
	NumSpaces  int
}

// NewSpaceArray returns a space array for a mesh with numLoops corners.
func NewSpaceArray(numLoops int) *SpaceArray {
	return &SpaceArray{LoopSpaces: make([]*NormalSpace, numLoops)}
}

func (sa *SpaceArray) create() *NormalSpace {
	sa.NumSpaces++
	return &NormalSpace{}
}

// addLoop assigns space to corner li and records membership.
func (sa *SpaceArray) addLoop(s *NormalSpace, li int, single bool) {
	sa.LoopSpaces[li] = s
	if single {
		s.Single = true
	} else {
		s.Loops = append(s.Loops, li)
	}
}

// define builds the orthonormal basis from the fan's computed normal and two
// reference edge vectors. edgeVectors, when non-nil, holds every edge vector
// of the fan and drives the RefAlpha average; otherwise the two references
// are averaged directly. A reference too closely aligned with lnor makes the
// basis numerically unstable, so the space is left degenerate instead.
func (s *NormalSpace) define(lnor, vecRef, vecOther math.Vec3, edgeVectors []math.Vec3) {
	dtpRef := vecRef.Dot(lnor)
	dtpOther := vecOther.Dot(lnor)

	if math.Abs(dtpRef) >= trigoThreshold || math.Abs(dtpOther) >= trigoThreshold {
		s.RefAlpha = 0
		s.RefBeta = 0
		return
	}

	s.Lnor = lnor

	if edgeVectors != nil {
		var alpha float32
		for _, vec := range edgeVectors {
			alpha += math.Acos(vec.Dot(lnor))
		}
		s.RefAlpha = alpha / float32(len(edgeVectors))
	} else {
		s.RefAlpha = (math.Acos(vecRef.Dot(lnor)) + math.Acos(vecOther.Dot(lnor))) / 2
	}

	// Project both references onto lnor's orthogonal plane.
	s.Ref = vecRef.Sub(lnor.Scale(dtpRef)).Normalize()
	s.Ortho = lnor.Cross(s.Ref).Normalize()
	vecOther = vecOther.Sub(lnor.Scale(dtpOther)).Normalize()

	// Beta is the angle from Ref to the projected other vector, around Lnor.
	dtp := s.Ref.Dot(vecOther)
	if dtp < trigoThreshold {
		beta := math.Acos(dtp)
		if s.Ortho.Dot(vecOther) < 0 {
			beta = math.Pi2 - beta
		}
		s.RefBeta = beta
	} else {
		s.RefBeta = math.Pi2
	}
}

// unitToCode quantizes a fraction in [-1, 1] to a signed 16-bit code with
// round-to-nearest.
func unitToCode(val float32) int16 {
	return int16(math.Floor(val*32767 + 0.5))
}

// codeToUnit is the inverse of unitToCode, up to quantization.
func codeToUnit(code int16) float32 {
	return float32(code) / 32767
}

// DecodeNormal reconstructs a unit normal from its fixed-point code. The
// reserved code (0,0) and degenerate spaces both yield Lnor.
func (s *NormalSpace) DecodeNormal(code NormalCode) math.Vec3 {
	if code[0] == 0 || s.RefAlpha == 0 || s.RefBeta == 0 {
		return s.Lnor
	}

	// Negative codes select the complementary angular range; the product
	// with the (negative) fraction then lands on an equivalent negative
	// angle, keeping cos/sin consistent with the encoder.
	alphaFac := codeToUnit(code[0])
	refAlpha := s.RefAlpha
	if alphaFac < 0 {
		refAlpha = math.Pi2 - s.RefAlpha
	}
	alpha := refAlpha * alphaFac

	res := s.Lnor.Scale(math.Cos(alpha))

	betaFac := codeToUnit(code[1])
	if betaFac == 0 {
		return res.MulAdd(s.Ref, math.Sin(alpha))
	}

	sinAlpha := math.Sin(alpha)
	refBeta := s.RefBeta
	if betaFac < 0 {
		refBeta = math.Pi2 - s.RefBeta
	}
	beta := refBeta * betaFac

	res = res.MulAdd(s.Ref, sinAlpha*math.Cos(beta))
	return res.MulAdd(s.Ortho, sinAlpha*math.Sin(beta))
}

// EncodeNormal maps a unit custom normal into the space's fixed-point code.
// A zero vector, a normal matching Lnor, or a degenerate space all yield the
// reserved (0,0) code.
func (s *NormalSpace) EncodeNormal(custom math.Vec3) NormalCode {
	if custom.IsZero() || s.Lnor.Equals(custom, 1e-4) {
		return NormalCode{}
	}
	if s.RefAlpha == 0 || s.RefBeta == 0 {
		return NormalCode{}
	}

	var code NormalCode

	cosAlpha := s.Lnor.Dot(custom)
	alpha := math.Acos(cosAlpha)
	if alpha > s.RefAlpha {
		// Angles beyond the fan's mean open up the complementary range; the
		// sign of the code disambiguates on decode.
		code[0] = unitToCode(-(math.Pi2 - alpha) / (math.Pi2 - s.RefAlpha))
	} else {
		code[0] = unitToCode(alpha / s.RefAlpha)
	}

	// Project the custom normal onto the (Ref, Ortho) plane for beta.
	vec := custom.MulAdd(s.Lnor, -cosAlpha).Normalize()
	cosBeta := s.Ref.Dot(vec)

	if cosBeta < trigoThreshold {
		beta := math.Acos(cosBeta)
		if s.Ortho.Dot(vec) < 0 {
			beta = math.Pi2 - beta
		}
		if beta > s.RefBeta {
			code[1] = unitToCode(-(math.Pi2 - beta) / (math.Pi2 - s.RefBeta))
		} else {
			code[1] = unitToCode(beta / s.RefBeta)
		}
	}
	return code
}
