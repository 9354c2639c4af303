// Package formats reads and writes polygonal meshes in common interchange
// formats, preserving per-corner normals where the format carries them.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshnorm/pkg/math"
	"github.com/Faultbox/meshnorm/pkg/mesh"
)

// OBJ format errors.
var (
	ErrOBJFaceTooShort  = errors.New("obj: face needs at least 3 vertices")
	ErrOBJIndexRange    = errors.New("obj: index out of range")
	ErrOBJMalformedLine = errors.New("obj: malformed directive")
)

// OBJ is a decoded Wavefront OBJ file: the mesh topology plus, when the file
// carried vn directives on its faces, one normal per corner.
type OBJ struct {
	Mesh *mesh.Mesh
	// LoopNormals is nil when no face referenced a normal.
	LoopNormals []math.Vec3
}

// ParseOBJ parses a Wavefront OBJ from raw bytes. Supported directives are
// v, vn, f and s; polygons keep their full vertex count (no triangulation),
// and negative (relative) indices are resolved. Everything else (materials,
// groups, texture coordinates) is skipped.
func ParseOBJ(data []byte) (*OBJ, error) {
	m := &mesh.Mesh{}
	var normals []math.Vec3
	var loopNormalIdx []int
	smooth := false
	haveNormalRefs := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseOBJVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			m.Positions = append(m.Positions, v)

		case "vn":
			v, err := parseOBJVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			normals = append(normals, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w", line, ErrOBJFaceTooShort)
			}
			p := mesh.Poly{LoopStart: m.NumLoops(), LoopTotal: len(fields) - 1, Smooth: smooth}
			for _, spec := range fields[1:] {
				vi, ni, err := parseOBJCorner(spec, len(m.Positions), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				m.CornerVerts = append(m.CornerVerts, vi)
				loopNormalIdx = append(loopNormalIdx, ni)
				if ni >= 0 {
					haveNormalRefs = true
				}
			}
			m.Polys = append(m.Polys, p)

		case "s":
			smooth = len(fields) > 1 && fields[1] != "off" && fields[1] != "0"
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}

	m.BuildEdges()

	o := &OBJ{Mesh: m}
	if haveNormalRefs {
		o.LoopNormals = make([]math.Vec3, m.NumLoops())
		for li, ni := range loopNormalIdx {
			if ni >= 0 {
				o.LoopNormals[li] = normals[ni]
			}
		}
	}
	return o, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

func parseOBJVec(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, ErrOBJMalformedLine
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %q", ErrOBJMalformedLine, fields[i])
		}
		out[i] = float32(f)
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// parseOBJCorner decodes one face vertex spec (v, v/vt, v//vn or v/vt/vn)
// into zero-based vertex and normal indices; ni is -1 when absent.
func parseOBJCorner(spec string, numVerts, numNormals int) (vi, ni int, err error) {
	parts := strings.Split(spec, "/")

	vi, err = resolveOBJIndex(parts[0], numVerts)
	if err != nil {
		return 0, 0, err
	}

	ni = -1
	if len(parts) == 3 && parts[2] != "" {
		ni, err = resolveOBJIndex(parts[2], numNormals)
		if err != nil {
			return 0, 0, err
		}
	}
	return vi, ni, nil
}

// resolveOBJIndex turns a one-based (or negative relative) OBJ index into a
// zero-based slice index.
func resolveOBJIndex(s string, count int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOBJMalformedLine, s)
	}
	if idx < 0 {
		idx = count + idx
	} else {
		idx--
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("%w: %s", ErrOBJIndexRange, s)
	}
	return idx, nil
}

// WriteOBJ writes the mesh as Wavefront OBJ. With loopNormals non-nil every
// face corner references its own vn entry, so split and custom normals
// survive the round trip.
func WriteOBJ(w io.Writer, m *mesh.Mesh, loopNormals []math.Vec3) error {
	bw := bufio.NewWriter(w)

	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	if loopNormals != nil {
		for _, n := range loopNormals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
	}

	smooth := false
	first := true
	for _, p := range m.Polys {
		if first || p.Smooth != smooth {
			if p.Smooth {
				fmt.Fprintln(bw, "s 1")
			} else {
				fmt.Fprintln(bw, "s off")
			}
			smooth = p.Smooth
			first = false
		}

		bw.WriteString("f")
		for li := p.LoopStart; li < p.LoopStart+p.LoopTotal; li++ {
			if loopNormals != nil {
				fmt.Fprintf(bw, " %d//%d", m.CornerVerts[li]+1, li+1)
			} else {
				fmt.Fprintf(bw, " %d", m.CornerVerts[li]+1)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteOBJFile writes the mesh to an OBJ file on disk.
func WriteOBJFile(path string, m *mesh.Mesh, loopNormals []math.Vec3) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := WriteOBJ(f, m, loopNormals); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
