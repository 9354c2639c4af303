// normtool is a CLI utility for inspecting, recomputing and encoding mesh
// normals in OBJ and glTF files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshnorm/internal/config"
	"github.com/Faultbox/meshnorm/internal/logger"
	"github.com/Faultbox/meshnorm/pkg/formats"
	"github.com/Faultbox/meshnorm/pkg/math"
	"github.com/Faultbox/meshnorm/pkg/mesh"
)

func main() {
	config.ParseFlags()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Normals.Workers > 0 {
		mesh.SetWorkers(cfg.Normals.Workers)
	}

	switch args[0] {
	case "info":
		cmdInfo(cfg, args[1:])
	case "normals":
		cmdNormals(cfg, args[1:])
	case "sharp":
		cmdSharp(cfg, args[1:])
	case "encode":
		cmdEncode(cfg, args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`normtool - mesh normal utility

Usage:
  normtool [options] <command> [args]

Commands:
  info <file>              Show mesh and normal statistics
  normals <file> [output]  Recompute corner normals and write the mesh
  sharp <file> [output]    Tag sharp edges from the split angle
  encode <file> [output]   Encode the file's normals as custom normals,
                           then write the mesh with the decoded result

Options:
  -config <path>   Config file (default: normtool.yaml)
  -angle <deg>     Split angle threshold in degrees (180 disables)
  -no-split        Disable sharp edge splitting
  -workers <n>     Parallel worker count (0 = one per CPU)
  -format <fmt>    Output format: obj, gltf or glb
  -debug           Enable debug logging

Examples:
  normtool info model.obj
  normtool -angle 45 normals scan.glb smoothed.obj
  normtool encode authored.obj baked.glb`)
}

// loadMesh reads a mesh by file extension. The returned normals are the
// per-corner normals the file carried, or nil.
func loadMesh(path string) (*mesh.Mesh, []math.Vec3, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		o, err := formats.ParseOBJFile(path)
		if err != nil {
			return nil, nil, err
		}
		return o.Mesh, o.LoopNormals, nil
	case ".gltf", ".glb":
		g, err := formats.OpenGLTF(path)
		if err != nil {
			return nil, nil, err
		}
		return g.Mesh, g.LoopNormals, nil
	default:
		return nil, nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// saveMesh writes a mesh by file extension, falling back to the configured
// default format when the path has none.
func saveMesh(cfg *config.Config, path string, m *mesh.Mesh, loopNormals []math.Vec3) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = "." + cfg.Output.Format
		path += ext
	}
	switch ext {
	case ".obj":
		return formats.WriteOBJFile(path, m, loopNormals)
	case ".gltf", ".glb":
		return formats.SaveGLTF(path, m, loopNormals)
	default:
		return fmt.Errorf("unsupported output format: %s", path)
	}
}

func loopNormalOptions(cfg *config.Config) mesh.LoopNormalOptions {
	return mesh.LoopNormalOptions{
		Split:      cfg.Normals.Split,
		SplitAngle: cfg.Normals.SplitAngle(),
	}
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: normtool info <file>")
		os.Exit(1)
	}

	m, fileNormals, err := loadMesh(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sharpCount := 0
	for _, e := range m.Edges {
		if e.Sharp {
			sharpCount++
		}
	}
	smoothPolys := 0
	for _, p := range m.Polys {
		if p.Smooth {
			smoothPolys++
		}
	}

	_, spaces := m.LoopNormals(mesh.LoopNormalOptions{
		Split:      true,
		SplitAngle: cfg.Normals.SplitAngle(),
		WantSpaces: true,
	})

	fmt.Printf("Mesh:     %s\n", args[0])
	fmt.Printf("Vertices: %d\n", m.NumVerts())
	fmt.Printf("Polygons: %d (%d smooth)\n", len(m.Polys), smoothPolys)
	fmt.Printf("Corners:  %d\n", m.NumLoops())
	fmt.Printf("Edges:    %d (%d sharp)\n", len(m.Edges), sharpCount)
	fmt.Printf("Fans:     %d at %g degrees\n", spaces.NumSpaces, cfg.Normals.SplitAngleDeg)
	if fileNormals != nil {
		fmt.Printf("Normals:  %d per-corner normals in file\n", len(fileNormals))
	} else {
		fmt.Println("Normals:  none in file")
	}
}

func cmdNormals(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: normtool normals <file> [output]")
		os.Exit(1)
	}

	m, _, err := loadMesh(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Debug("computing corner normals",
		zap.Int("polys", len(m.Polys)),
		zap.Bool("split", cfg.Normals.Split),
		zap.Float32("angle_deg", cfg.Normals.SplitAngleDeg))

	loopNormals, _ := m.LoopNormals(loopNormalOptions(cfg))

	if len(args) > 1 {
		if err := saveMesh(cfg, args[1], m, loopNormals); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d corner normals)\n", args[1], len(loopNormals))
		return
	}

	for li, n := range loopNormals {
		fmt.Printf("%d: %.6f %.6f %.6f\n", li, n.X, n.Y, n.Z)
	}
}

func cmdSharp(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: normtool sharp <file> [output]")
		os.Exit(1)
	}

	m, loopNormals, err := loadMesh(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	before := 0
	for _, e := range m.Edges {
		if e.Sharp {
			before++
		}
	}

	mesh.SharpEdgesFromAngle(m, cfg.Normals.SplitAngle())

	after := 0
	for _, e := range m.Edges {
		if e.Sharp {
			after++
		}
	}
	fmt.Printf("Sharp edges: %d -> %d at %g degrees\n", before, after, cfg.Normals.SplitAngleDeg)

	if len(args) > 1 {
		if err := saveMesh(cfg, args[1], m, loopNormals); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", args[1])
	}
}

func cmdEncode(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: normtool encode <file> [output]")
		os.Exit(1)
	}

	m, fileNormals, err := loadMesh(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if fileNormals == nil {
		fmt.Fprintln(os.Stderr, "Error: input carries no normals to encode")
		os.Exit(1)
	}

	sharpBefore := 0
	for _, e := range m.Edges {
		if e.Sharp {
			sharpBefore++
		}
	}

	m.SetCustomLoopNormals(fileNormals)

	sharpAfter, encoded := 0, 0
	for _, e := range m.Edges {
		if e.Sharp {
			sharpAfter++
		}
	}
	for _, code := range m.CustomNormals {
		if code != (mesh.NormalCode{}) {
			encoded++
		}
	}
	logger.Info("encoded custom normals",
		zap.Int("corners", m.NumLoops()),
		zap.Int("overrides", encoded),
		zap.Int("edges_sharpened", sharpAfter-sharpBefore))

	fmt.Printf("Corners:         %d\n", m.NumLoops())
	fmt.Printf("Overrides:       %d (rest use computed normals)\n", encoded)
	fmt.Printf("Edges sharpened: %d\n", sharpAfter-sharpBefore)

	if len(args) > 1 {
		decoded, _ := m.LoopNormals(mesh.LoopNormalOptions{
			Split:      true,
			SplitAngle: math.Pi,
			Custom:     m.CustomNormals,
		})
		if err := saveMesh(cfg, args[1], m, decoded); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", args[1])
	}
}
