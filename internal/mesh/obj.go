package mesh

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lbvhgpu/lbvh/internal/aabb"
)

// OBJLoader loads triangles from a Wavefront OBJ file: `v x y z` vertex
// lines and `f a b c` (or `f a/t/n ...`) triangular face lines. Polygons
// with a vertex count other than 3 are rejected (spec §7 InputInvalid),
// matching the original generateElements()'s "only triangle meshes
// supported" behavior (original_source/lbvh/src/LBVH.cpp).
type OBJLoader struct{}

func (OBJLoader) Load(path string) ([]Triangle, aabb.Float, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, aabb.Float{}, fmt.Errorf("mesh: open %q: %w", path, err)
	}
	defer f.Close()

	var vertices []mgl32.Vec3
	var tris []Triangle
	var primitiveID uint32

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, aabb.Float{}, fmt.Errorf("mesh: malformed vertex line %q", line)
			}
			v, err := parseVec3(fields[1], fields[2], fields[3])
			if err != nil {
				return nil, aabb.Float{}, err
			}
			vertices = append(vertices, v)

		case "f":
			faceVerts := fields[1:]
			if len(faceVerts) != 3 {
				return nil, aabb.Float{}, fmt.Errorf("mesh: face with %d vertices: %w", len(faceVerts), ErrNonTriangularFace)
			}
			idx := make([]int, 3)
			for i, fv := range faceVerts {
				vi, err := parseFaceVertexIndex(fv)
				if err != nil {
					return nil, aabb.Float{}, err
				}
				if vi < 0 {
					vi = len(vertices) + vi + 1 // negative/relative indices
				}
				if vi < 1 || vi > len(vertices) {
					return nil, aabb.Float{}, fmt.Errorf("mesh: face vertex index %d out of range", vi)
				}
				idx[i] = vi - 1
			}
			tris = append(tris, Triangle{
				PrimitiveID: primitiveID,
				V0:          vertices[idx[0]],
				V1:          vertices[idx[1]],
				V2:          vertices[idx[2]],
			})
			primitiveID++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, aabb.Float{}, fmt.Errorf("mesh: scan %q: %w", path, err)
	}

	if len(tris) == 0 {
		return nil, aabb.Float{}, fmt.Errorf("mesh: %q contains no triangles", path)
	}

	return tris, computeExtent(tris), nil
}

func parseVec3(xs, ys, zs string) (mgl32.Vec3, error) {
	x, err := strconv.ParseFloat(xs, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("mesh: parse vertex component %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("mesh: parse vertex component %q: %w", ys, err)
	}
	z, err := strconv.ParseFloat(zs, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("mesh: parse vertex component %q: %w", zs, err)
	}
	v := mgl32.Vec3{float32(x), float32(y), float32(z)}
	if !finite(v) {
		return mgl32.Vec3{}, ErrNonFiniteCoordinate
	}
	return v, nil
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}

// parseFaceVertexIndex extracts the vertex-index component of an OBJ face
// token, which may be "v", "v/t", "v//n" or "v/t/n".
func parseFaceVertexIndex(tok string) (int, error) {
	parts := strings.SplitN(tok, "/", 2)
	v, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("mesh: parse face index %q: %w", tok, err)
	}
	return v, nil
}

var _ Loader = OBJLoader{}
