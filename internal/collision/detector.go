// Package collision reports interpenetration between two meshes positioned
// in a shared world space. Detection has no side effects; the output is a
// snapshot used for validation or visualization.
package collision

import (
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
)

// Point is one penetrating vertex: its world position, the outward normal of
// the nearest target triangle, and the penetration depth (always >= 0).
type Point struct {
	Position mathutil.Vec3
	Normal   mathutil.Vec3
	Depth    float64
}

// Detect tests every vertex of meshA for containment in meshB via signed
// nearest-triangle distance. sampleRate < 1 tests a stable pseudo-random
// vertex subset.
func Detect(meshA, meshB *geom.Mesh, sampleRate float64) ([]Point, error) {
	if err := meshA.Validate(); err != nil {
		return nil, err
	}
	if err := meshB.Validate(); err != nil {
		return nil, err
	}

	idx := geom.NewTriangleIndex(meshB)
	bound := idx.Bounds().Diagonal()
	if bound <= 0 {
		return nil, nil
	}

	var points []Point
	for i := 0; i < meshA.VertexCount(); i++ {
		if sampleRate > 0 && sampleRate < 1 {
			h := uint32(i) * 2654435761
			if float64(h&0xffff)/65536.0 >= sampleRate {
				continue
			}
		}
		p := meshA.WorldPosition(i)
		sd, sp, ok := idx.SignedDistance(p, bound)
		if !ok || sd >= 0 {
			continue
		}
		points = append(points, Point{
			Position: p,
			Normal:   sp.Normal,
			Depth:    -sd,
		})
	}
	return points, nil
}
