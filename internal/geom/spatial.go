package geom

import (
	"math"

	"avatar-fitter/internal/mathutil"
)

// ClosestPointOnTriangle returns the point on triangle abc nearest to p.
// Standard Voronoi-region walk.
func ClosestPointOnTriangle(p, a, b, c mathutil.Vec3) mathutil.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Scale(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Scale(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Scale(w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(w))
}

type worldTri struct {
	a, b, c mathutil.Vec3
	normal  mathutil.Vec3
}

// SurfacePoint is the result of a nearest-surface query.
type SurfacePoint struct {
	Position mathutil.Vec3
	Normal   mathutil.Vec3 // outward normal of the containing triangle
	Distance float64       // unsigned distance from the query point
	Triangle int
}

const gridResolution = 24

// TriangleIndex is a uniform-grid spatial index over a mesh's triangles in
// world space. Built once per target mesh and queried per vertex; the target
// is never mutated while an index over it is alive.
type TriangleIndex struct {
	tris   []worldTri
	bounds Box

	origin   mathutil.Vec3
	cellSize float64
	dims     [3]int
	cells    map[[3]int][]int
}

// NewTriangleIndex builds the index from the mesh with its transform applied.
func NewTriangleIndex(m *Mesh) *TriangleIndex {
	idx := &TriangleIndex{bounds: EmptyBox()}

	idx.tris = make([]worldTri, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		a := m.WorldPosition(i0)
		b := m.WorldPosition(i1)
		c := m.WorldPosition(i2)
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-18 {
			continue // degenerate
		}
		idx.tris = append(idx.tris, worldTri{a: a, b: b, c: c, normal: n.Normalize()})
		idx.bounds.Extend(a)
		idx.bounds.Extend(b)
		idx.bounds.Extend(c)
	}

	if idx.bounds.IsEmpty() {
		return idx
	}

	longest, _ := idx.bounds.LongestAxis()
	idx.cellSize = longest / gridResolution
	if idx.cellSize < 1e-9 {
		idx.cellSize = 1e-9
	}
	idx.origin = idx.bounds.Min
	size := idx.bounds.Size()
	for i := 0; i < 3; i++ {
		idx.dims[i] = int(size[i]/idx.cellSize) + 1
	}

	idx.cells = make(map[[3]int][]int)
	for t, tri := range idx.tris {
		tb := EmptyBox()
		tb.Extend(tri.a)
		tb.Extend(tri.b)
		tb.Extend(tri.c)
		lo := idx.cellOf(tb.Min)
		hi := idx.cellOf(tb.Max)
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					k := [3]int{x, y, z}
					idx.cells[k] = append(idx.cells[k], t)
				}
			}
		}
	}
	return idx
}

// TriangleCount reports how many non-degenerate triangles were indexed.
func (idx *TriangleIndex) TriangleCount() int {
	return len(idx.tris)
}

// Bounds returns the world-space bounds of the indexed surface.
func (idx *TriangleIndex) Bounds() Box {
	return idx.bounds
}

func (idx *TriangleIndex) cellOf(p mathutil.Vec3) [3]int {
	var c [3]int
	for i := 0; i < 3; i++ {
		c[i] = int((p[i] - idx.origin[i]) / idx.cellSize)
		if c[i] < 0 {
			c[i] = 0
		}
		if c[i] >= idx.dims[i] {
			c[i] = idx.dims[i] - 1
		}
	}
	return c
}

// Nearest returns the closest surface point to p within maxDist.
// ok is false when no triangle lies within the bound.
func (idx *TriangleIndex) Nearest(p mathutil.Vec3, maxDist float64) (SurfacePoint, bool) {
	if len(idx.tris) == 0 {
		return SurfacePoint{}, false
	}

	best := SurfacePoint{Distance: maxDist, Triangle: -1}
	visit := func(t int) {
		tri := idx.tris[t]
		q := ClosestPointOnTriangle(p, tri.a, tri.b, tri.c)
		d := p.Dist(q)
		if d < best.Distance {
			best = SurfacePoint{Position: q, Normal: tri.normal, Distance: d, Triangle: t}
		}
	}

	// Expand cell shells outward from p until the best hit is provably
	// closer than the next shell could contain.
	center := idx.cellOf(p)
	maxShell := int(maxDist/idx.cellSize) + 1
	limit, _ := mathutil.Vec3{float64(idx.dims[0]), float64(idx.dims[1]), float64(idx.dims[2])}.MaxComponent()
	if maxShell > int(limit) {
		maxShell = int(limit)
	}
	visited := make(map[int]bool)
	for shell := 0; shell <= maxShell; shell++ {
		// Any triangle in a farther shell is at least this far away.
		if best.Triangle >= 0 && float64(shell-1)*idx.cellSize > best.Distance {
			break
		}
		for x := center[0] - shell; x <= center[0]+shell; x++ {
			for y := center[1] - shell; y <= center[1]+shell; y++ {
				for z := center[2] - shell; z <= center[2]+shell; z++ {
					onShell := x == center[0]-shell || x == center[0]+shell ||
						y == center[1]-shell || y == center[1]+shell ||
						z == center[2]-shell || z == center[2]+shell
					if !onShell {
						continue
					}
					for _, t := range idx.cells[[3]int{x, y, z}] {
						if !visited[t] {
							visited[t] = true
							visit(t)
						}
					}
				}
			}
		}
	}

	if best.Triangle < 0 {
		return SurfacePoint{}, false
	}
	return best, true
}

// RaycastLine intersects the line p + t*dir (both directions) with the
// surface and returns the hit nearest to p within maxDist.
func (idx *TriangleIndex) RaycastLine(p, dir mathutil.Vec3, maxDist float64) (SurfacePoint, bool) {
	d := dir.Normalize()
	if d.Len() < 0.5 {
		return SurfacePoint{}, false
	}

	best := SurfacePoint{Distance: maxDist, Triangle: -1}
	for t, tri := range idx.tris {
		hit, ok := rayTriangle(p, d, tri.a, tri.b, tri.c)
		if !ok {
			continue
		}
		dist := math.Abs(hit)
		if dist < best.Distance {
			best = SurfacePoint{
				Position: p.Add(d.Scale(hit)),
				Normal:   tri.normal,
				Distance: dist,
				Triangle: t,
			}
		}
	}
	if best.Triangle < 0 {
		return SurfacePoint{}, false
	}
	return best, true
}

// SignedDistance returns the signed distance from p to the surface: negative
// when p lies behind the nearest triangle's outward normal (inside a closed
// mesh). ok is false when nothing lies within maxDist.
func (idx *TriangleIndex) SignedDistance(p mathutil.Vec3, maxDist float64) (float64, SurfacePoint, bool) {
	sp, ok := idx.Nearest(p, maxDist)
	if !ok {
		return 0, SurfacePoint{}, false
	}
	d := sp.Distance
	if p.Sub(sp.Position).Dot(sp.Normal) < 0 {
		d = -d
	}
	return d, sp, true
}

// rayTriangle is Möller–Trumbore for a full line: returns the signed
// parameter t (can be negative, i.e. behind the origin).
func rayTriangle(orig, dir, a, b, c mathutil.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	pv := dir.Cross(e2)
	det := e1.Dot(pv)
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	invDet := 1.0 / det
	tv := orig.Sub(a)
	u := tv.Dot(pv) * invDet
	if u < -1e-9 || u > 1+1e-9 {
		return 0, false
	}
	qv := tv.Cross(e1)
	v := dir.Dot(qv) * invDet
	if v < -1e-9 || u+v > 1+1e-9 {
		return 0, false
	}
	return e2.Dot(qv) * invDet, true
}
