package geom

import (
	"math"

	"avatar-fitter/internal/mathutil"
)

// Procedural meshes for tests and the demo pipeline. Production meshes come
// from an external loader; these builders keep the engine exercisable without
// any file-format dependency.

// NewBox builds an axis-aligned box of the given size centered at the origin,
// with per-face normals and planar UVs.
func NewBox(name string, size mathutil.Vec3) *Mesh {
	hx, hy, hz := size[0]/2, size[1]/2, size[2]/2

	type face struct {
		normal mathutil.Vec3
		verts  [4]mathutil.Vec3
	}
	faces := []face{
		{mathutil.Vec3{1, 0, 0}, [4]mathutil.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{mathutil.Vec3{-1, 0, 0}, [4]mathutil.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{mathutil.Vec3{0, 1, 0}, [4]mathutil.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{mathutil.Vec3{0, -1, 0}, [4]mathutil.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}}},
		{mathutil.Vec3{0, 0, 1}, [4]mathutil.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mathutil.Vec3{0, 0, -1}, [4]mathutil.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
	}

	m := NewMesh(name)
	uv := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, f := range faces {
		base := uint32(len(m.Positions))
		for i, v := range f.verts {
			m.Positions = append(m.Positions, v)
			m.Normals = append(m.Normals, f.normal)
			m.UVs = append(m.UVs, uv[i])
		}
		m.Indices = append(m.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
	return m
}

// NewCapsule builds a Y-up capsule standing on the origin: base at y=0, top
// at y=height, hemispherical caps of the given radius. Used as the synthetic
// avatar body in tests and the demo.
func NewCapsule(name string, radius, height float64, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 1 {
		rings = 1
	}
	if height < 2*radius {
		height = 2 * radius
	}

	type profilePt struct {
		y, rad   float64
		ny, nxz  float64 // normal components: vertical, radial
	}
	var prof []profilePt
	// Bottom hemisphere (pole excluded), equator included.
	for i := 1; i <= rings; i++ {
		th := -math.Pi/2 + (math.Pi/2)*float64(i)/float64(rings)
		prof = append(prof, profilePt{
			y: radius + radius*math.Sin(th), rad: radius * math.Cos(th),
			ny: math.Sin(th), nxz: math.Cos(th),
		})
	}
	// Top hemisphere, equator included, pole excluded.
	for i := 0; i < rings; i++ {
		th := (math.Pi / 2) * float64(i) / float64(rings)
		prof = append(prof, profilePt{
			y: height - radius + radius*math.Sin(th), rad: radius * math.Cos(th),
			ny: math.Sin(th), nxz: math.Cos(th),
		})
	}

	m := NewMesh(name)
	// Bottom pole.
	m.Positions = append(m.Positions, mathutil.Vec3{0, 0, 0})
	m.Normals = append(m.Normals, mathutil.Vec3{0, -1, 0})
	m.UVs = append(m.UVs, [2]float64{0.5, 0})

	for _, pp := range prof {
		for s := 0; s < segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			cp, sp := math.Cos(phi), math.Sin(phi)
			m.Positions = append(m.Positions, mathutil.Vec3{pp.rad * cp, pp.y, pp.rad * sp})
			m.Normals = append(m.Normals, mathutil.Vec3{pp.nxz * cp, pp.ny, pp.nxz * sp}.Normalize())
			m.UVs = append(m.UVs, [2]float64{float64(s) / float64(segments), pp.y / height})
		}
	}

	// Top pole.
	topPole := uint32(len(m.Positions))
	m.Positions = append(m.Positions, mathutil.Vec3{0, height, 0})
	m.Normals = append(m.Normals, mathutil.Vec3{0, 1, 0})
	m.UVs = append(m.UVs, [2]float64{0.5, 1})

	ringStart := func(r int) uint32 { return uint32(1 + r*segments) }
	at := func(r, s int) uint32 { return ringStart(r) + uint32(s%segments) }

	// Bottom fan.
	for s := 0; s < segments; s++ {
		m.Indices = append(m.Indices, 0, at(0, s), at(0, s+1))
	}
	// Bands.
	for r := 0; r < len(prof)-1; r++ {
		for s := 0; s < segments; s++ {
			m.Indices = append(m.Indices,
				at(r, s), at(r+1, s), at(r, s+1),
				at(r, s+1), at(r+1, s), at(r+1, s+1),
			)
		}
	}
	// Top fan.
	last := len(prof) - 1
	for s := 0; s < segments; s++ {
		m.Indices = append(m.Indices, topPole, at(last, s+1), at(last, s))
	}
	return m
}

// NewTube builds an open cylinder along Y (no caps): both rims are boundary
// loops, like the neck and hem of a garment.
func NewTube(name string, radius, height float64, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 1 {
		rings = 1
	}

	m := NewMesh(name)
	for r := 0; r <= rings; r++ {
		y := height * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			cp, sp := math.Cos(phi), math.Sin(phi)
			m.Positions = append(m.Positions, mathutil.Vec3{radius * cp, y, radius * sp})
			m.Normals = append(m.Normals, mathutil.Vec3{cp, 0, sp})
			m.UVs = append(m.UVs, [2]float64{float64(s) / float64(segments), float64(r) / float64(rings)})
		}
	}

	at := func(r, s int) uint32 { return uint32(r*segments + s%segments) }
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			m.Indices = append(m.Indices,
				at(r, s), at(r+1, s), at(r, s+1),
				at(r, s+1), at(r+1, s), at(r+1, s+1),
			)
		}
	}
	return m
}
