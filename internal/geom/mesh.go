package geom

import (
	"fmt"

	"avatar-fitter/internal/mathutil"
)

// MaxInfluences is the per-vertex bone influence limit (GPU skinning limit).
const MaxInfluences = 4

// Influence is one (bone, weight) pair of a skinned vertex.
type Influence struct {
	Bone   int
	Weight float64
}

// Mesh is a triangle mesh with optional skinning data. Positions, Normals,
// UVs and Skin are parallel per-vertex arrays; Indices holds triangle index
// triples. Topology (Indices, vertex count) is immutable across all fitting
// operations — only positions, normals and skin data change.
type Mesh struct {
	Name      string
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	UVs       [][2]float64 // optional, for preview texturing
	Indices   []uint32

	// Skin holds up to MaxInfluences weighted bone references per vertex.
	// Nil until the mesh is bound to a skeleton. Weights sum to 1.
	Skin [][MaxInfluences]Influence

	// BindMatrices holds the per-bone inverse bind matrix, indexed by bone
	// index, set when the mesh is bound. Nil for unbound meshes.
	BindMatrices []mathutil.Mat4

	// Transform places the mesh in world space.
	Transform mathutil.Mat4
}

// NewMesh returns an empty mesh at identity transform.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name, Transform: mathutil.Mat4Identity()}
}

// InvalidMeshError reports a mesh unusable for fitting (empty geometry).
type InvalidMeshError struct {
	Name   string
	Reason string
}

func (e *InvalidMeshError) Error() string {
	return fmt.Sprintf("geom: mesh %q: %s", e.Name, e.Reason)
}

// Validate checks that the mesh has renderable geometry.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return &InvalidMeshError{Name: m.Name, Reason: "no vertices"}
	}
	if len(m.Indices) < 3 || len(m.Indices)%3 != 0 {
		return &InvalidMeshError{Name: m.Name, Reason: "no triangles"}
	}
	return nil
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the vertex indices of triangle t.
func (m *Mesh) Triangle(t int) (int, int, int) {
	return int(m.Indices[t*3]), int(m.Indices[t*3+1]), int(m.Indices[t*3+2])
}

// WorldPosition returns vertex i transformed by the mesh transform.
func (m *Mesh) WorldPosition(i int) mathutil.Vec3 {
	return m.Transform.MulPoint(m.Positions[i])
}

// Bounds returns the local-space axis-aligned bounding box.
func (m *Mesh) Bounds() Box {
	b := EmptyBox()
	for _, p := range m.Positions {
		b.Extend(p)
	}
	return b
}

// WorldBounds returns the bounding box of the transformed vertices.
func (m *Mesh) WorldBounds() Box {
	b := EmptyBox()
	for i := range m.Positions {
		b.Extend(m.WorldPosition(i))
	}
	return b
}

// RecomputeNormals rebuilds per-vertex normals as the area-weighted average
// of adjacent face normals.
func (m *Mesh) RecomputeNormals() {
	normals := make([]mathutil.Vec3, len(m.Positions))
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		a, b, c := m.Positions[i0], m.Positions[i1], m.Positions[i2]
		// Unnormalized cross product weights by triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		normals[i0] = normals[i0].Add(n)
		normals[i1] = normals[i1].Add(n)
		normals[i2] = normals[i2].Add(n)
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals
}

// BakeTransform folds the current transform into the vertex buffer and
// resets the transform to identity. World positions are unchanged.
func (m *Mesh) BakeTransform() {
	if m.Transform.IsIdentity() {
		return
	}
	normalMat := m.Transform.Mat3().Inverse().Transpose()
	for i := range m.Positions {
		m.Positions[i] = m.Transform.MulPoint(m.Positions[i])
	}
	for i := range m.Normals {
		m.Normals[i] = normalMat.MulVec3(m.Normals[i]).Normalize()
	}
	m.Transform = mathutil.Mat4Identity()
}

// Clone returns a deep copy sharing no slices with the original.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{Name: m.Name, Transform: m.Transform}
	c.Positions = append([]mathutil.Vec3(nil), m.Positions...)
	c.Normals = append([]mathutil.Vec3(nil), m.Normals...)
	c.Indices = append([]uint32(nil), m.Indices...)
	if m.UVs != nil {
		c.UVs = append([][2]float64(nil), m.UVs...)
	}
	if m.Skin != nil {
		c.Skin = append([][MaxInfluences]Influence(nil), m.Skin...)
	}
	if m.BindMatrices != nil {
		c.BindMatrices = append([]mathutil.Mat4(nil), m.BindMatrices...)
	}
	return c
}
