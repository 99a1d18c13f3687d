package geom

import (
	"math"

	"avatar-fitter/internal/mathutil"
)

type edgeKey struct {
	a, b uint32
}

func newEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// BoundaryVertices returns the set of vertices lying on open boundary loops:
// endpoints of any edge used by exactly one triangle. Garment openings
// (necks, sleeves) are made of such edges.
func BoundaryVertices(m *Mesh) map[int]bool {
	uses := make(map[edgeKey]int)
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		uses[newEdgeKey(uint32(i0), uint32(i1))]++
		uses[newEdgeKey(uint32(i1), uint32(i2))]++
		uses[newEdgeKey(uint32(i2), uint32(i0))]++
	}

	boundary := make(map[int]bool)
	for e, n := range uses {
		if n == 1 {
			boundary[int(e.a)] = true
			boundary[int(e.b)] = true
		}
	}
	return boundary
}

// VertexNeighbors returns, for each vertex, the indices of vertices sharing
// an edge with it.
func VertexNeighbors(m *Mesh) [][]int {
	seen := make(map[edgeKey]bool)
	neighbors := make([][]int, m.VertexCount())
	addEdge := func(a, b int) {
		k := newEdgeKey(uint32(a), uint32(b))
		if seen[k] {
			return
		}
		seen[k] = true
		neighbors[a] = append(neighbors[a], b)
		neighbors[b] = append(neighbors[b], a)
	}
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		addEdge(i0, i1)
		addEdge(i1, i2)
		addEdge(i2, i0)
	}
	return neighbors
}

// FeatureVertices returns vertices adjacent to feature edges: interior edges
// whose dihedral angle exceeds angleDeg. Computed from current positions, so
// it must be re-evaluated as the mesh deforms.
func FeatureVertices(m *Mesh, angleDeg float64) map[int]bool {
	nt := m.TriangleCount()
	faceNormals := make([]mathutil.Vec3, nt)
	for t := 0; t < nt; t++ {
		i0, i1, i2 := m.Triangle(t)
		a, b, c := m.Positions[i0], m.Positions[i1], m.Positions[i2]
		faceNormals[t] = b.Sub(a).Cross(c.Sub(a)).Normalize()
	}

	edgeFaces := make(map[edgeKey][2]int)
	edgeCount := make(map[edgeKey]int)
	for t := 0; t < nt; t++ {
		i0, i1, i2 := m.Triangle(t)
		for _, e := range [3]edgeKey{
			newEdgeKey(uint32(i0), uint32(i1)),
			newEdgeKey(uint32(i1), uint32(i2)),
			newEdgeKey(uint32(i2), uint32(i0)),
		} {
			n := edgeCount[e]
			if n < 2 {
				f := edgeFaces[e]
				f[n] = t
				edgeFaces[e] = f
			}
			edgeCount[e] = n + 1
		}
	}

	cosThreshold := math.Cos(mathutil.Deg2Rad(angleDeg))
	features := make(map[int]bool)
	for e, n := range edgeCount {
		if n != 2 {
			continue
		}
		f := edgeFaces[e]
		if faceNormals[f[0]].Dot(faceNormals[f[1]]) < cosThreshold {
			features[int(e.a)] = true
			features[int(e.b)] = true
		}
	}
	return features
}
