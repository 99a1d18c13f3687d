// Package binder re-skins a static mesh to a skeleton by computing
// per-vertex bone weights from bone proximity.
package binder

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/skeleton"
)

// bindTolerance is the maximum world-space drift allowed between a vertex's
// position before and after binding.
const bindTolerance = 0.01

// BindFailure reports vertices with no bone within the search radius. The
// whole bind is rejected rather than producing invisible vertices; the
// caller may retry with a larger radius.
type BindFailure struct {
	Mesh      string
	Radius    float64
	Uncovered []int
}

func (e *BindFailure) Error() string {
	return fmt.Sprintf("binder: mesh %q: %d vertices have no bone within radius %g",
		e.Mesh, len(e.Uncovered), e.Radius)
}

// Binder computes skinning data. Stateless apart from its logger.
type Binder struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Binder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Binder{log: log}
}

// Bind writes skin weights and inverse bind matrices onto the mesh. When
// applyGeometryTransform is set, the mesh's current world transform is baked
// into the vertex buffer first, so the skinned mesh sits at identity under
// the skeleton root with no visual jump — mandatory when the mesh was moved
// or scaled by prior fitting steps.
//
// Every vertex's post-bind world position is verified against its pre-bind
// position before returning.
func (b *Binder) Bind(m *geom.Mesh, skel *skeleton.Skeleton, searchRadius float64, applyGeometryTransform bool) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if skel == nil || skel.Len() == 0 {
		return fmt.Errorf("binder: mesh %q: skeleton has no bones", m.Name)
	}
	if searchRadius <= 0 {
		return fmt.Errorf("binder: mesh %q: search radius must be positive, got %g", m.Name, searchRadius)
	}

	if applyGeometryTransform {
		m.BakeTransform()
	}

	// Reference world positions, checked after weights are assigned.
	ref := make([]mathutil.Vec3, m.VertexCount())
	for i := range ref {
		ref[i] = m.WorldPosition(i)
	}

	worlds := skel.WorldMatrices()
	bonePos := make([]mathutil.Vec3, len(worlds))
	for i, w := range worlds {
		bonePos[i] = w.Translation()
	}

	type cand struct {
		bone   int
		weight float64
	}

	skin := make([][geom.MaxInfluences]geom.Influence, m.VertexCount())
	var uncovered []int
	for vi := range ref {
		p := ref[vi]

		// Search the full bone list: garment vertices may span several
		// bones far from the attachment slot.
		var cands []cand
		for bi := range bonePos {
			d := p.Dist(bonePos[bi])
			if d > searchRadius {
				continue
			}
			if d < 1e-9 {
				d = 1e-9
			}
			cands = append(cands, cand{bone: bi, weight: 1 / d})
		}
		if len(cands) == 0 {
			uncovered = append(uncovered, vi)
			continue
		}

		// Keep the MaxInfluences strongest, renormalized to sum to 1.
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].weight != cands[b].weight {
				return cands[a].weight > cands[b].weight
			}
			return cands[a].bone < cands[b].bone
		})
		if len(cands) > geom.MaxInfluences {
			cands = cands[:geom.MaxInfluences]
		}
		var total float64
		for _, c := range cands {
			total += c.weight
		}
		for k, c := range cands {
			skin[vi][k] = geom.Influence{Bone: c.bone, Weight: c.weight / total}
		}
	}

	if len(uncovered) > 0 {
		return &BindFailure{Mesh: m.Name, Radius: searchRadius, Uncovered: uncovered}
	}

	inverseBind := make([]mathutil.Mat4, len(worlds))
	for i, w := range worlds {
		inverseBind[i] = w.Inverse()
	}

	// Invariant check: skinning at bind pose must reproduce the cached
	// world positions within tolerance.
	for vi := range ref {
		var skinned mathutil.Vec3
		for _, inf := range skin[vi] {
			if inf.Weight == 0 {
				continue
			}
			local := inverseBind[inf.Bone].MulPoint(ref[vi])
			skinned = skinned.Add(worlds[inf.Bone].MulPoint(local).Scale(inf.Weight))
		}
		if skinned.Dist(ref[vi]) > bindTolerance {
			return fmt.Errorf("binder: mesh %q: vertex %d drifted %g after binding",
				m.Name, vi, skinned.Dist(ref[vi]))
		}
	}

	m.Skin = skin
	m.BindMatrices = inverseBind
	b.log.Debug("mesh bound to skeleton",
		zap.String("mesh", m.Name),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("bones", skel.Len()),
		zap.Float64("radius", searchRadius),
	)
	return nil
}
