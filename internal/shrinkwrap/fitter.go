// Package shrinkwrap deforms a source mesh onto a target mesh by iterative
// vertex projection. Topology is never changed: only positions, normals and
// skin data of the source are written.
package shrinkwrap

import (
	"context"

	"go.uber.org/zap"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
)

// Fitter runs shrinkwrap deformation. Safe for reuse across meshes; a single
// mesh must not be fitted by two calls concurrently.
type Fitter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Fitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fitter{log: log}
}

// Fit deforms src in place toward the target surface. The vertex and
// triangle counts of src are preserved exactly. Cancellation is checked
// between iterations; a cancelled run returns the partial report alongside
// the context error.
func (f *Fitter) Fit(ctx context.Context, src, target *geom.Mesh, cfg Config) (Report, error) {
	if err := src.Validate(); err != nil {
		return Report{}, err
	}
	if err := target.Validate(); err != nil {
		return Report{}, err
	}

	iters := cfg.Iterations
	if iters <= 0 {
		iters = DefaultConfig().Iterations
	}
	if iters > MaxIterations {
		iters = MaxIterations
	}
	step := cfg.StepSize
	if step <= 0 || step > 1 {
		step = DefaultConfig().StepSize
	}

	tIdx := geom.NewTriangleIndex(target)
	// Generous search bound: anything farther than the whole target is a
	// projection miss, counted and left untouched.
	searchBound := tIdx.Bounds().Diagonal() * 2
	if searchBound <= 0 {
		searchBound = 1
	}

	world := src.Transform
	worldInv := world.Inverse()
	normalMat := world.Mat3().Inverse().Transpose()

	active := activeSet(src.VertexCount(), cfg.SampleRate)

	var boundary map[int]bool
	if cfg.PreserveOpenings {
		boundary = geom.BoundaryVertices(src)
	}

	moved := make(map[int]bool)
	skipped := make(map[int]bool)

	report := Report{}
	for it := 0; it < iters; it++ {
		if err := ctx.Err(); err != nil {
			report.VerticesMoved = len(moved)
			report.VerticesSkipped = len(skipped)
			return report, err
		}
		report.Iterations = it + 1

		// Projection directions follow the deforming surface, not the
		// normals the mesh arrived with.
		src.RecomputeNormals()

		var features map[int]bool
		if cfg.PreserveFeatures {
			// Recomputed every iteration: deformation changes which
			// edges are sharp.
			features = geom.FeatureVertices(src, cfg.FeatureAngleThreshold)
		}

		for _, i := range active {
			if boundary[i] || features[i] {
				continue
			}

			p := world.MulPoint(src.Positions[i])
			n := normalMat.MulVec3(src.Normals[i]).Normalize()

			desired, ok := f.desiredPosition(tIdx, p, n, cfg, searchBound)
			if !ok {
				skipped[i] = true
				continue
			}

			delta := desired.Sub(p)
			if delta.Len() < 1e-12 {
				continue
			}
			src.Positions[i] = worldInv.MulPoint(p.Add(delta.Scale(step)))
			moved[i] = true
		}
	}

	if cfg.SmoothingStrength > 0 && cfg.SmoothingRadius > 0 {
		f.smooth(src, cfg, boundary)
	}
	src.RecomputeNormals()

	report.VerticesMoved = len(moved)
	report.VerticesSkipped = len(skipped)
	f.log.Debug("shrinkwrap fit complete",
		zap.String("source", src.Name),
		zap.String("target", target.Name),
		zap.Int("iterations", report.Iterations),
		zap.Int("moved", report.VerticesMoved),
		zap.Int("skipped", report.VerticesSkipped),
	)
	return report, nil
}

// desiredPosition resolves where a vertex wants to be this iteration.
func (f *Fitter) desiredPosition(tIdx *geom.TriangleIndex, p, n mathutil.Vec3, cfg Config, bound float64) (mathutil.Vec3, bool) {
	if cfg.PushInteriorVertices {
		if sd, _, ok := tIdx.SignedDistance(p, bound); ok && sd < 0 {
			// Inside the target: push outward along the vertex normal by
			// the penetration depth plus the clearance offset.
			return p.Add(n.Scale(-sd + cfg.TargetOffset)), true
		}
	}

	// Nearest surface point along the vertex normal, falling back to the
	// nearest point on the whole surface.
	sp, ok := tIdx.RaycastLine(p, n, bound)
	if !ok {
		sp, ok = tIdx.Nearest(p, bound)
	}
	if !ok {
		return mathutil.Vec3{}, false
	}
	return sp.Position.Add(sp.Normal.Scale(cfg.TargetOffset)), true
}

// smooth applies one pass of neighborhood averaging. Boundary vertices keep
// their positions when openings are preserved.
func (f *Fitter) smooth(src *geom.Mesh, cfg Config, boundary map[int]bool) {
	neighbors := geom.VertexNeighbors(src)
	out := make([]mathutil.Vec3, len(src.Positions))
	copy(out, src.Positions)

	for i, p := range src.Positions {
		if boundary[i] {
			continue
		}
		var sum mathutil.Vec3
		count := 0
		for _, nb := range neighbors[i] {
			q := src.Positions[nb]
			if p.Dist(q) > cfg.SmoothingRadius {
				continue
			}
			sum = sum.Add(q)
			count++
		}
		if count == 0 {
			continue
		}
		avg := sum.Scale(1 / float64(count))
		out[i] = p.Lerp(avg, cfg.SmoothingStrength)
	}
	src.Positions = out
}

// activeSet selects the vertices a run operates on. Sampling is stable: the
// subset depends only on vertex index, so repeated runs and every iteration
// within a run touch the same vertices.
func activeSet(n int, sampleRate float64) []int {
	if sampleRate <= 0 || sampleRate >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	var out []int
	for i := 0; i < n; i++ {
		// Knuth multiplicative hash on the index keeps the subset spread
		// evenly across the mesh.
		h := uint32(i) * 2654435761
		if float64(h&0xffff)/65536.0 < sampleRate {
			out = append(out, i)
		}
	}
	return out
}
