package shrinkwrap

import (
	"context"
	"errors"
	"math"
	"testing"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
)

// fixture: an oversized open tube around the torso of a standing capsule.
func fixture() (src, target *geom.Mesh) {
	target = geom.NewCapsule("avatar", 0.25, 1.8, 24, 8)
	src = geom.NewTube("garment", 0.45, 0.5, 24, 6)
	src.Transform = mathutil.TranslationMat4(mathutil.Vec3{0, 0.9, 0})
	return src, target
}

func TestFitPreservesTopology(t *testing.T) {
	src, target := fixture()
	wantVerts := src.VertexCount()
	wantTris := src.TriangleCount()
	wantIndices := append([]uint32(nil), src.Indices...)

	if _, err := New(nil).Fit(context.Background(), src, target, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	if src.VertexCount() != wantVerts || src.TriangleCount() != wantTris {
		t.Fatalf("topology changed: %d/%d verts, %d/%d tris",
			src.VertexCount(), wantVerts, src.TriangleCount(), wantTris)
	}
	for i, idx := range src.Indices {
		if idx != wantIndices[i] {
			t.Fatalf("index %d rewritten", i)
		}
	}
}

func TestFitConvergesToOffsetSurface(t *testing.T) {
	src, target := fixture()
	cfg := Config{
		Iterations:        10,
		StepSize:          0.5,
		TargetOffset:      0.05,
		SampleRate:        1.0,
		SmoothingStrength: 0, // isolate the projection step
	}

	report, err := New(nil).Fit(context.Background(), src, target, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if report.Iterations != 10 {
		t.Fatalf("ran %d iterations, want 10", report.Iterations)
	}
	if report.VerticesMoved == 0 {
		t.Fatal("no vertices moved")
	}

	// The tube surrounds the capsule's cylindrical section, so every fitted
	// vertex should sit at capsule radius + offset from the Y axis.
	wantR := 0.25 + cfg.TargetOffset
	for i := range src.Positions {
		p := src.WorldPosition(i)
		r := math.Hypot(p[0], p[2])
		if math.Abs(r-wantR) > 0.02 {
			t.Fatalf("vertex %d at radius %g, want %g±0.02", i, r, wantR)
		}
	}
}

func TestFitProjectsAlongCurrentNormals(t *testing.T) {
	// A flat panel inside a box, its stored normals deliberately pointing
	// sideways. Projection must follow the panel's geometric +Y normal, so
	// the panel leaves through the top face, not the side.
	src := geom.NewMesh("panel")
	src.Positions = []mathutil.Vec3{
		{-0.2, 0, -0.2}, {-0.2, 0, 0.2}, {0.2, 0, 0.2}, {0.2, 0, -0.2},
	}
	src.Normals = []mathutil.Vec3{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}}
	src.Indices = []uint32{0, 1, 2, 0, 2, 3}
	target := geom.NewBox("target", mathutil.Vec3{2, 2, 2})

	cfg := Config{
		Iterations:           10,
		StepSize:             0.5,
		TargetOffset:         0.05,
		SampleRate:           1.0,
		PushInteriorVertices: true,
	}
	if _, err := New(nil).Fit(context.Background(), src, target, cfg); err != nil {
		t.Fatal(err)
	}
	for i, p := range src.Positions {
		if p[1] < 0.9 || math.Abs(p[0]) > 0.25 {
			t.Fatalf("vertex %d at %v, want pushed out through the top face", i, p)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	srcA, target := fixture()
	srcB := srcA.Clone()
	cfg := DefaultConfig()
	cfg.SampleRate = 0.7

	if _, err := New(nil).Fit(context.Background(), srcA, target, cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := New(nil).Fit(context.Background(), srcB, target, cfg); err != nil {
		t.Fatal(err)
	}

	for i := range srcA.Positions {
		if srcA.Positions[i] != srcB.Positions[i] {
			t.Fatalf("vertex %d differs between identical runs", i)
		}
	}
}

func TestFitPreservesOpenings(t *testing.T) {
	src, target := fixture()
	boundary := geom.BoundaryVertices(src)
	if len(boundary) == 0 {
		t.Fatal("fixture tube has no boundary")
	}
	before := make(map[int]mathutil.Vec3)
	for i := range boundary {
		before[i] = src.Positions[i]
	}

	cfg := DefaultConfig() // PreserveOpenings on by default
	if _, err := New(nil).Fit(context.Background(), src, target, cfg); err != nil {
		t.Fatal(err)
	}

	for i, want := range before {
		if src.Positions[i].Dist(want) > 1e-9 {
			t.Fatalf("boundary vertex %d moved", i)
		}
	}
}

func TestFitCancellation(t *testing.T) {
	src, target := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(nil).Fit(ctx, src, target, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error %v, want context.Canceled", err)
	}
	if report.Iterations != 0 {
		t.Fatalf("completed %d iterations under cancelled context", report.Iterations)
	}
}

func TestFitClampsIterations(t *testing.T) {
	src, target := fixture()
	cfg := DefaultConfig()
	cfg.Iterations = 50

	report, err := New(nil).Fit(context.Background(), src, target, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if report.Iterations != MaxIterations {
		t.Fatalf("ran %d iterations, want clamp to %d", report.Iterations, MaxIterations)
	}
}

func TestFitRejectsInvalidMesh(t *testing.T) {
	_, target := fixture()
	var ime *geom.InvalidMeshError
	_, err := New(nil).Fit(context.Background(), geom.NewMesh("bad"), target, DefaultConfig())
	if !errors.As(err, &ime) {
		t.Fatalf("error %v, want *InvalidMeshError", err)
	}
}

func TestActiveSetStableAndPartial(t *testing.T) {
	a := activeSet(1000, 0.5)
	b := activeSet(1000, 0.5)
	if len(a) != len(b) {
		t.Fatalf("subset size changed between calls: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("subset membership changed between calls")
		}
	}
	// Roughly half, and a strict subset.
	if len(a) < 350 || len(a) > 650 {
		t.Fatalf("sample of 1000 at 0.5 selected %d vertices", len(a))
	}
	if got := activeSet(1000, 1.0); len(got) != 1000 {
		t.Fatalf("rate 1.0 selected %d of 1000", len(got))
	}
}
