package skeleton_test

import (
	"math"
	"testing"

	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/skeleton"
)

func TestWorldMatricesChainParents(t *testing.T) {
	s := skeleton.New()
	root := s.AddBone("Root", -1, mathutil.TranslationMat4(mathutil.Vec3{0, 1, 0}))
	child := s.AddBone("Child", root, mathutil.TranslationMat4(mathutil.Vec3{2, 0, 0}))

	if got := s.WorldPosition(child); got.Dist(mathutil.Vec3{2, 1, 0}) > 1e-9 {
		t.Fatalf("child world position %v, want (2,1,0)", got)
	}

	// Moving the root moves the child.
	s.SetLocal(root, mathutil.TranslationMat4(mathutil.Vec3{0, 5, 0}))
	if got := s.WorldPosition(child); got.Dist(mathutil.Vec3{2, 5, 0}) > 1e-9 {
		t.Fatalf("after SetLocal, child world position %v, want (2,5,0)", got)
	}
}

func TestWorldScalePropagates(t *testing.T) {
	s := skeleton.New()
	root := s.AddBone("Root", -1, mathutil.ScaleMat4(mathutil.Vec3{2, 2, 2}))
	child := s.AddBone("Child", root, mathutil.ScaleMat4(mathutil.Vec3{1, 3, 1}))

	got := s.WorldScale(child)
	if got.Dist(mathutil.Vec3{2, 6, 2}) > 1e-9 {
		t.Fatalf("child world scale %v, want (2,6,2)", got)
	}
}

func TestFindCaseInsensitive(t *testing.T) {
	s := skeleton.New()
	s.AddBone("Hips", -1, mathutil.Mat4Identity())
	s.AddBone("Hand_R", 0, mathutil.Mat4Identity())

	if i := s.Find("hand_r"); i != 1 {
		t.Fatalf("Find(hand_r) = %d, want 1", i)
	}
	if i := s.Find("hand"); i != -1 {
		t.Fatalf("Find(hand) = %d, want -1 (exact match only)", i)
	}
	if i := s.FindSubstring("hand"); i != 1 {
		t.Fatalf("FindSubstring(hand) = %d, want 1", i)
	}
	// Containment works in both directions.
	if i := s.FindSubstring("left hips bone"); i != 0 {
		t.Fatalf("FindSubstring(left hips bone) = %d, want 0", i)
	}
}

func TestRoot(t *testing.T) {
	s := skeleton.New()
	if s.Root() != -1 {
		t.Fatal("empty skeleton has a root")
	}
	s.AddBone("Hips", -1, mathutil.Mat4Identity())
	s.AddBone("Spine", 0, mathutil.Mat4Identity())
	if s.Root() != 0 {
		t.Fatalf("Root() = %d, want 0", s.Root())
	}
}

func TestHumanoidProportions(t *testing.T) {
	const height = 1.8
	s := skeleton.NewHumanoid(height)

	check := func(name string, wantFrac float64) {
		t.Helper()
		i := s.Find(name)
		if i < 0 {
			t.Fatalf("bone %s missing", name)
		}
		y := s.WorldPosition(i)[1]
		if math.Abs(y-wantFrac*height) > 1e-9 {
			t.Fatalf("%s at y=%g, want %g", name, y, wantFrac*height)
		}
	}
	check("Hips", 0.40)
	check("Spine02", 0.54)
	check("Clavicle_L", 0.58)
	check("Head", 0.70)

	// Head sits clearly above the shoulders: a normal, not hunched, rig.
	headY := s.WorldPosition(s.Find("Head"))[1]
	shoulderY := s.WorldPosition(s.Find("Clavicle_L"))[1]
	if headY-shoulderY < 0.1 {
		t.Fatalf("head-to-shoulder delta %g too small", headY-shoulderY)
	}

	for _, name := range []string{"Hand_L", "Hand_R", "Foot_L", "Foot_R", "Head_End"} {
		if s.Find(name) < 0 {
			t.Fatalf("bone %s missing", name)
		}
	}
}
