package region_test

import (
	"errors"
	"math"
	"testing"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/region"
	"avatar-fitter/internal/skeleton"
)

const height = 1.8

func avatar() *geom.Mesh {
	return geom.NewCapsule("avatar", 0.25, height, 16, 6)
}

func TestDetectTorsoOnHumanoid(t *testing.T) {
	rig := skeleton.NewHumanoid(height)
	regions, err := region.Detect(avatar(), rig, region.DefaultHeuristics())
	if err != nil {
		t.Fatal(err)
	}

	torso, ok := regions[region.Torso]
	if !ok {
		t.Fatal("no torso region")
	}

	// Bottom is proportional, top anchors to the shoulders.
	if math.Abs(torso.Min[1]-0.15*height) > 1e-9 {
		t.Fatalf("torso bottom %g, want %g", torso.Min[1], 0.15*height)
	}
	if math.Abs(torso.Max[1]-0.58*height) > 1e-9 {
		t.Fatalf("torso top %g, want %g", torso.Max[1], 0.58*height)
	}
	// Sanity range for any plausible rig.
	if torso.Max[1] < 0.15*height || torso.Max[1] > 0.6*height {
		t.Fatalf("torso top %g outside [%g, %g]", torso.Max[1], 0.15*height, 0.6*height)
	}

	for _, name := range []region.Name{region.Head, region.Hips, region.Legs, region.Arms} {
		if _, ok := regions[name]; !ok {
			t.Fatalf("region %s missing", name)
		}
	}
}

func TestDetectHunchedAnchorsToChest(t *testing.T) {
	rig := skeleton.New()
	root := rig.AddBone("Hips", -1, mathutil.TranslationMat4(mathutil.Vec3{0, 0.7, 0}))
	chest := rig.AddBone("Chest", root, mathutil.TranslationMat4(mathutil.Vec3{0, 0.2, 0}))
	shoulder := rig.AddBone("Shoulder_L", chest, mathutil.TranslationMat4(mathutil.Vec3{0.1, 0.15, 0}))
	rig.AddBone("Head", shoulder, mathutil.TranslationMat4(mathutil.Vec3{-0.1, 0.05, 0}))

	h := region.DefaultHeuristics()
	regions, err := region.Detect(avatar(), rig, h)
	if err != nil {
		t.Fatal(err)
	}

	// Head is only 0.05 above the shoulders: hunched, so the torso top is
	// the chest height plus the bias.
	want := 0.9 + h.ChestBias
	if got := regions[region.Torso].Max[1]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("hunched torso top %g, want %g", got, want)
	}
}

func TestDetectFallbackWithoutUpperBones(t *testing.T) {
	rig := skeleton.New()
	rig.AddBone("Root", -1, mathutil.Mat4Identity())

	h := region.DefaultHeuristics()
	regions, err := region.Detect(avatar(), rig, h)
	if err != nil {
		t.Fatal(err)
	}

	want := h.FallbackTopFrac * height
	if got := regions[region.Torso].Max[1]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("fallback torso top %g, want %g", got, want)
	}
}

func TestDetectRequiresSkeleton(t *testing.T) {
	_, err := region.Detect(avatar(), skeleton.New(), region.DefaultHeuristics())
	var missing *region.SkeletonMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("error %v, want *SkeletonMissingError", err)
	}
	if missing.Avatar != "avatar" {
		t.Fatalf("error names avatar %q", missing.Avatar)
	}
}

func TestDetectTorsoBoxExtents(t *testing.T) {
	rig := skeleton.NewHumanoid(height)
	h := region.DefaultHeuristics()
	regions, err := region.Detect(avatar(), rig, h)
	if err != nil {
		t.Fatal(err)
	}

	torso := regions[region.Torso]
	bounds := avatar().WorldBounds()
	wantW := bounds.Size()[0] * h.TorsoWidthFrac
	wantD := bounds.Size()[2] * h.TorsoDepthFrac
	if math.Abs(torso.Size()[0]-wantW) > 1e-9 {
		t.Fatalf("torso width %g, want %g", torso.Size()[0], wantW)
	}
	if math.Abs(torso.Size()[2]-wantD) > 1e-9 {
		t.Fatalf("torso depth %g, want %g", torso.Size()[2], wantD)
	}
}
