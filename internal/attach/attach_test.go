package attach_test

import (
	"errors"
	"testing"

	"avatar-fitter/internal/attach"
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/skeleton"
)

func handRig() *skeleton.Skeleton {
	s := skeleton.New()
	root := s.AddBone("Hips", -1, mathutil.Mat4Identity())
	spine := s.AddBone("Spine02", root, mathutil.TranslationMat4(mathutil.Vec3{0, 0.3, 0}))
	s.AddBone("Head", spine, mathutil.TranslationMat4(mathutil.Vec3{0, 0.3, 0}))
	s.AddBone("Hand_R", spine, mathutil.TranslationMat4(mathutil.Vec3{-0.5, 0, 0}))
	s.AddBone("Hand_L", spine, mathutil.TranslationMat4(mathutil.Vec3{0.5, 0, 0}))
	return s
}

func TestResolveBone(t *testing.T) {
	rig := handRig()

	cases := []struct {
		slot attach.Slot
		want string
	}{
		{attach.SlotHandRight, "Hand_R"},
		{attach.SlotHandLeft, "Hand_L"},
		{attach.SlotHead, "Head"},
		{attach.SlotChest, "Spine02"},
		{attach.SlotHips, "Hips"},
	}
	for _, tc := range cases {
		i, err := attach.ResolveBone(rig, tc.slot)
		if err != nil {
			t.Fatalf("slot %s: %v", tc.slot, err)
		}
		if got := rig.Bones[i].Name; got != tc.want {
			t.Fatalf("slot %s resolved to %s, want %s", tc.slot, got, tc.want)
		}
	}
}

func TestResolveBoneSubstringFallback(t *testing.T) {
	// Exact aliases miss; substring containment must still find the bone.
	s := skeleton.New()
	s.AddBone("Armature_RightHandIndex", -1, mathutil.Mat4Identity())
	i, err := attach.ResolveBone(s, attach.SlotHandRight)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 {
		t.Fatalf("resolved to %d, want 0", i)
	}
}

func TestResolveBoneNotFound(t *testing.T) {
	s := skeleton.New()
	s.AddBone("Tail", -1, mathutil.Mat4Identity())

	_, err := attach.ResolveBone(s, attach.SlotHandRight)
	var bnf *attach.BoneNotFoundError
	if !errors.As(err, &bnf) {
		t.Fatalf("error %v, want *BoneNotFoundError", err)
	}
	if bnf.Slot != attach.SlotHandRight {
		t.Fatalf("error names slot %s", bnf.Slot)
	}
}

func TestNormalizeGripZLong(t *testing.T) {
	// Blade along Z, 2 units long, grip near the negative end.
	sword := geom.NewBox("sword", mathutil.Vec3{0.1, 0.1, 2})
	grip := mathutil.Vec3{0, 0, -0.9}

	local := attach.NormalizeGrip(sword, grip)
	if local.Dist(grip) > 1e-9 {
		t.Fatalf("detected grip remapped to %v, want %v unchanged", local, grip)
	}

	// The grip point now sits at the origin, so the bounds shift by +0.9.
	b := sword.Bounds()
	if absDiff(b.Min[2], -0.1) > 1e-6 || absDiff(b.Max[2], 1.9) > 1e-6 {
		t.Fatalf("bounds after normalization [%g, %g], want [-0.1, 1.9]", b.Min[2], b.Max[2])
	}
}

func TestNormalizeGripSwizzlesAxis(t *testing.T) {
	// The weapon is authored long along Y, but detection reports the grip in
	// a Z-long convention.
	sword := geom.NewBox("sword", mathutil.Vec3{0.1, 2, 0.1})
	local := attach.NormalizeGrip(sword, mathutil.Vec3{0, 0, -0.9})

	if local.Dist(mathutil.Vec3{0, -0.9, 0}) > 1e-9 {
		t.Fatalf("swizzled grip %v, want (0,-0.9,0)", local)
	}
	b := sword.Bounds()
	if absDiff(b.Min[1], -0.1) > 1e-6 || absDiff(b.Max[1], 1.9) > 1e-6 {
		t.Fatalf("bounds after normalization [%g, %g], want [-0.1, 1.9]", b.Min[1], b.Max[1])
	}
}

func TestNormalizeGripFollowsMassDistribution(t *testing.T) {
	// Blade along Y with a crossguard wider than the blade is long: the
	// bounding box is X-long, but the vertex spread is still along Y.
	sword := geom.NewMesh("sword")
	for i := -20; i <= 20; i++ {
		sword.Positions = append(sword.Positions, mathutil.Vec3{0, float64(i) * 0.05, 0})
	}
	sword.Positions = append(sword.Positions,
		mathutil.Vec3{-1.2, 0.5, 0}, mathutil.Vec3{1.2, 0.5, 0})

	local := attach.NormalizeGrip(sword, mathutil.Vec3{0, 0, -0.45})
	if local.Dist(mathutil.Vec3{0, -0.45, 0}) > 1e-9 {
		t.Fatalf("grip %v, want swizzled onto Y as (0,-0.45,0)", local)
	}
}

func TestNormalizeGripMirrorsWrongSide(t *testing.T) {
	// A grip detected on the blade side gets mirrored onto the handle side.
	sword := geom.NewBox("sword", mathutil.Vec3{0.1, 0.1, 2})
	local := attach.NormalizeGrip(sword, mathutil.Vec3{0, 0, 0.9})

	if local.Dist(mathutil.Vec3{0, 0, -0.9}) > 1e-9 {
		t.Fatalf("mirrored grip %v, want (0,0,-0.9)", local)
	}
}

func TestSolveIdempotent(t *testing.T) {
	req := attach.Request{
		Slot:         attach.SlotHandRight,
		Skeleton:     handRig(),
		Category:     attach.CategorySword,
		AvatarHeight: 1.8,
		Equipment:    geom.NewBox("sword", mathutil.Vec3{0.1, 0.1, 2}),
	}
	solver := attach.NewSolver(nil)

	a, err := solver.Solve(req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := solver.Solve(req)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("repeated solves differ: %+v vs %+v", a, b)
	}
}

func TestSolveScaleCompensation(t *testing.T) {
	// Two rigs placing the hand at the same world position, one with a 2×
	// scale baked into the root. Final world placement must match.
	plain := skeleton.New()
	pr := plain.AddBone("Root", -1, mathutil.Mat4Identity())
	plain.AddBone("Hand_R", pr, mathutil.TranslationMat4(mathutil.Vec3{1, 0, 0}))

	scaled := skeleton.New()
	sr := scaled.AddBone("Root", -1, mathutil.ScaleMat4(mathutil.Vec3{2, 2, 2}))
	scaled.AddBone("Hand_R", sr, mathutil.TranslationMat4(mathutil.Vec3{0.5, 0, 0}))

	sword := geom.NewBox("sword", mathutil.Vec3{0.1, 0.1, 2})
	mkReq := func(s *skeleton.Skeleton) attach.Request {
		return attach.Request{
			Slot:         attach.SlotHandRight,
			Skeleton:     s,
			Category:     attach.CategorySword,
			AvatarHeight: 1.8,
			Equipment:    sword,
		}
	}
	solver := attach.NewSolver(nil)

	ta, err := solver.Solve(mkReq(plain))
	if err != nil {
		t.Fatal(err)
	}
	tb, err := solver.Solve(mkReq(scaled))
	if err != nil {
		t.Fatal(err)
	}

	wa := ta.WorldMatrix(plain)
	wb := tb.WorldMatrix(scaled)
	for _, p := range []mathutil.Vec3{{0, 0, 0}, {0, 0, 1}, {0.3, -0.2, 0.5}} {
		da := wa.MulPoint(p)
		db := wb.MulPoint(p)
		if da.Dist(db) > 1e-4 {
			t.Fatalf("point %v lands at %v vs %v across rigs", p, da, db)
		}
	}
}

func TestSolveProportionClamped(t *testing.T) {
	// Giant avatar: target length must clamp at the category maximum.
	req := attach.Request{
		Slot:         attach.SlotHandRight,
		Skeleton:     handRig(),
		Category:     attach.CategoryDagger,
		AvatarHeight: 50,
		Equipment:    geom.NewBox("dagger", mathutil.Vec3{0.05, 0.05, 1}),
	}
	tr, err := attach.NewSolver(nil).Solve(req)
	if err != nil {
		t.Fatal(err)
	}
	// Raw length 1, so the uniform scale equals the clamped target length.
	if absDiff(tr.Scale[2], 0.55) > 1e-9 {
		t.Fatalf("scale %g, want clamp at 0.55", tr.Scale[2])
	}
}

func TestSolveManualOffsets(t *testing.T) {
	base := attach.Request{
		Slot:         attach.SlotHandRight,
		Skeleton:     handRig(),
		Category:     attach.CategorySword,
		AvatarHeight: 1.8,
		Equipment:    geom.NewBox("sword", mathutil.Vec3{0.1, 0.1, 2}),
	}
	solver := attach.NewSolver(nil)

	plain, err := solver.Solve(base)
	if err != nil {
		t.Fatal(err)
	}

	offset := base
	offset.ManualPositionOffset = mathutil.Vec3{0, 0.1, 0}
	moved, err := solver.Solve(offset)
	if err != nil {
		t.Fatal(err)
	}

	if moved.Position.Sub(plain.Position).Dist(mathutil.Vec3{0, 0.1, 0}) > 1e-9 {
		t.Fatalf("manual offset shifted position by %v", moved.Position.Sub(plain.Position))
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
