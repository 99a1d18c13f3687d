package skeleton

import "avatar-fitter/internal/mathutil"

// NewHumanoid builds a minimal humanoid rig scaled to the given avatar
// height: hips, two spine links, clavicles, arms with hands, neck and head,
// legs. Bone placement follows common biped export conventions so the
// name-based detectors exercise the same paths as production rigs.
func NewHumanoid(height float64) *Skeleton {
	s := New()

	at := func(x, y, z float64) mathutil.Mat4 {
		return mathutil.TranslationMat4(mathutil.Vec3{x * height, y * height, z * height})
	}
	// Local transforms are parent-relative; the fractions below are the
	// world heights each joint lands at.
	root := s.AddBone("Hips", -1, at(0, 0.40, 0))
	spine1 := s.AddBone("Spine01", root, at(0, 0.07, 0))
	spine2 := s.AddBone("Spine02", spine1, at(0, 0.07, 0))

	clavL := s.AddBone("Clavicle_L", spine2, at(0.04, 0.04, 0))
	clavR := s.AddBone("Clavicle_R", spine2, at(-0.04, 0.04, 0))
	armL := s.AddBone("UpperArm_L", clavL, at(0.08, 0, 0))
	armR := s.AddBone("UpperArm_R", clavR, at(-0.08, 0, 0))
	foreL := s.AddBone("LowerArm_L", armL, at(0.12, 0, 0))
	foreR := s.AddBone("LowerArm_R", armR, at(-0.12, 0, 0))
	s.AddBone("Hand_L", foreL, at(0.1, 0, 0))
	s.AddBone("Hand_R", foreR, at(-0.1, 0, 0))

	neck := s.AddBone("Neck", spine2, at(0, 0.12, 0))
	head := s.AddBone("Head", neck, at(0, 0.04, 0))
	s.AddBone("Head_End", head, at(0, 0.06, 0))

	legL := s.AddBone("UpperLeg_L", root, at(0.06, -0.04, 0))
	legR := s.AddBone("UpperLeg_R", root, at(-0.06, -0.04, 0))
	shinL := s.AddBone("LowerLeg_L", legL, at(0, -0.17, 0))
	shinR := s.AddBone("LowerLeg_R", legR, at(0, -0.17, 0))
	s.AddBone("Foot_L", shinL, at(0, -0.15, 0))
	s.AddBone("Foot_R", shinR, at(0, -0.15, 0))

	return s
}
