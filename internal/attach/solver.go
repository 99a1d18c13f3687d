package attach

import (
	"fmt"

	"go.uber.org/zap"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/skeleton"
)

// Transform places equipment relative to the resolved bone's local space.
// It is recomputed from scratch on every solve, never incrementally updated.
type Transform struct {
	Bone     int
	Position mathutil.Vec3
	Rotation mathutil.Quat
	Scale    mathutil.Vec3
}

// LocalMatrix composes the transform into the wrapper-local matrix.
func (t Transform) LocalMatrix() mathutil.Mat4 {
	return mathutil.ComposeTRS(t.Position, t.Rotation, t.Scale)
}

// WorldMatrix composes bone world × wrapper local, the full placement of the
// equipment mesh under the skeleton.
func (t Transform) WorldMatrix(skel *skeleton.Skeleton) mathutil.Mat4 {
	return mathutil.Mat4Mul(skel.WorldMatrix(t.Bone), t.LocalMatrix())
}

// Request carries everything a solve needs. Solve reads but never mutates
// its inputs; grip normalization is a separate, one-time step
// (NormalizeGrip) run before the first solve.
type Request struct {
	Slot     Slot
	Skeleton *skeleton.Skeleton
	Category Category

	ManualPositionOffset    mathutil.Vec3
	ManualRotationOffsetDeg mathutil.Vec3

	AvatarHeight float64
	Equipment    *geom.Mesh
}

// Solver computes attachment transforms. Pure given its inputs: repeated
// solves with identical arguments produce identical output, so callers can
// recompute on every slot switch or offset change without drift.
type Solver struct {
	log *zap.Logger
}

func NewSolver(log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{log: log}
}

// Solve resolves the slot bone and computes the scale-compensated transform.
func (s *Solver) Solve(req Request) (Transform, error) {
	if err := validate(req); err != nil {
		return Transform{}, err
	}
	boneIdx, err := ResolveBone(req.Skeleton, req.Slot)
	if err != nil {
		return Transform{}, err
	}
	out := s.SolveAtBone(req, boneIdx)
	s.log.Debug("attachment solved",
		zap.String("slot", req.Slot.String()),
		zap.String("category", req.Category.String()),
		zap.String("bone", req.Skeleton.Bones[boneIdx].Name),
	)
	return out, nil
}

// SolveAtBone computes the transform against an explicitly chosen bone,
// bypassing alias resolution. Used for the root-attachment fallback when no
// slot bone exists.
func (s *Solver) SolveAtBone(req Request, boneIdx int) Transform {
	spec := req.Category.spec()
	boneScale := req.Skeleton.WorldScale(boneIdx)

	// All position offsets are expressed in world units; dividing by the
	// bone's world scale makes the final placement invariant to rig-specific
	// (possibly non-uniform) bone scaling.
	position := spec.offset.Add(req.ManualPositionOffset).Div(boneScale)

	rotDeg := spec.rotationDeg.Add(req.ManualRotationOffsetDeg)
	rotation := mathutil.EulerToQuat(
		mathutil.Deg2Rad(rotDeg[0]),
		mathutil.Deg2Rad(rotDeg[1]),
		mathutil.Deg2Rad(rotDeg[2]),
	)

	targetLength := req.AvatarHeight * spec.proportion
	if targetLength < spec.minLength {
		targetLength = spec.minLength
	}
	if targetLength > spec.maxLength {
		targetLength = spec.maxLength
	}
	rawLength, _ := req.Equipment.Bounds().LongestAxis()
	if rawLength < 1e-9 {
		rawLength = 1
	}
	uniform := targetLength / rawLength
	scale := mathutil.Vec3{uniform, uniform, uniform}.Div(boneScale)

	return Transform{
		Bone:     boneIdx,
		Position: position,
		Rotation: rotation,
		Scale:    scale,
	}
}

func validate(req Request) error {
	if req.Skeleton == nil || req.Skeleton.Len() == 0 {
		return fmt.Errorf("attach: slot %s: skeleton has no bones", req.Slot)
	}
	if req.Equipment == nil || req.Equipment.VertexCount() == 0 {
		return &geom.InvalidMeshError{Name: "equipment", Reason: "no vertices"}
	}
	return nil
}
