package attach

import (
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
)

// NormalizeGrip rewrites the weapon mesh so the detected grip point sits at
// the local origin, decoupling all downstream placement math from the mesh's
// authoring conventions. Returns the grip point in mesh-local space as it
// was before the translation.
//
// Grip detection works in a Z-long convention: when the weapon's long axis
// differs from its authored axis the detected point arrives rotated, so it
// is swizzled onto the actual long axis first. If the transformed point then
// lies on the blade side of the handle it is mirrored across the mesh
// center.
func NormalizeGrip(m *geom.Mesh, detected mathutil.Vec3) mathutil.Vec3 {
	bounds := m.Bounds()
	center := bounds.Center()

	// The long axis comes from the vertex mass distribution, so a wide
	// crossguard or pommel cannot out-vote the blade the way raw bounding
	// extents can.
	_, axis := mathutil.PrincipalAxis(m.Positions).Abs().MaxComponent()

	// Detection space assumes the long axis is Z; map its Z component onto
	// the mesh's actual long axis.
	local := detected
	switch axis {
	case 0:
		local = mathutil.Vec3{detected[2], detected[1], detected[0]}
	case 1:
		local = mathutil.Vec3{detected[0], detected[2], detected[1]}
	}

	// The grip belongs on the handle end: the negative half of the long
	// axis. A point on the wrong side gets mirrored across the center.
	if local[axis]-center[axis] > 0 {
		local[axis] = 2*center[axis] - local[axis]
	}

	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].Sub(local)
	}
	return local
}
