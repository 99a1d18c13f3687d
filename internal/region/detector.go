// Package region classifies a skinned avatar into anatomical zones using
// skeleton bone positions and the avatar's bounding box.
package region

import (
	"fmt"
	"strings"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/skeleton"
)

// Name identifies an anatomical zone.
type Name string

const (
	Head  Name = "head"
	Torso Name = "torso"
	Arms  Name = "arms"
	Legs  Name = "legs"
	Hips  Name = "hips"
)

// SkeletonMissingError reports a detection attempt against an avatar with no
// usable skeleton.
type SkeletonMissingError struct {
	Avatar string
}

func (e *SkeletonMissingError) Error() string {
	return fmt.Sprintf("region: avatar %q has no skeleton bones", e.Avatar)
}

// Heuristics holds the empirically tuned constants of the detector. They are
// rig-dependent approximations, kept configurable rather than hard-coded.
type Heuristics struct {
	// HunchedDelta is the head-to-shoulder vertical distance (world units)
	// below which the rig is treated as hunched and the torso top anchors
	// to the chest instead of the shoulders.
	HunchedDelta float64
	// ChestBias is added to the chest height when it anchors the torso top.
	ChestBias float64
	// TorsoBottomFrac of total height above the bounding-box floor marks
	// the torso bottom. Hip bone placement varies too much across rigs to
	// be bone-derived.
	TorsoBottomFrac float64
	// FallbackTopFrac of total height marks the torso top when no shoulder
	// or chest bones exist.
	FallbackTopFrac float64
	// TorsoWidthFrac / TorsoDepthFrac size the torso box relative to the
	// avatar bounding box.
	TorsoWidthFrac float64
	TorsoDepthFrac float64
}

// DefaultHeuristics returns the tuned defaults.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		HunchedDelta:    0.1,
		ChestBias:       0.05,
		TorsoBottomFrac: 0.15,
		FallbackTopFrac: 0.60,
		TorsoWidthFrac:  0.60,
		TorsoDepthFrac:  0.50,
	}
}

// Detect classifies the avatar into body regions. The result is produced
// fresh per call, never mutated afterwards, and is deterministic for
// identical mesh + skeleton input.
func Detect(avatar *geom.Mesh, skel *skeleton.Skeleton, h Heuristics) (map[Name]geom.Box, error) {
	if skel == nil || skel.Len() == 0 {
		return nil, &SkeletonMissingError{Avatar: avatar.Name}
	}
	if err := avatar.Validate(); err != nil {
		return nil, err
	}

	bounds := avatar.WorldBounds()
	height := bounds.Size()[1]
	center := bounds.Center()

	// Scan bone world positions by name.
	headY, shoulderY, chestY := 0.0, 0.0, 0.0
	hasHead, hasShoulder, hasChest := false, false, false
	for i, b := range skel.Bones {
		n := strings.ToLower(b.Name)
		y := skel.WorldPosition(i)[1]
		switch {
		case strings.Contains(n, "head") && !strings.Contains(n, "end"):
			if !hasHead || y > headY {
				headY, hasHead = y, true
			}
		case strings.Contains(n, "shoulder") || strings.Contains(n, "clavicle"):
			if !hasShoulder || y > shoulderY {
				shoulderY, hasShoulder = y, true
			}
		case strings.Contains(n, "chest") || strings.Contains(n, "spine02"):
			if !hasChest || y > chestY {
				chestY, hasChest = y, true
			}
		}
	}

	torsoBottom := bounds.Min[1] + h.TorsoBottomFrac*height

	var torsoTop float64
	switch {
	case !hasShoulder && !hasChest:
		// Purely proportional fallback rather than failing.
		torsoTop = bounds.Min[1] + h.FallbackTopFrac*height
	case hasHead && hasShoulder && headY-shoulderY < h.HunchedDelta:
		// Hunched anatomy: the shoulders sit nearly at head height, so
		// anchor to the chest instead.
		if hasChest {
			torsoTop = chestY + h.ChestBias
		} else {
			torsoTop = shoulderY
		}
	case hasShoulder:
		torsoTop = shoulderY
	default:
		torsoTop = chestY + h.ChestBias
	}

	halfW := bounds.Size()[0] * h.TorsoWidthFrac / 2
	halfD := bounds.Size()[2] * h.TorsoDepthFrac / 2

	torso := geom.Box{
		Min: mathutil.Vec3{center[0] - halfW, torsoBottom, center[2] - halfD},
		Max: mathutil.Vec3{center[0] + halfW, torsoTop, center[2] + halfD},
	}

	regions := map[Name]geom.Box{
		Torso: torso,
		Head: {
			Min: mathutil.Vec3{center[0] - halfW*0.7, torsoTop, center[2] - halfD*0.7},
			Max: mathutil.Vec3{center[0] + halfW*0.7, bounds.Max[1], center[2] + halfD*0.7},
		},
		Hips: {
			Min: mathutil.Vec3{center[0] - halfW, torsoBottom - 0.08*height, center[2] - halfD},
			Max: mathutil.Vec3{center[0] + halfW, torsoBottom + 0.08*height, center[2] + halfD},
		},
		Legs: {
			Min: mathutil.Vec3{center[0] - halfW, bounds.Min[1], center[2] - halfD},
			Max: mathutil.Vec3{center[0] + halfW, torsoBottom, center[2] + halfD},
		},
		Arms: {
			Min: mathutil.Vec3{bounds.Min[0], torsoBottom, bounds.Min[2]},
			Max: mathutil.Vec3{bounds.Max[0], torsoTop, bounds.Max[2]},
		},
	}
	return regions, nil
}
