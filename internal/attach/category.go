package attach

import (
	"fmt"

	"avatar-fitter/internal/mathutil"
)

// Category selects the placement defaults for a piece of equipment.
type Category int

const (
	CategorySword Category = iota
	CategoryDagger
	CategoryMace
	CategorySpear
	CategoryStaff
	CategoryBow
	CategoryShield
	CategoryHelmet
)

func (c Category) String() string {
	switch c {
	case CategorySword:
		return "sword"
	case CategoryDagger:
		return "dagger"
	case CategoryMace:
		return "mace"
	case CategorySpear:
		return "spear"
	case CategoryStaff:
		return "staff"
	case CategoryBow:
		return "bow"
	case CategoryShield:
		return "shield"
	case CategoryHelmet:
		return "helmet"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// categorySpec holds per-category placement defaults: a base offset in bone
// local space (world units, before bone-scale compensation), a default
// rotation (Euler XYZ degrees, applied X then Y then Z), and the target
// world length as a proportion of avatar height with clamps for extreme
// avatar sizes.
type categorySpec struct {
	offset      mathutil.Vec3
	rotationDeg mathutil.Vec3
	proportion  float64
	minLength   float64
	maxLength   float64
}

var categories = map[Category]categorySpec{
	// Blades align with the hand's forward axis via the ~92° tilt.
	CategorySword:  {mathutil.Vec3{0.02, 0, 0.04}, mathutil.Vec3{92, 0, 0}, 0.65, 0.30, 1.40},
	CategoryDagger: {mathutil.Vec3{0.015, 0, 0.03}, mathutil.Vec3{92, 0, 0}, 0.25, 0.12, 0.55},
	CategoryMace:   {mathutil.Vec3{0.02, 0, 0.04}, mathutil.Vec3{92, 0, 0}, 0.50, 0.25, 1.00},
	CategorySpear:  {mathutil.Vec3{0.02, 0, 0.06}, mathutil.Vec3{92, 0, 0}, 1.10, 0.60, 2.20},
	CategoryStaff:  {mathutil.Vec3{0.02, 0, 0.06}, mathutil.Vec3{92, 0, 0}, 1.10, 0.60, 2.20},
	CategoryBow:    {mathutil.Vec3{0, 0, 0.08}, mathutil.Vec3{0, 90, 0}, 0.80, 0.40, 1.60},
	CategoryShield: {mathutil.Vec3{0.06, 0, 0}, mathutil.Vec3{0, 0, 0}, 0.45, 0.25, 1.00},
	CategoryHelmet: {mathutil.Vec3{0, 0.02, 0}, mathutil.Vec3{0, 0, 0}, 0.16, 0.08, 0.35},
}

// spec returns the category defaults, falling back to sword for unknown
// values so a miswired category still produces a visible placement.
func (c Category) spec() categorySpec {
	if s, ok := categories[c]; ok {
		return s
	}
	return categories[CategorySword]
}
