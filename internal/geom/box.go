package geom

import (
	"math"

	"avatar-fitter/internal/mathutil"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mathutil.Vec3
}

// EmptyBox returns an inverted box that Extend can grow from.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: mathutil.Vec3{inf, inf, inf},
		Max: mathutil.Vec3{-inf, -inf, -inf},
	}
}

func (b *Box) Extend(p mathutil.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b Box) Center() mathutil.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b Box) Size() mathutil.Vec3 {
	return b.Max.Sub(b.Min)
}

// Diagonal is the length of the box diagonal.
func (b Box) Diagonal() float64 {
	return b.Size().Len()
}

// LongestAxis returns the extent and axis index of the largest dimension.
func (b Box) LongestAxis() (float64, int) {
	return b.Size().MaxComponent()
}

func (b Box) Contains(p mathutil.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the box never had a point extended into it.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0]
}
