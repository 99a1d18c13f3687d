package mathutil

import "math"

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Mul multiplies component-wise.
func (a Vec3) Mul(b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Div divides component-wise. Components of b below 1e-12 pass the numerator
// through unchanged, so degenerate bone scales do not produce infinities.
func (a Vec3) Div(b Vec3) Vec3 {
	out := a
	for i := 0; i < 3; i++ {
		if math.Abs(b[i]) > 1e-12 {
			out[i] = a[i] / b[i]
		}
	}
	return out
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (a Vec3) Dist(b Vec3) float64 {
	return a.Sub(b).Len()
}

func (a Vec3) DistSqr(b Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Lerp interpolates from a toward b by t in [0, 1].
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// MaxComponent returns the largest component value and its axis index.
func (v Vec3) MaxComponent() (float64, int) {
	best, axis := v[0], 0
	if v[1] > best {
		best, axis = v[1], 1
	}
	if v[2] > best {
		best, axis = v[2], 2
	}
	return best, axis
}

// Abs returns the component-wise absolute value.
func (v Vec3) Abs() Vec3 {
	return Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}
