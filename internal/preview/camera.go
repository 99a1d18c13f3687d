package preview

import (
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
)

// Camera is an orthographic turntable camera. Angles in degrees.
type Camera struct {
	YawDeg   float64
	PitchDeg float64
	// FillRatio is the fraction of the frame the scene's longest extent
	// spans. Defaults to 0.9 when zero.
	FillRatio float64
}

func (c Camera) rotation() mathutil.Mat3 {
	return mathutil.Mat3Mul(
		mathutil.RotX(mathutil.Deg2Rad(c.PitchDeg)),
		mathutil.RotY(mathutil.Deg2Rad(c.YawDeg)),
	)
}

// frame computes the view-space center and pixel scale framing the given
// world-space bounds.
func (c Camera) frame(bounds geom.Box, size int) (mathutil.Mat3, mathutil.Vec3, float64) {
	rot := c.rotation()

	// View-space bounds of the world box corners.
	vb := geom.EmptyBox()
	mn, mx := bounds.Min, bounds.Max
	for _, x := range [2]float64{mn[0], mx[0]} {
		for _, y := range [2]float64{mn[1], mx[1]} {
			for _, z := range [2]float64{mn[2], mx[2]} {
				vb.Extend(rot.MulVec3(mathutil.Vec3{x, y, z}))
			}
		}
	}

	fill := c.FillRatio
	if fill <= 0 {
		fill = 0.9
	}
	extent, _ := vb.Size().MaxComponent()
	if extent < 1e-9 {
		extent = 1
	}
	scale := float64(size) * fill / extent
	return rot, vb.Center(), scale
}

// project transforms world positions to screen coordinates. Returns px, py
// (pixels) and pz (view depth, larger = nearer).
func project(positions []mathutil.Vec3, rot mathutil.Mat3, center mathutil.Vec3, scale float64, size int) (px, py, pz []float64) {
	n := len(positions)
	px = make([]float64, n)
	py = make([]float64, n)
	pz = make([]float64, n)
	half := float64(size) / 2
	for i, p := range positions {
		t := rot.MulVec3(p)
		px[i] = (t[0]-center[0])*scale + half
		py[i] = -(t[1]-center[1])*scale + half
		pz[i] = t[2]
	}
	return px, py, pz
}
