package mathutil

// PrincipalAxis returns the dominant eigenvector of the covariance matrix of
// a point set: the direction of greatest spread. Used to find the long axis
// of a weapon mesh regardless of authoring orientation. The sign of the
// returned axis is ambiguous (eigenvectors have no preferred direction).
func PrincipalAxis(points []Vec3) Vec3 {
	if len(points) < 2 {
		return Vec3{0, 0, 1}
	}

	var mean Vec3
	for _, p := range points {
		mean = mean.Add(p)
	}
	mean = mean.Scale(1 / float64(len(points)))

	// Symmetric covariance matrix, upper triangle
	var xx, xy, xz, yy, yz, zz float64
	for _, p := range points {
		d := p.Sub(mean)
		xx += d[0] * d[0]
		xy += d[0] * d[1]
		xz += d[0] * d[2]
		yy += d[1] * d[1]
		yz += d[1] * d[2]
		zz += d[2] * d[2]
	}
	cov := Mat3{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	}

	// Power iteration converges fast for the dominant eigenvalue; 32 rounds
	// is far beyond what any real mesh covariance needs.
	v := Vec3{1, 1, 1}.Normalize()
	for i := 0; i < 32; i++ {
		next := cov.MulVec3(v)
		l := next.Len()
		if l < 1e-18 {
			return Vec3{0, 0, 1}
		}
		next = next.Scale(1 / l)
		if next.Sub(v).Len() < 1e-12 {
			v = next
			break
		}
		v = next
	}
	return v
}
