package shrinkwrap

// MaxIterations bounds runtime regardless of caller configuration.
const MaxIterations = 10

// Config is a pure value object; one instance per fitting call.
type Config struct {
	// Iterations of vertex projection to run. Values above MaxIterations
	// are clamped; zero or negative selects the default.
	Iterations int

	// StepSize is the fraction of the distance to the desired position a
	// vertex moves per iteration. Under-relaxation prevents overshoot and
	// oscillation.
	StepSize float64

	// TargetOffset is the clearance kept along the target surface normal,
	// preventing z-fighting at exact contact.
	TargetOffset float64

	// SampleRate selects the active vertex subset: 1.0 fits every vertex,
	// lower values fit a stable pseudo-random subset (the same subset for
	// every iteration of a run).
	SampleRate float64

	// SmoothingStrength blends each vertex toward the average of its
	// neighbors after the last iteration: 0 = off, 1 = full average.
	// SmoothingRadius limits which neighbors participate.
	SmoothingStrength float64
	SmoothingRadius   float64

	// PreserveFeatures skips vertices adjacent to edges sharper than
	// FeatureAngleThreshold (degrees), keeping straps and rims crisp.
	PreserveFeatures      bool
	FeatureAngleThreshold float64

	// PreserveOpenings skips vertices on open boundary loops so garment
	// openings do not collapse shut.
	PreserveOpenings bool

	// PushInteriorVertices moves vertices found inside the target outward
	// along their normal instead of toward the nearest surface point,
	// preventing clip-through on concave regions.
	PushInteriorVertices bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Iterations:            8,
		StepSize:              0.15,
		TargetOffset:          0.05,
		SampleRate:            1.0,
		SmoothingStrength:     0.3,
		SmoothingRadius:       0.2,
		PreserveOpenings:      true,
		PushInteriorVertices:  true,
		FeatureAngleThreshold: 45,
	}
}

// Report summarizes a fitting run. Partial convergence is an expected,
// reportable outcome, not a failure.
type Report struct {
	VerticesMoved   int
	VerticesSkipped int
	Iterations      int
}
