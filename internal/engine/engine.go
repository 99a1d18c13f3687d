// Package engine orchestrates fitting, binding and attachment for equipment
// instances, tracking per-instance state explicitly instead of tagging
// renderable scene nodes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"avatar-fitter/internal/attach"
	"avatar-fitter/internal/binder"
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/shrinkwrap"
	"avatar-fitter/internal/skeleton"
)

// OpState is the operation state of one equipment instance.
type OpState int

const (
	StateIdle OpState = iota
	StateInProgress
	StateDone
)

func (s OpState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Status is a snapshot of an equipment instance's engine-owned state.
type Status struct {
	State          OpState
	Fitted         bool
	Bound          bool
	Attached       bool
	GripNormalized bool
}

// InProgressError rejects a second in-flight operation on one instance.
type InProgressError struct {
	Equipment string
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("engine: equipment %q already has an operation in progress", e.Equipment)
}

type record struct {
	Status
}

// Engine wires the fitting components together. All geometry work is
// synchronous call-and-return; the engine only guards that one instance is
// mutated by at most one operation at a time.
type Engine struct {
	log    *zap.Logger
	fitter *shrinkwrap.Fitter
	binder *binder.Binder
	solver *attach.Solver

	mu      sync.Mutex
	records map[string]*record
}

func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:     log,
		fitter:  shrinkwrap.New(log),
		binder:  binder.New(log),
		solver:  attach.NewSolver(log),
		records: make(map[string]*record),
	}
}

// Status reports the tracked state of an equipment instance.
func (e *Engine) Status(id string) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.records[id]; ok {
		return r.Status
	}
	return Status{}
}

func (e *Engine) begin(id string) (*record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.records[id]
	if !ok {
		r = &record{}
		e.records[id] = r
	}
	if r.State == StateInProgress {
		return nil, &InProgressError{Equipment: id}
	}
	r.State = StateInProgress
	return r, nil
}

func (e *Engine) finish(r *record, apply func(*record)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if apply != nil {
		apply(r)
	}
	r.State = StateDone
}

// Fit shrinkwraps the equipment mesh onto the target surface.
func (e *Engine) Fit(ctx context.Context, id string, equipment, target *geom.Mesh, cfg shrinkwrap.Config) (shrinkwrap.Report, error) {
	r, err := e.begin(id)
	if err != nil {
		return shrinkwrap.Report{}, err
	}
	report, err := e.fitter.Fit(ctx, equipment, target, cfg)
	e.finish(r, func(r *record) { r.Fitted = err == nil })
	if err != nil {
		return report, fmt.Errorf("engine: fit %q: %w", id, err)
	}
	return report, nil
}

// Bind re-skins the equipment mesh to the avatar skeleton so it moves with
// the rig.
func (e *Engine) Bind(id string, equipment *geom.Mesh, skel *skeleton.Skeleton, searchRadius float64, applyGeometryTransform bool) error {
	r, err := e.begin(id)
	if err != nil {
		return err
	}
	err = e.binder.Bind(equipment, skel, searchRadius, applyGeometryTransform)
	e.finish(r, func(r *record) { r.Bound = err == nil })
	if err != nil {
		return fmt.Errorf("engine: bind %q: %w", id, err)
	}
	return nil
}

// Attach computes the equipment's bone-relative transform. A supplied grip
// point is normalized into the mesh exactly once per instance, keeping
// repeated attaches idempotent. When no bone matches the slot the equipment
// is attached to the skeleton root and usedRootFallback is true — callers
// must surface that as a warning requiring confirmation.
func (e *Engine) Attach(id string, req attach.Request, grip *mathutil.Vec3) (t attach.Transform, usedRootFallback bool, err error) {
	r, err := e.begin(id)
	if err != nil {
		return attach.Transform{}, false, err
	}
	defer func() {
		e.finish(r, func(r *record) { r.Attached = err == nil })
	}()

	if grip != nil && !r.GripNormalized {
		attach.NormalizeGrip(req.Equipment, *grip)
		e.mu.Lock()
		r.GripNormalized = true
		e.mu.Unlock()
	}

	t, err = e.solver.Solve(req)
	var bnf *attach.BoneNotFoundError
	if errors.As(err, &bnf) {
		root := req.Skeleton.Root()
		if root < 0 {
			return attach.Transform{}, false, err
		}
		e.log.Warn("attachment slot unresolved, falling back to skeleton root",
			zap.String("equipment", id),
			zap.String("slot", req.Slot.String()),
		)
		return e.solver.SolveAtBone(req, root), true, nil
	}
	if err != nil {
		return attach.Transform{}, false, fmt.Errorf("engine: attach %q: %w", id, err)
	}
	return t, false, nil
}
