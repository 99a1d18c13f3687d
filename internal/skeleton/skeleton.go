package skeleton

import (
	"strings"

	"avatar-fitter/internal/mathutil"
)

// Bone is one joint in the hierarchy. Local is the transform relative to the
// parent; Parent is an index into the owning skeleton's bone list, -1 for the
// root.
type Bone struct {
	Name   string
	Parent int
	Local  mathutil.Mat4
}

// Skeleton owns an ordered bone list. Parents always precede children, so
// world transforms resolve in a single forward pass. World matrices are
// cached and invalidated when a local transform changes.
type Skeleton struct {
	Bones []Bone

	worlds []mathutil.Mat4
	dirty  bool
}

func New() *Skeleton {
	return &Skeleton{dirty: true}
}

// AddBone appends a bone and returns its index. parent must be -1 or a
// previously added index.
func (s *Skeleton) AddBone(name string, parent int, local mathutil.Mat4) int {
	s.Bones = append(s.Bones, Bone{Name: name, Parent: parent, Local: local})
	s.dirty = true
	return len(s.Bones) - 1
}

func (s *Skeleton) Len() int {
	return len(s.Bones)
}

// Root returns the index of the first parentless bone, or -1.
func (s *Skeleton) Root() int {
	for i, b := range s.Bones {
		if b.Parent < 0 {
			return i
		}
	}
	return -1
}

// SetLocal replaces a bone's local transform and invalidates the world cache.
func (s *Skeleton) SetLocal(i int, local mathutil.Mat4) {
	s.Bones[i].Local = local
	s.dirty = true
}

// WorldMatrices computes the world transform of every bone by chaining local
// transforms down the parent hierarchy.
func (s *Skeleton) WorldMatrices() []mathutil.Mat4 {
	if !s.dirty && s.worlds != nil {
		return s.worlds
	}
	worlds := make([]mathutil.Mat4, len(s.Bones))
	for i, bone := range s.Bones {
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = mathutil.Mat4Mul(worlds[bone.Parent], bone.Local)
		} else {
			worlds[i] = bone.Local
		}
	}
	s.worlds = worlds
	s.dirty = false
	return worlds
}

func (s *Skeleton) WorldMatrix(i int) mathutil.Mat4 {
	return s.WorldMatrices()[i]
}

func (s *Skeleton) WorldPosition(i int) mathutil.Vec3 {
	return s.WorldMatrix(i).Translation()
}

// WorldScale returns the per-axis world scale of bone i. Rig exporters bake
// arbitrary, sometimes non-uniform scales into bone chains; attachment math
// divides by this to stay placement-invariant.
func (s *Skeleton) WorldScale(i int) mathutil.Vec3 {
	return s.WorldMatrix(i).ScaleFactors()
}

// Find returns the index of the bone whose name matches exactly
// (case-insensitive), or -1.
func (s *Skeleton) Find(name string) int {
	for i, b := range s.Bones {
		if strings.EqualFold(b.Name, name) {
			return i
		}
	}
	return -1
}

// FindSubstring returns the first bone whose name contains the query or is
// contained by it, case-insensitive, or -1.
func (s *Skeleton) FindSubstring(query string) int {
	q := strings.ToLower(query)
	for i, b := range s.Bones {
		n := strings.ToLower(b.Name)
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return i
		}
	}
	return -1
}
