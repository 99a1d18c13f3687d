// Package attach resolves attachment bones and computes bone-relative,
// scale-compensated equipment transforms.
package attach

import (
	"fmt"

	"avatar-fitter/internal/skeleton"
)

// Slot is a closed set of attachment points on the avatar.
type Slot int

const (
	SlotHead Slot = iota
	SlotChest
	SlotHips
	SlotHandLeft
	SlotHandRight
)

func (s Slot) String() string {
	switch s {
	case SlotHead:
		return "head"
	case SlotChest:
		return "chest"
	case SlotHips:
		return "hips"
	case SlotHandLeft:
		return "hand_left"
	case SlotHandRight:
		return "hand_right"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// slotAliases maps each slot to bone-name aliases in resolution order, most
// specific first. Internal configuration, not part of the public contract.
var slotAliases = map[Slot][]string{
	SlotHead: {
		"mixamorig:head", "bip01 head", "head", "neck",
	},
	SlotChest: {
		"spine02", "upperchest", "chest", "spine2", "spine",
	},
	SlotHips: {
		"hips", "pelvis", "bip01 pelvis", "root",
	},
	SlotHandLeft: {
		"mixamorig:lefthand", "hand_l", "hand.l", "lefthand", "left_hand", "l_hand",
	},
	SlotHandRight: {
		"mixamorig:righthand", "hand_r", "hand.r", "righthand", "right_hand", "r_hand",
	},
}

// BoneNotFoundError reports an unresolvable attachment slot. Callers fall
// back to the skeleton root with a user-facing warning; the engine never
// silently guesses a bone.
type BoneNotFoundError struct {
	Slot Slot
}

func (e *BoneNotFoundError) Error() string {
	return fmt.Sprintf("attach: no bone matches any alias for slot %s", e.Slot)
}

// ResolveBone finds the skeleton bone for a slot: each alias is tried as an
// exact case-insensitive match first, then all aliases again by substring
// containment in either direction. First match wins, deterministic by alias
// order.
func ResolveBone(skel *skeleton.Skeleton, slot Slot) (int, error) {
	aliases := slotAliases[slot]
	for _, alias := range aliases {
		if i := skel.Find(alias); i >= 0 {
			return i, nil
		}
	}
	for _, alias := range aliases {
		if i := skel.FindSubstring(alias); i >= 0 {
			return i, nil
		}
	}
	return -1, &BoneNotFoundError{Slot: slot}
}
