package domain

import "strings"

// Flags is a fixed-width set of mutation markers carried by work nodes.
type Flags uint8

const (
	NoFlags Flags = 0
	// Placement means "insert or move this host node".
	Placement Flags = 1 << 1
	// Update means "apply an in-place content or attribute change".
	Update Flags = 1 << 2
	// ChildDeletion means "one or more children must leave the host tree".
	ChildDeletion Flags = 1 << 4

	// MutationMask is every flag the commit phase acts on.
	MutationMask = Placement | Update | ChildDeletion
)

// Has reports whether any bit of other is set in f.
func (f Flags) Has(other Flags) bool { return f&other != NoFlags }

// Union returns f | other.
func (f Flags) Union(other Flags) Flags { return f | other }

// Clear returns f without the bits of other.
func (f Flags) Clear(other Flags) Flags { return f &^ other }

func (f Flags) String() string {
	if f == NoFlags {
		return "None"
	}
	var parts []string
	if f.Has(Placement) {
		parts = append(parts, "Placement")
	}
	if f.Has(Update) {
		parts = append(parts, "Update")
	}
	if f.Has(ChildDeletion) {
		parts = append(parts, "ChildDeletion")
	}
	if rest := f.Clear(MutationMask); rest != NoFlags {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}
