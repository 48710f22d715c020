package state

import "strconv"

// VersionTag identifies the physical layout of a Record.
// Values are append-only: a tag is never reused or reordered.
type VersionTag uint8

const (
	TagV0 VersionTag = 0

	// LatestTag is the layout new records are built with.
	// Bump it together with adding a layout type.
	LatestTag = TagV0
)

// Known reports whether this build has a layout for t.
func (t VersionTag) Known() bool {
	return t <= LatestTag
}

func (t VersionTag) String() string {
	return "v" + strconv.Itoa(int(t))
}
