package systems

import "lumen/pkg/shared/world"

// Presence is attached to every entity clients can see.
type Presence struct {
	Object world.Object
}
