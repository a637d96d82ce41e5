package domain

import (
	"slices"
	"time"
)

// Box is a physical packing unit holding orders.
type Box struct {
	ID          int64     `json:"box_id"`
	Name        string    `json:"name,omitempty"`
	State       BoxState  `json:"state"`
	ContainerID *int64    `json:"container_id"`
	CreatedAt   time.Time `json:"creation_date"`
}

// InContainer reports whether the box is assigned to a container.
func (b Box) InContainer() bool {
	return b.ContainerID != nil
}

// BoxFilter narrows box listings. Zero fields do not filter.
type BoxFilter struct {
	ContainerID *int64
	States      []BoxState
}

// OpenBoxStates are the box states in which orders may still enter or leave.
var OpenBoxStates = []BoxState{BoxNew, BoxPacked}

// BoxGuard pins the box an order write was planned against. The write applies
// only while the box is in one of States and, with PinContainer, still assigned
// to ContainerID (nil meaning loose).
type BoxGuard struct {
	BoxID        int64
	States       []BoxState
	PinContainer bool
	ContainerID  *int64
}

// Holds reports whether b still satisfies g.
func (g BoxGuard) Holds(b Box) bool {
	if b.ID != g.BoxID {
		return false
	}
	if len(g.States) > 0 && !slices.Contains(g.States, b.State) {
		return false
	}
	if !g.PinContainer {
		return true
	}
	if g.ContainerID == nil || b.ContainerID == nil {
		return g.ContainerID == nil && b.ContainerID == nil
	}
	return *g.ContainerID == *b.ContainerID
}
