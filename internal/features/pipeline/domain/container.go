package domain

import "time"

// Container is a shipping unit holding boxes.
type Container struct {
	ID        int64          `json:"container_id"`
	Name      string         `json:"name,omitempty"`
	State     ContainerState `json:"state"`
	CreatedAt time.Time      `json:"creation_date"`
	// Shipment is captured when the container is sent. It may be nil on a shipped
	// container whose metadata failed to persist.
	Shipment *Shipment `json:"shipment,omitempty"`
}
