package domain

import (
	pipeline "cargo-pipeline/internal/features/pipeline/domain"
)

// BoxSummary is the read model shown on box lists: the box with its badge and the
// values derived from the orders it holds.
type BoxSummary struct {
	BoxID       int64             `json:"box_id"`
	Name        string            `json:"name,omitempty"`
	State       pipeline.BoxState `json:"state"`
	Badge       pipeline.Badge    `json:"badge"`
	ContainerID *int64            `json:"container_id"`
	OrderCount  int               `json:"order_count"`
	AirOnly     bool              `json:"air_only"`
}

// Summarize derives a summary per box. orders may include orders of other boxes
// or loose orders; they are ignored.
func Summarize(boxes []pipeline.Box, orders []pipeline.Order) []BoxSummary {
	byBox := make(map[int64][]pipeline.Order, len(boxes))
	for _, o := range orders {
		if o.BoxID != nil {
			byBox[*o.BoxID] = append(byBox[*o.BoxID], o)
		}
	}

	counts := pipeline.CountByBox(orders)

	out := make([]BoxSummary, 0, len(boxes))
	for _, b := range boxes {
		in := byBox[b.ID]
		out = append(out, BoxSummary{
			BoxID:       b.ID,
			Name:        b.Name,
			State:       b.State,
			Badge:       pipeline.BadgeFor(pipeline.EntityBox, int(b.State)),
			ContainerID: b.ContainerID,
			OrderCount:  counts[b.ID],
			AirOnly:     pipeline.IsAirOnly(in),
		})
	}
	return out
}
