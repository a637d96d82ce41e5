package domain

import (
	"strings"

	"cargo-pipeline/internal/core/apperr"
)

// The functions in this file decide whether a transition is legal given the
// entities as they were just read. They never touch storage; the engine applies
// the returned decision with guarded writes.

// CheckRegister validates a new order before intake.
func CheckRegister(o Order) error {
	var bad []string
	if o.Quantity <= 0 {
		bad = append(bad, "quantity must be greater than zero")
	}
	if strings.TrimSpace(o.ProductName) == "" {
		bad = append(bad, "product_name is required")
	}
	if len(bad) > 0 {
		return apperr.Validation("invalid order: %s", strings.Join(bad, "; "))
	}
	return nil
}

// PlanQuote prices an order. Quoting is allowed while pending and may be repeated
// while the order is still quoted; the same input always yields the same total.
func PlanQuote(o Order, in QuoteInput) (Quote, error) {
	q, err := BuildQuote(in, o.Quantity)
	if err != nil {
		return Quote{}, err
	}
	if !o.State.IsPending() && o.State != OrderQuoted {
		return Quote{}, apperr.Conflict("order %d is no longer open for quoting (state %d)", o.ID, o.State)
	}
	return q, nil
}

// QuoteSources are the order states Quote may overwrite.
var QuoteSources = []OrderState{OrderPending, OrderUnderReview, OrderQuoted}

// orderAdvances lists the forward moves that are not produced by a cascade.
var orderAdvances = map[OrderState]OrderState{
	OrderQuoted:         OrderProcessing,
	OrderProcessing:     OrderReadyToPack,
	OrderReceived:       OrderReadyToDeliver,
	OrderReadyToDeliver: OrderDelivered,
}

// PlanAdvanceOrder checks a manual order move. It reports noop when the order is
// already at next.
func PlanAdvanceOrder(o Order, next OrderState) (noop bool, err error) {
	if !next.Valid() {
		return false, apperr.Validation("unknown order state %d", next)
	}
	if o.State == next {
		return true, nil
	}
	if orderAdvances[o.State] != next {
		return false, apperr.Conflict("order %d cannot move from state %d to %d", o.ID, o.State, next)
	}
	return false, nil
}

// PackSources are the order states from which an order may be (re)packed.
var PackSources = []OrderState{OrderReadyToPack, OrderPacked, OrderInContainer}

// PlanPackOrder decides the state an order takes when packed into b. c is b's
// container, nil when the box is loose.
func PlanPackOrder(o Order, b Box, c *Container) (OrderState, error) {
	if o.State.IsShipped() {
		return 0, apperr.Conflict("order %d already shipped", o.ID)
	}
	if o.State < OrderReadyToPack {
		return 0, apperr.Conflict("order %d is not ready to pack (state %d)", o.ID, o.State)
	}
	if b.State.Locked() {
		return 0, apperr.Conflict("box %d already shipped", b.ID)
	}
	if c != nil && c.State.Locked() {
		return 0, apperr.Conflict("container %d already shipped", c.ID)
	}

	if b.InContainer() && b.State == BoxPacked {
		return OrderInContainer, nil
	}
	return OrderPacked, nil
}

// PlanUnpackOrder checks that o can leave its box b. c is b's container, if any.
func PlanUnpackOrder(o Order, b Box, c *Container) error {
	if o.BoxID == nil {
		return apperr.Conflict("order %d is not packed", o.ID)
	}
	if o.State.IsShipped() {
		return apperr.Conflict("order %d already shipped", o.ID)
	}
	if b.State.Locked() {
		return apperr.Conflict("box %d already shipped", b.ID)
	}
	if c != nil && c.State.Locked() {
		return apperr.Conflict("container %d already shipped", c.ID)
	}
	return nil
}

// PlanPackBox checks that b, holding orderCount orders, can go into c. It reports
// resume when b is already assigned to c, in which case only the order cascade is
// re-applied.
func PlanPackBox(b Box, c Container, orderCount int) (resume bool, err error) {
	if c.State.Locked() {
		return false, apperr.Conflict("container %d already shipped", c.ID)
	}
	if b.State.Locked() {
		return false, apperr.Conflict("box %d already shipped", b.ID)
	}
	if b.InContainer() && *b.ContainerID != c.ID {
		return false, apperr.Conflict("box %d is already in container %d", b.ID, *b.ContainerID)
	}
	if orderCount == 0 {
		return false, apperr.Validation("box %d is empty", b.ID)
	}
	return b.InContainer(), nil
}

// PlanUnpackBox checks that b can be taken out of its container. expected is the
// container the caller believes b is in; current is the container b is actually in.
func PlanUnpackBox(b Box, expected, current *Container) error {
	if expected != nil {
		if expected.State.Locked() {
			return apperr.Conflict("container %d already shipped", expected.ID)
		}
		if b.ContainerID == nil || *b.ContainerID != expected.ID {
			return apperr.Conflict("box %d is no longer in container %d", b.ID, expected.ID)
		}
	}
	if b.State.Locked() {
		return apperr.Conflict("box %d already shipped", b.ID)
	}
	if current != nil && current.State.Locked() {
		return apperr.Conflict("container %d already shipped", current.ID)
	}
	return nil
}

// PlanAdvanceBox checks a box move past shipping and returns the state its orders
// take. The air-only shortcut lets a box jump from shipped straight to completed
// when every order in it ships by air. Repeating the current state is allowed so
// an interrupted cascade can be resumed.
func PlanAdvanceBox(b Box, next BoxState, orders []Order) (OrderState, error) {
	if !next.Valid() {
		return 0, apperr.Validation("unknown box state %d", next)
	}
	target := OrderStateForBox(next)

	switch {
	case next == b.State && next >= BoxShipped:
		return target, nil
	case next < b.State:
		return 0, apperr.Conflict("box %d is already past state %d", b.ID, next)
	case b.State == BoxShipped && next == BoxReceived,
		b.State == BoxReceived && next == BoxCompleted:
		return target, nil
	case b.State == BoxShipped && next == BoxCompleted:
		if !IsAirOnly(orders) {
			return 0, apperr.Conflict("box %d can skip to completed only when every order ships by air", b.ID)
		}
		return target, nil
	}
	return 0, apperr.Conflict("box %d cannot move from state %d to %d", b.ID, b.State, next)
}

// PlanSendContainer checks that c can be sent with details. boxCount is the number
// of boxes in c; complete reports whether every box and order already reflects a
// sent container. It reports resume when c was sent but its cascade was interrupted.
func PlanSendContainer(c Container, details ShipmentDetails, boxCount int, complete bool) (Shipment, bool, error) {
	shipment, err := details.Parse()
	if err != nil {
		return Shipment{}, false, err
	}

	switch c.State {
	case ContainerLoading:
		if boxCount == 0 {
			return Shipment{}, false, apperr.Conflict("container %d has no boxes", c.ID)
		}
		return shipment, false, nil
	case ContainerShipped:
		if complete {
			return Shipment{}, false, apperr.Conflict("container %d already shipped", c.ID)
		}
		return shipment, true, nil
	}
	return Shipment{}, false, apperr.Conflict("container %d is not loading (state %d)", c.ID, c.State)
}

// PlanSendBox checks the direct send of b, which holds orderCount orders. It reports
// resume when b was sent but some of its orders were not updated.
func PlanSendBox(b Box, orderCount int, complete bool) (resume bool, err error) {
	if orderCount == 0 {
		return false, apperr.Validation("box %d is empty", b.ID)
	}
	if b.InContainer() {
		return false, apperr.Conflict("box %d is in container %d; send the container instead", b.ID, *b.ContainerID)
	}
	switch {
	case b.State == BoxShipped && !complete:
		return true, nil
	case b.State >= BoxInContainer:
		return false, apperr.Conflict("box %d already shipped", b.ID)
	}
	return false, nil
}

// CheckDeleteBox checks that b can be removed. c is b's container, if any.
func CheckDeleteBox(b Box, c *Container, orderCount int) error {
	if b.State.Locked() {
		return apperr.Conflict("box %d already shipped", b.ID)
	}
	if c != nil && c.State.Locked() {
		return apperr.Conflict("container %d already shipped", c.ID)
	}
	if orderCount > 0 {
		return apperr.Conflict("box %d still holds %d orders", b.ID, orderCount)
	}
	return nil
}

// CheckDeleteContainer checks that c can be removed.
func CheckDeleteContainer(c Container, boxCount int) error {
	if c.State.Locked() {
		return apperr.Conflict("container %d already shipped", c.ID)
	}
	if boxCount > 0 {
		return apperr.Conflict("container %d still holds %d boxes", c.ID, boxCount)
	}
	return nil
}

// CheckAttachLabel checks that a label URL can be stored on o.
func CheckAttachLabel(o Order, url string) error {
	if err := validate.Var(url, "required,url"); err != nil {
		return apperr.Validation("label url %q is not a valid URL", url)
	}
	if o.State < OrderQuoted {
		return apperr.Conflict("order %d has not been quoted", o.ID)
	}
	return nil
}
