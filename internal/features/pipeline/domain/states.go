package domain

// OrderState is the numeric pipeline position of an order.
type OrderState int

const (
	OrderPending        OrderState = 1
	OrderUnderReview    OrderState = 2
	OrderQuoted         OrderState = 3
	OrderProcessing     OrderState = 4
	OrderReadyToPack    OrderState = 5
	OrderPacked         OrderState = 6
	OrderInContainer    OrderState = 7
	OrderInTransit      OrderState = 8
	OrderArrived        OrderState = 9
	OrderInCustoms      OrderState = 10
	OrderReceived       OrderState = 11
	OrderReadyToDeliver OrderState = 12
	OrderDelivered      OrderState = 13
)

// Valid reports whether s is inside the known order range.
func (s OrderState) Valid() bool {
	return s >= OrderPending && s <= OrderDelivered
}

// IsPending reports whether s is in the pending/under review band. States 1 and 2
// are treated as one band.
func (s OrderState) IsPending() bool {
	return s == OrderPending || s == OrderUnderReview
}

// IsShipped reports whether the order has left the origin warehouse.
func (s OrderState) IsShipped() bool {
	return s >= OrderInTransit
}

// BoxState is the numeric pipeline position of a box.
type BoxState int

const (
	BoxNew         BoxState = 1
	BoxPacked      BoxState = 2
	BoxInContainer BoxState = 3
	BoxShipped     BoxState = 4
	BoxReceived    BoxState = 5
	BoxCompleted   BoxState = 6
)

// Valid reports whether s is inside the known box range.
func (s BoxState) Valid() bool {
	return s >= BoxNew && s <= BoxCompleted
}

// Locked reports whether the box can no longer be repacked, unpacked or deleted.
func (s BoxState) Locked() bool {
	return s >= BoxInContainer
}

// ContainerState is the numeric pipeline position of a container.
type ContainerState int

const (
	ContainerNew     ContainerState = 1
	ContainerLoading ContainerState = 2
	ContainerShipped ContainerState = 3
)

// Valid reports whether s is inside the known container range.
func (s ContainerState) Valid() bool {
	return s >= ContainerNew && s <= ContainerShipped
}

// Locked reports whether the container has been sent.
func (s ContainerState) Locked() bool {
	return s >= ContainerShipped
}

// OrderStateForBox maps a box state onto the state its orders take when a cascade
// reaches them. The zero value means the box state has no order counterpart.
func OrderStateForBox(s BoxState) OrderState {
	switch s {
	case BoxPacked, BoxInContainer:
		return OrderInContainer
	case BoxShipped:
		return OrderArrived
	case BoxReceived:
		return OrderInCustoms
	case BoxCompleted:
		return OrderReceived
	}
	return 0
}

// orderStatesFrom returns every order state in [lo, hi).
func orderStatesFrom(lo, hi OrderState) []OrderState {
	var out []OrderState
	for s := lo; s < hi; s++ {
		out = append(out, s)
	}
	return out
}

// CascadeSources lists the order states a cascade towards target may overwrite:
// every packed state strictly below target. Cascades never move an order back.
func CascadeSources(target OrderState) []OrderState {
	return orderStatesFrom(OrderPacked, target)
}
