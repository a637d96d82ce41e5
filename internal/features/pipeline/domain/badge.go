package domain

import "fmt"

// Entity names a pipeline entity kind.
type Entity string

const (
	EntityOrder     Entity = "order"
	EntityBox       Entity = "box"
	EntityContainer Entity = "container"
)

// Category groups states for filtering and coloring.
type Category string

const (
	CategoryPending    Category = "pending"
	CategoryQuoted     Category = "quoted"
	CategoryProcessing Category = "processing"
	CategoryPacking    Category = "packing"
	CategoryShipped    Category = "shipped"
	CategoryArrived    Category = "arrived"
	CategoryDelivered  Category = "delivered"
	CategoryUnknown    Category = "unknown"
)

// Badge is the human-readable rendering of a numeric state.
type Badge struct {
	Entity   Entity   `json:"entity"`
	State    int      `json:"state"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

type badgeEntry struct {
	label    string
	category Category
}

// badges is the single source of truth for state labels.
var badges = map[Entity]map[int]badgeEntry{
	EntityOrder: {
		int(OrderPending):        {"Pending", CategoryPending},
		int(OrderUnderReview):    {"Under review", CategoryPending},
		int(OrderQuoted):         {"Quoted", CategoryQuoted},
		int(OrderProcessing):     {"Processing", CategoryProcessing},
		int(OrderReadyToPack):    {"Ready to pack", CategoryProcessing},
		int(OrderPacked):         {"Packed in box", CategoryPacking},
		int(OrderInContainer):    {"Packed in container", CategoryPacking},
		int(OrderInTransit):      {"In transit", CategoryShipped},
		int(OrderArrived):        {"Arrived in destination country", CategoryArrived},
		int(OrderInCustoms):      {"In customs", CategoryArrived},
		int(OrderReceived):       {"Received at destination warehouse", CategoryArrived},
		int(OrderReadyToDeliver): {"Ready to deliver", CategoryArrived},
		int(OrderDelivered):      {"Delivered", CategoryDelivered},
	},
	EntityBox: {
		int(BoxNew):         {"New", CategoryPending},
		int(BoxPacked):      {"Packed", CategoryPacking},
		int(BoxInContainer): {"In container", CategoryPacking},
		int(BoxShipped):     {"Shipped", CategoryShipped},
		int(BoxReceived):    {"Received", CategoryArrived},
		int(BoxCompleted):   {"Completed", CategoryDelivered},
	},
	EntityContainer: {
		int(ContainerNew):     {"New", CategoryPending},
		int(ContainerLoading): {"Loading", CategoryPacking},
		int(ContainerShipped): {"Shipped", CategoryShipped},
	},
}

// BadgeFor returns the badge of an entity state. Unknown entities or states get an
// "unknown state N" badge instead of an error.
func BadgeFor(entity Entity, state int) Badge {
	if entry, ok := badges[entity][state]; ok {
		return Badge{Entity: entity, State: state, Label: entry.label, Category: entry.category}
	}
	return Badge{
		Entity:   entity,
		State:    state,
		Label:    fmt.Sprintf("unknown state %d", state),
		Category: CategoryUnknown,
	}
}

// ParseEntity maps a raw name onto an Entity.
func ParseEntity(raw string) (Entity, bool) {
	switch Entity(raw) {
	case EntityOrder, EntityBox, EntityContainer:
		return Entity(raw), true
	}
	return "", false
}
