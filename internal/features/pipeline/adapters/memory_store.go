package adapters

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"
)

type memoryData struct {
	mu         sync.RWMutex
	txMu       sync.Mutex // serializes writers: one Atomic unit or one plain write at a time
	orders     map[int64]domain.Order
	boxes      map[int64]domain.Box
	containers map[int64]domain.Container
	lastID     int64
	now        func() time.Time
}

// MemoryStore implements ports.Store in process memory. Writers are serialized.
// A failed Atomic unit undoes the rows it wrote and nothing else. Reads outside a
// unit may observe its writes before it completes.
type MemoryStore struct {
	*memoryData
	// undo is set on the handle passed to an Atomic fn.
	undo *[]func()
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{memoryData: &memoryData{
		orders:     make(map[int64]domain.Order),
		boxes:      make(map[int64]domain.Box),
		containers: make(map[int64]domain.Container),
		now:        time.Now,
	}}
}

var _ ports.Store = (*MemoryStore)(nil)

// Atomic runs fn and undoes the writes made through tx if it fails. Nested calls
// join the enclosing unit.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx ports.Store) error) error {
	if s.undo != nil {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var undo []func()
	tx := &MemoryStore{memoryData: s.memoryData, undo: &undo}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// write runs fn under the data lock. Outside an Atomic unit it first waits for
// any running unit to finish.
func (s *MemoryStore) write(fn func() error) error {
	if s.undo == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// put stores v under id in m and, inside a unit, records how to restore the
// previous entry. Callers hold mu.
func put[V any](s *MemoryStore, m map[int64]V, id int64, v V) {
	if s.undo != nil {
		prev, had := m[id]
		*s.undo = append(*s.undo, func() {
			if had {
				m[id] = prev
			} else {
				delete(m, id)
			}
		})
	}
	m[id] = v
}

// remove deletes id from m, recording the entry inside a unit. Callers hold mu.
func remove[V any](s *MemoryStore, m map[int64]V, id int64) {
	if prev, had := m[id]; had && s.undo != nil {
		*s.undo = append(*s.undo, func() { m[id] = prev })
	}
	delete(m, id)
}

// nextID is never rolled back, like a database sequence.
func (s *MemoryStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

// Orders

func (s *MemoryStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	return s.write(func() error {
		o.ID = s.nextID()
		if o.CreatedAt.IsZero() {
			o.CreatedAt = s.now()
		}
		put(s, s.orders, o.ID, cloneOrder(*o))
		return nil
	})
}

func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	out := cloneOrder(o)
	return &out, nil
}

func (s *MemoryStore) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if matchOrder(o, f) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountOrders(ctx context.Context, f domain.OrderFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.orders {
		if matchOrder(o, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SaveQuote(ctx context.Context, id int64, q domain.Quote, from ...domain.OrderState) error {
	return s.updateOrder(id, from, func(o *domain.Order) error {
		o.UnitQuote = &q.UnitQuote
		o.ShippingPrice = &q.ShippingPrice
		o.TotalQuote = &q.TotalQuote
		o.Height = &q.Height
		o.Width = &q.Width
		o.Long = &q.Long
		o.Weight = &q.Weight
		o.State = domain.OrderQuoted
		return nil
	})
}

func (s *MemoryStore) SetOrderState(ctx context.Context, id int64, to domain.OrderState, from ...domain.OrderState) error {
	return s.updateOrder(id, from, func(o *domain.Order) error {
		o.State = to
		return nil
	})
}

func (s *MemoryStore) SetOrderBox(ctx context.Context, id int64, boxID *int64, to domain.OrderState, held *domain.BoxGuard, from ...domain.OrderState) error {
	return s.updateOrder(id, from, func(o *domain.Order) error {
		if held != nil {
			b, ok := s.boxes[held.BoxID]
			if !ok {
				return apperr.NotFound("box", held.BoxID)
			}
			if !held.Holds(b) {
				return apperr.Conflict("box %d changed concurrently (state %d)", b.ID, b.State)
			}
		}
		o.BoxID = clonePtr(boxID)
		o.State = to
		return nil
	})
}

func (s *MemoryStore) SetOrderLabel(ctx context.Context, id int64, route *string) error {
	return s.updateOrder(id, nil, func(o *domain.Order) error {
		o.PDFRoutes = clonePtr(route)
		return nil
	})
}

func (s *MemoryStore) CascadeOrders(ctx context.Context, c domain.OrderCascade) (int, error) {
	n := 0
	err := s.write(func() error {
		for id, o := range s.orders {
			if o.BoxID == nil || !slices.Contains(c.BoxIDs, *o.BoxID) || !allowed(o.State, c.From) {
				continue
			}
			o = cloneOrder(o)
			o.State = c.To
			if c.Detach {
				o.BoxID = nil
			}
			put(s, s.orders, id, o)
			n++
		}
		return nil
	})
	return n, err
}

func (s *MemoryStore) updateOrder(id int64, from []domain.OrderState, mutate func(*domain.Order) error) error {
	return s.write(func() error {
		o, ok := s.orders[id]
		if !ok {
			return apperr.NotFound("order", id)
		}
		if !allowed(o.State, from) {
			return apperr.Conflict("order %d changed concurrently (state %d)", id, o.State)
		}
		o = cloneOrder(o)
		if err := mutate(&o); err != nil {
			return err
		}
		put(s, s.orders, id, o)
		return nil
	})
}

// Boxes

func (s *MemoryStore) CreateBox(ctx context.Context, b *domain.Box) error {
	return s.write(func() error {
		b.ID = s.nextID()
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now()
		}
		put(s, s.boxes, b.ID, cloneBox(*b))
		return nil
	})
}

func (s *MemoryStore) GetBox(ctx context.Context, id int64) (*domain.Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boxes[id]
	if !ok {
		return nil, apperr.NotFound("box", id)
	}
	out := cloneBox(b)
	return &out, nil
}

func (s *MemoryStore) ListBoxes(ctx context.Context, f domain.BoxFilter) ([]domain.Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Box, 0)
	for _, b := range s.boxes {
		if matchBox(b, f) {
			out = append(out, cloneBox(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountBoxes(ctx context.Context, f domain.BoxFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, b := range s.boxes {
		if matchBox(b, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SetBoxState(ctx context.Context, id int64, to domain.BoxState, from ...domain.BoxState) error {
	return s.updateBox(id, from, func(b *domain.Box) error {
		b.State = to
		return nil
	})
}

func (s *MemoryStore) SetBoxContainer(ctx context.Context, id int64, containerID *int64, to domain.BoxState, from ...domain.BoxState) error {
	return s.updateBox(id, from, func(b *domain.Box) error {
		if containerID != nil && b.ContainerID != nil && *b.ContainerID != *containerID {
			return apperr.Conflict("box %d is already in container %d", id, *b.ContainerID)
		}
		b.ContainerID = clonePtr(containerID)
		b.State = to
		return nil
	})
}

func (s *MemoryStore) CascadeBoxes(ctx context.Context, containerID int64, to domain.BoxState, from ...domain.BoxState) (int, error) {
	n := 0
	err := s.write(func() error {
		for id, b := range s.boxes {
			if b.ContainerID == nil || *b.ContainerID != containerID || !allowed(b.State, from) {
				continue
			}
			b = cloneBox(b)
			b.State = to
			put(s, s.boxes, id, b)
			n++
		}
		return nil
	})
	return n, err
}

func (s *MemoryStore) DeleteBox(ctx context.Context, id int64, from ...domain.BoxState) error {
	return s.write(func() error {
		b, ok := s.boxes[id]
		if !ok {
			return apperr.NotFound("box", id)
		}
		if !allowed(b.State, from) {
			return apperr.Conflict("box %d changed concurrently (state %d)", id, b.State)
		}
		remove(s, s.boxes, id)
		return nil
	})
}

func (s *MemoryStore) updateBox(id int64, from []domain.BoxState, mutate func(*domain.Box) error) error {
	return s.write(func() error {
		b, ok := s.boxes[id]
		if !ok {
			return apperr.NotFound("box", id)
		}
		if !allowed(b.State, from) {
			return apperr.Conflict("box %d changed concurrently (state %d)", id, b.State)
		}
		b = cloneBox(b)
		if err := mutate(&b); err != nil {
			return err
		}
		put(s, s.boxes, id, b)
		return nil
	})
}

// Containers

func (s *MemoryStore) CreateContainer(ctx context.Context, c *domain.Container) error {
	return s.write(func() error {
		c.ID = s.nextID()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now()
		}
		put(s, s.containers, c.ID, cloneContainer(*c))
		return nil
	})
}

func (s *MemoryStore) GetContainer(ctx context.Context, id int64) (*domain.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[id]
	if !ok {
		return nil, apperr.NotFound("container", id)
	}
	out := cloneContainer(c)
	return &out, nil
}

func (s *MemoryStore) ListContainers(ctx context.Context) ([]domain.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Container, 0, len(s.containers))
	for _, c := range s.containers {
		out = append(out, cloneContainer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SetContainerState(ctx context.Context, id int64, to domain.ContainerState, from ...domain.ContainerState) error {
	return s.updateContainer(id, from, func(c *domain.Container) {
		c.State = to
	})
}

func (s *MemoryStore) SetContainerShipment(ctx context.Context, id int64, shipment domain.Shipment) error {
	return s.updateContainer(id, nil, func(c *domain.Container) {
		c.Shipment = &shipment
	})
}

func (s *MemoryStore) DeleteContainer(ctx context.Context, id int64, from ...domain.ContainerState) error {
	return s.write(func() error {
		c, ok := s.containers[id]
		if !ok {
			return apperr.NotFound("container", id)
		}
		if !allowed(c.State, from) {
			return apperr.Conflict("container %d changed concurrently (state %d)", id, c.State)
		}
		remove(s, s.containers, id)
		return nil
	})
}

func (s *MemoryStore) updateContainer(id int64, from []domain.ContainerState, mutate func(*domain.Container)) error {
	return s.write(func() error {
		c, ok := s.containers[id]
		if !ok {
			return apperr.NotFound("container", id)
		}
		if !allowed(c.State, from) {
			return apperr.Conflict("container %d changed concurrently (state %d)", id, c.State)
		}
		c = cloneContainer(c)
		mutate(&c)
		put(s, s.containers, id, c)
		return nil
	})
}

// helpers

func allowed[S comparable](current S, from []S) bool {
	return len(from) == 0 || slices.Contains(from, current)
}

func matchOrder(o domain.Order, f domain.OrderFilter) bool {
	if len(f.BoxIDs) > 0 && (o.BoxID == nil || !slices.Contains(f.BoxIDs, *o.BoxID)) {
		return false
	}
	return allowed(o.State, f.States)
}

func matchBox(b domain.Box, f domain.BoxFilter) bool {
	if f.ContainerID != nil && (b.ContainerID == nil || *b.ContainerID != *f.ContainerID) {
		return false
	}
	return allowed(b.State, f.States)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneOrder(o domain.Order) domain.Order {
	o.UnitQuote = clonePtr(o.UnitQuote)
	o.ShippingPrice = clonePtr(o.ShippingPrice)
	o.TotalQuote = clonePtr(o.TotalQuote)
	o.Height = clonePtr(o.Height)
	o.Width = clonePtr(o.Width)
	o.Long = clonePtr(o.Long)
	o.Weight = clonePtr(o.Weight)
	o.BoxID = clonePtr(o.BoxID)
	o.PDFRoutes = clonePtr(o.PDFRoutes)
	return o
}

func cloneBox(b domain.Box) domain.Box {
	b.ContainerID = clonePtr(b.ContainerID)
	return b
}

func cloneContainer(c domain.Container) domain.Container {
	c.Shipment = clonePtr(c.Shipment)
	return c
}
