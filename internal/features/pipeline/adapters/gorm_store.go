package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRecord struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	ProductName   string              `gorm:"column:product_name;not null"`
	ClientName    string              `gorm:"column:client_name"`
	ClientID      string              `gorm:"column:client_id;index"`
	DeliveryType  string              `gorm:"column:delivery_type"`
	ShippingType  string              `gorm:"column:shipping_type"`
	State         int                 `gorm:"column:state;not null;index"`
	UnitQuote     decimal.NullDecimal `gorm:"column:unit_quote;type:numeric(14,2)"`
	ShippingPrice decimal.NullDecimal `gorm:"column:shipping_price;type:numeric(14,2)"`
	TotalQuote    decimal.NullDecimal `gorm:"column:total_quote;type:numeric(14,2)"`
	Height        decimal.NullDecimal `gorm:"column:height;type:numeric(10,2)"`
	Width         decimal.NullDecimal `gorm:"column:width;type:numeric(10,2)"`
	Long          decimal.NullDecimal `gorm:"column:long;type:numeric(10,2)"`
	Weight        decimal.NullDecimal `gorm:"column:weight;type:numeric(10,2)"`
	BoxID         *int64              `gorm:"column:box_id;index"`
	PDFRoutes     *string             `gorm:"column:pdf_routes"`
	CreatedAt     time.Time           `gorm:"column:created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type boxRecord struct {
	ID          int64     `gorm:"column:box_id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name"`
	State       int       `gorm:"column:state;not null;index"`
	ContainerID *int64    `gorm:"column:container_id;index"`
	CreatedAt   time.Time `gorm:"column:creation_date"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (boxRecord) TableName() string { return "boxes" }

type containerRecord struct {
	ID             int64      `gorm:"column:container_id;primaryKey;autoIncrement"`
	Name           string     `gorm:"column:name"`
	State          int        `gorm:"column:state;not null;index"`
	TrackingNumber *string    `gorm:"column:tracking_number"`
	TrackingLink   *string    `gorm:"column:tracking_link"`
	Courier        *string    `gorm:"column:courier"`
	ETA            *time.Time `gorm:"column:eta"`
	CreatedAt      time.Time  `gorm:"column:creation_date"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (containerRecord) TableName() string { return "containers" }

// GormStore implements ports.Store on a relational database through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ ports.Store = (*GormStore)(nil)

// Migrate creates or updates the pipeline tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&containerRecord{}, &boxRecord{}, &orderRecord{}); err != nil {
		return fmt.Errorf("failed to migrate pipeline tables: %w", err)
	}
	return nil
}

// Atomic runs fn inside a database transaction.
func (s *GormStore) Atomic(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Orders

func (s *GormStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	rec := orderToRecord(*o)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	o.ID = rec.ID
	o.CreatedAt = rec.CreatedAt
	return nil
}

func (s *GormStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var rec orderRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	o := rec.toDomain()
	return &o, nil
}

func (s *GormStore) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	var recs []orderRecord
	if err := s.db.WithContext(ctx).Scopes(orderScope(f)).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	out := make([]domain.Order, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *GormStore) CountOrders(ctx context.Context, f domain.OrderFilter) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&orderRecord{}).Scopes(orderScope(f)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return int(n), nil
}

func (s *GormStore) SaveQuote(ctx context.Context, id int64, q domain.Quote, from ...domain.OrderState) error {
	return s.guardedUpdate(ctx, &orderRecord{}, "order", "id", id, ints(from), nil, map[string]any{
		"unit_quote":     q.UnitQuote,
		"shipping_price": q.ShippingPrice,
		"total_quote":    q.TotalQuote,
		"height":         q.Height,
		"width":          q.Width,
		"long":           q.Long,
		"weight":         q.Weight,
		"state":          int(domain.OrderQuoted),
	})
}

func (s *GormStore) SetOrderState(ctx context.Context, id int64, to domain.OrderState, from ...domain.OrderState) error {
	return s.guardedUpdate(ctx, &orderRecord{}, "order", "id", id, ints(from), nil, map[string]any{
		"state": int(to),
	})
}

func (s *GormStore) SetOrderBox(ctx context.Context, id int64, boxID *int64, to domain.OrderState, held *domain.BoxGuard, from ...domain.OrderState) error {
	var scope func(*gorm.DB) *gorm.DB
	if held != nil {
		scope = s.boxHeld(*held)
	}
	return s.guardedUpdate(ctx, &orderRecord{}, "order", "id", id, ints(from), scope, map[string]any{
		"box_id": boxID,
		"state":  int(to),
	})
}

func (s *GormStore) SetOrderLabel(ctx context.Context, id int64, route *string) error {
	return s.guardedUpdate(ctx, &orderRecord{}, "order", "id", id, nil, nil, map[string]any{
		"pdf_routes": route,
	})
}

func (s *GormStore) CascadeOrders(ctx context.Context, c domain.OrderCascade) (int, error) {
	if len(c.BoxIDs) == 0 {
		return 0, nil
	}
	values := map[string]any{"state": int(c.To)}
	if c.Detach {
		values["box_id"] = nil
	}

	q := s.db.WithContext(ctx).Model(&orderRecord{}).Where("box_id IN ?", c.BoxIDs)
	if len(c.From) > 0 {
		q = q.Where("state IN ?", ints(c.From))
	}
	res := q.Updates(values)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to cascade orders: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Boxes

func (s *GormStore) CreateBox(ctx context.Context, b *domain.Box) error {
	rec := boxRecord{Name: b.Name, State: int(b.State), ContainerID: b.ContainerID, CreatedAt: b.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create box: %w", err)
	}
	b.ID = rec.ID
	b.CreatedAt = rec.CreatedAt
	return nil
}

func (s *GormStore) GetBox(ctx context.Context, id int64) (*domain.Box, error) {
	var rec boxRecord
	if err := s.db.WithContext(ctx).First(&rec, "box_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "box", id)
	}
	b := rec.toDomain()
	return &b, nil
}

func (s *GormStore) ListBoxes(ctx context.Context, f domain.BoxFilter) ([]domain.Box, error) {
	var recs []boxRecord
	if err := s.db.WithContext(ctx).Scopes(boxScope(f)).Order("box_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list boxes: %w", err)
	}
	out := make([]domain.Box, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *GormStore) CountBoxes(ctx context.Context, f domain.BoxFilter) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&boxRecord{}).Scopes(boxScope(f)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count boxes: %w", err)
	}
	return int(n), nil
}

func (s *GormStore) SetBoxState(ctx context.Context, id int64, to domain.BoxState, from ...domain.BoxState) error {
	return s.guardedUpdate(ctx, &boxRecord{}, "box", "box_id", id, ints(from), nil, map[string]any{
		"state": int(to),
	})
}

func (s *GormStore) SetBoxContainer(ctx context.Context, id int64, containerID *int64, to domain.BoxState, from ...domain.BoxState) error {
	var scope func(*gorm.DB) *gorm.DB
	if containerID != nil {
		scope = func(q *gorm.DB) *gorm.DB {
			return q.Where("(container_id IS NULL OR container_id = ?)", *containerID)
		}
	}
	return s.guardedUpdate(ctx, &boxRecord{}, "box", "box_id", id, ints(from), scope, map[string]any{
		"container_id": containerID,
		"state":        int(to),
	})
}

func (s *GormStore) CascadeBoxes(ctx context.Context, containerID int64, to domain.BoxState, from ...domain.BoxState) (int, error) {
	q := s.db.WithContext(ctx).Model(&boxRecord{}).Where("container_id = ?", containerID)
	if len(from) > 0 {
		q = q.Where("state IN ?", ints(from))
	}
	res := q.Update("state", int(to))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to cascade boxes: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *GormStore) DeleteBox(ctx context.Context, id int64, from ...domain.BoxState) error {
	return s.guardedDelete(ctx, &boxRecord{}, "box", "box_id", id, ints(from))
}

// Containers

func (s *GormStore) CreateContainer(ctx context.Context, c *domain.Container) error {
	rec := containerRecord{Name: c.Name, State: int(c.State), CreatedAt: c.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	c.ID = rec.ID
	c.CreatedAt = rec.CreatedAt
	return nil
}

func (s *GormStore) GetContainer(ctx context.Context, id int64) (*domain.Container, error) {
	var rec containerRecord
	if err := s.db.WithContext(ctx).First(&rec, "container_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "container", id)
	}
	c := rec.toDomain()
	return &c, nil
}

func (s *GormStore) ListContainers(ctx context.Context) ([]domain.Container, error) {
	var recs []containerRecord
	if err := s.db.WithContext(ctx).Order("container_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	out := make([]domain.Container, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *GormStore) SetContainerState(ctx context.Context, id int64, to domain.ContainerState, from ...domain.ContainerState) error {
	return s.guardedUpdate(ctx, &containerRecord{}, "container", "container_id", id, ints(from), nil, map[string]any{
		"state": int(to),
	})
}

func (s *GormStore) SetContainerShipment(ctx context.Context, id int64, sh domain.Shipment) error {
	return s.guardedUpdate(ctx, &containerRecord{}, "container", "container_id", id, nil, nil, map[string]any{
		"tracking_number": sh.TrackingNumber,
		"tracking_link":   sh.TrackingLink,
		"courier":         sh.Courier,
		"eta":             sh.ETA,
	})
}

func (s *GormStore) DeleteContainer(ctx context.Context, id int64, from ...domain.ContainerState) error {
	return s.guardedDelete(ctx, &containerRecord{}, "container", "container_id", id, ints(from))
}

// guardedUpdate applies values to the row pk = id while its state is in from. When
// nothing matched it reads the row back to tell a missing row from a guard miss.
func (s *GormStore) guardedUpdate(ctx context.Context, model any, kind, pk string, id int64, from []int, scope func(*gorm.DB) *gorm.DB, values map[string]any) error {
	q := s.db.WithContext(ctx).Model(model).Where(pk+" = ?", id)
	if len(from) > 0 {
		q = q.Where("state IN ?", from)
	}
	if scope != nil {
		q = scope(q)
	}

	res := q.Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s %d: %w", kind, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return s.missReason(ctx, model, kind, pk, id)
}

func (s *GormStore) guardedDelete(ctx context.Context, model any, kind, pk string, id int64, from []int) error {
	q := s.db.WithContext(ctx).Where(pk+" = ?", id)
	if len(from) > 0 {
		q = q.Where("state IN ?", from)
	}

	res := q.Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %d: %w", kind, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return s.missReason(ctx, model, kind, pk, id)
}

func (s *GormStore) missReason(ctx context.Context, model any, kind, pk string, id int64) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where(pk+" = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return apperr.NotFound(kind, id)
	}
	return apperr.Conflict("%s %d changed concurrently", kind, id)
}

// boxHeld restricts an order update to run only while the guarded box still
// matches. On postgres the box row is share-locked until commit, so a concurrent
// cascade over it waits for this transaction and then sees the order.
func (s *GormStore) boxHeld(g domain.BoxGuard) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		sub := s.db.Model(&boxRecord{}).Select("1").Where("boxes.box_id = ?", g.BoxID)
		if len(g.States) > 0 {
			sub = sub.Where("boxes.state IN ?", ints(g.States))
		}
		if g.PinContainer {
			if g.ContainerID == nil {
				sub = sub.Where("boxes.container_id IS NULL")
			} else {
				sub = sub.Where("boxes.container_id = ?", *g.ContainerID)
			}
		}
		if s.db.Dialector.Name() == "postgres" {
			sub = sub.Clauses(clause.Locking{Strength: clause.LockingStrengthShare})
		}
		return q.Where("EXISTS (?)", sub)
	}
}

func notFoundOr(err error, kind string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(kind, id)
	}
	return fmt.Errorf("failed to get %s %d: %w", kind, id, err)
}

func orderScope(f domain.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if len(f.BoxIDs) > 0 {
			q = q.Where("box_id IN ?", f.BoxIDs)
		}
		if len(f.States) > 0 {
			q = q.Where("state IN ?", ints(f.States))
		}
		return q
	}
}

func boxScope(f domain.BoxFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.ContainerID != nil {
			q = q.Where("container_id = ?", *f.ContainerID)
		}
		if len(f.States) > 0 {
			q = q.Where("state IN ?", ints(f.States))
		}
		return q
	}
}

func ints[S ~int](states []S) []int {
	if len(states) == 0 {
		return nil
	}
	out := make([]int, len(states))
	for i, s := range states {
		out[i] = int(s)
	}
	return out
}

// record mapping

func orderToRecord(o domain.Order) orderRecord {
	return orderRecord{
		ID:            o.ID,
		Quantity:      o.Quantity,
		ProductName:   o.ProductName,
		ClientName:    o.ClientName,
		ClientID:      o.ClientID,
		DeliveryType:  o.DeliveryType,
		ShippingType:  string(o.ShippingType),
		State:         int(o.State),
		UnitQuote:     nullDecimal(o.UnitQuote),
		ShippingPrice: nullDecimal(o.ShippingPrice),
		TotalQuote:    nullDecimal(o.TotalQuote),
		Height:        nullDecimal(o.Height),
		Width:         nullDecimal(o.Width),
		Long:          nullDecimal(o.Long),
		Weight:        nullDecimal(o.Weight),
		BoxID:         o.BoxID,
		PDFRoutes:     o.PDFRoutes,
		CreatedAt:     o.CreatedAt,
	}
}

func (r orderRecord) toDomain() domain.Order {
	return domain.Order{
		ID:            r.ID,
		Quantity:      r.Quantity,
		ProductName:   r.ProductName,
		ClientName:    r.ClientName,
		ClientID:      r.ClientID,
		DeliveryType:  r.DeliveryType,
		ShippingType:  domain.ShippingType(r.ShippingType),
		State:         domain.OrderState(r.State),
		UnitQuote:     decimalPtr(r.UnitQuote),
		ShippingPrice: decimalPtr(r.ShippingPrice),
		TotalQuote:    decimalPtr(r.TotalQuote),
		Height:        decimalPtr(r.Height),
		Width:         decimalPtr(r.Width),
		Long:          decimalPtr(r.Long),
		Weight:        decimalPtr(r.Weight),
		BoxID:         r.BoxID,
		PDFRoutes:     r.PDFRoutes,
		CreatedAt:     r.CreatedAt,
	}
}

func (r boxRecord) toDomain() domain.Box {
	return domain.Box{
		ID:          r.ID,
		Name:        r.Name,
		State:       domain.BoxState(r.State),
		ContainerID: r.ContainerID,
		CreatedAt:   r.CreatedAt,
	}
}

func (r containerRecord) toDomain() domain.Container {
	c := domain.Container{
		ID:        r.ID,
		Name:      r.Name,
		State:     domain.ContainerState(r.State),
		CreatedAt: r.CreatedAt,
	}
	if r.TrackingNumber != nil && r.ETA != nil {
		c.Shipment = &domain.Shipment{
			TrackingNumber: *r.TrackingNumber,
			TrackingLink:   deref(r.TrackingLink),
			Courier:        deref(r.Courier),
			ETA:            *r.ETA,
		}
	}
	return c
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
