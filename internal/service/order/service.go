package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alim-webecc/ha-tms/internal/cache"
	"github.com/alim-webecc/ha-tms/internal/config"
	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/internal/messaging"
	repo "github.com/alim-webecc/ha-tms/internal/repository/order"
	"github.com/alim-webecc/ha-tms/internal/repository/sequence"
	"github.com/alim-webecc/ha-tms/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/alim-webecc/ha-tms/service/order")

// Store is the persistence contract the service depends on. Satisfied by
// *repo.Repository; narrow interface for testability.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	List(ctx context.Context, filter repo.Filter) ([]entity.Order, error)
	Update(ctx context.Context, id int64, patch repo.Patch) (*entity.Order, error)
	SoftDelete(ctx context.Context, id int64, reason *string) (*entity.Order, error)
}

// NumberAllocator mints order numbers. Satisfied by *sequence.Allocator.
type NumberAllocator interface {
	Next(ctx context.Context) (int64, error)
}

// Service encapsulates validation and orchestration around orders.
type Service struct {
	store     Store
	allocator NumberAllocator
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	defaults  config.Orders
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Allocator  *sequence.Allocator
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Repository,
		allocator: p.Allocator,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		defaults: p.Config.Orders,
	}
}

// Create validates the payload, applies defaults, and persists a new order.
// The order number is allocated inside the store transaction; a failed
// insert burns the drawn number.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	order, err := s.buildOrder(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.store.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.warnCache("write", order.ID, err)
	}

	s.publishEvent(ctx, EventOrderCreated, order)
	return order, nil
}

// Get retrieves an order by id, consulting cache when available. Absence is
// a valid outcome: the order pointer is nil and the error is nil.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.warnCache("read", id, err)
	}

	order, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.warnCache("write", id, err)
	}

	return order, nil
}

// MustGet is Get for callers that treat absence as an error (PUT/DELETE map
// it to 404 at the boundary).
func (s *Service) MustGet(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errorbank.NotFound("order not found")
	}
	return order, nil
}

// List returns orders for one tenant, newest first, with clamped paging.
func (s *Service) List(ctx context.Context, req ListRequest) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	orders, err := s.store.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Update applies a partial update from a raw JSON body. Only fields on the
// allow-list are applied; unknown fields and empty patches are validation
// errors. JSON null keeps the stored value.
func (s *Service) Update(ctx context.Context, id int64, body []byte) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	patch, err := decodePatch(body)
	if err != nil {
		return nil, err
	}

	order, err := s.store.Update(ctx, id, patch)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.warnCache("write", id, err)
	}

	s.publishEvent(ctx, EventOrderUpdated, order)
	return order, nil
}

// Delete soft-deletes an order. The body may carry an optional reason; an
// unparsable body degrades to "no reason supplied" rather than failing.
func (s *Service) Delete(ctx context.Context, id int64, body []byte) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.store.SoftDelete(ctx, id, deleteReason(body))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.warnCache("write", id, err)
	}

	s.publishEvent(ctx, EventOrderDeleted, order)
	return order, nil
}

// NextOrderNumber allocates a fresh order number. The value is burned
// whether or not an order is ever created with it.
func (s *Service) NextOrderNumber(ctx context.Context) (int64, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.NextOrderNumber")
	defer span.End()

	number, err := s.allocator.Next(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocation error")
		return 0, errorbank.Internal("failed to allocate order number", errorbank.WithCause(err))
	}
	return number, nil
}

// deleteReason leniently extracts a remark from the delete body. Garbage in,
// no reason out.
func deleteReason(body []byte) *string {
	if len(body) == 0 {
		return nil
	}
	var payload struct {
		Remark *string `json:"remark"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload.Remark
}

func (s *Service) warnCache(op string, id int64, err error) {
	if s.logger != nil {
		s.logger.Warn("orders cache "+op+" failed", zap.Int64("id", id), zap.Error(err))
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

// Lifecycle event actions.
const (
	EventOrderCreated = "created"
	EventOrderUpdated = "updated"
	EventOrderDeleted = "deleted"
)

// OrderEvent is emitted on the message bus after every successful mutation.
type OrderEvent struct {
	Action      string    `json:"action"`
	ID          int64     `json:"id"`
	OrderNumber int64     `json:"order_number"`
	Status      string    `json:"status"`
	TenantID    string    `json:"tenant_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (s *Service) publishEvent(ctx context.Context, action string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderEvent{
		Action:      action,
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TenantID:    order.TenantID,
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.String("action", action), zap.Error(err))
		}
	}
}
