package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alim-webecc/ha-tms/internal/config"
	"github.com/alim-webecc/ha-tms/internal/database"
	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/internal/repository/sequence"
)

var repoTracer = otel.Tracer("github.com/alim-webecc/ha-tms/repository/order")

// ErrNotFound is returned when an order is missing. Absence is a normal
// negative result, distinct from a query failure.
var ErrNotFound = errors.New("order not found")

// Filter narrows a list query. TenantID is mandatory; every list is scoped
// to exactly one tenant. A nil Limit means the caller supplied none and the
// configured default applies; a supplied value is clamped into [1, max].
type Filter struct {
	TenantID string
	Status   string
	FromZip  string
	ToZip    string
	Limit    *int
	Offset   int
}

// Patch carries a partial update. Nil fields keep the stored value; only
// non-nil fields reach the SET list.
type Patch struct {
	Status        *string
	Remark        *string
	Shipper       *string
	Carrier       *string
	FromZip       *string
	ToZip         *string
	PickupDate    *time.Time
	DropoffDate   *time.Time
	PriceCustomer *float64
	PriceCarrier  *float64
	Ldm           *float64
	WeightKg      *float64
}

// Empty reports whether the patch would touch no columns.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Remark == nil && p.Shipper == nil &&
		p.Carrier == nil && p.FromZip == nil && p.ToZip == nil &&
		p.PickupDate == nil && p.DropoffDate == nil &&
		p.PriceCustomer == nil && p.PriceCarrier == nil &&
		p.Ldm == nil && p.WeightKg == nil
}

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer          *bun.DB
	reader          *bun.DB
	queryTimeout    time.Duration
	defaultPageSize int
	maxPageSize     int
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections, cfg config.Config) *Repository {
	return &Repository{
		writer:          conns.Writer,
		reader:          conns.Reader,
		queryTimeout:    cfg.Orders.QueryTimeout,
		defaultPageSize: cfg.Orders.DefaultPageSize,
		maxPageSize:     cfg.Orders.MaxPageSize,
	}
}

// clampLimit applies the default page size only when no limit was supplied.
// An explicit limit, zero or negative included, is clamped into [1, max]: a
// caller asking for zero rows gets one, never a silent fallback to the
// default.
func (r *Repository) clampLimit(limit *int) int {
	if limit == nil {
		return r.defaultPageSize
	}
	n := *limit
	if n < 1 {
		return 1
	}
	if n > r.maxPageSize {
		return r.maxPageSize
	}
	return n
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func (r *Repository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// Create allocates an order number and inserts the row in one transaction.
// If the insert fails the transaction rolls back and the drawn number stays
// burned, which is an accepted gap in the sequence.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.tenant", order.TenantID)))
	defer span.End()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		number, err := sequence.NextIn(ctx, tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		_, err = tx.NewInsert().Model(order).Returning("*").Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when
// available. Soft-deleted orders stay reachable by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns orders for one tenant, newest first. Out-of-range paging
// values are clamped, never rejected. No rows matching is a valid empty
// result.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(attribute.String("order.tenant", filter.TenantID)))
	defer span.End()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	limit := r.clampLimit(filter.Limit)
	offset := clampOffset(filter.Offset)

	orders := make([]entity.Order, 0, limit)
	q := r.reader.NewSelect().Model(&orders).
		Where("tenant_id = ?", filter.TenantID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.FromZip != "" {
		q = q.Where("from_zip = ?", filter.FromZip)
	}
	if filter.ToZip != "" {
		q = q.Where("to_zip = ?", filter.ToZip)
	}
	err := q.OrderExpr("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Update applies only the supplied patch fields and refreshes updated_at,
// then reloads the row. Unknown ids map to ErrNotFound.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	q := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)

	if patch.Status != nil {
		q = q.Set("status = ?", *patch.Status)
	}
	if patch.Remark != nil {
		q = q.Set("remark = ?", *patch.Remark)
	}
	if patch.Shipper != nil {
		q = q.Set("shipper = ?", *patch.Shipper)
	}
	if patch.Carrier != nil {
		q = q.Set("carrier = ?", *patch.Carrier)
	}
	if patch.FromZip != nil {
		q = q.Set("from_zip = ?", *patch.FromZip)
	}
	if patch.ToZip != nil {
		q = q.Set("to_zip = ?", *patch.ToZip)
	}
	if patch.PickupDate != nil {
		q = q.Set("pickup_date = ?", *patch.PickupDate)
	}
	if patch.DropoffDate != nil {
		q = q.Set("dropoff_date = ?", *patch.DropoffDate)
	}
	if patch.PriceCustomer != nil {
		q = q.Set("price_customer = ?", *patch.PriceCustomer)
	}
	if patch.PriceCarrier != nil {
		q = q.Set("price_carrier = ?", *patch.PriceCarrier)
	}
	if patch.Ldm != nil {
		q = q.Set("ldm = ?", *patch.Ldm)
	}
	if patch.WeightKg != nil {
		q = q.Set("weight_kg = ?", *patch.WeightKg)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}

	return r.reload(ctx, id)
}

// SoftDelete marks the order deleted, optionally overwriting the remark with
// the supplied reason. Repeating the call leaves the same terminal state.
func (r *Repository) SoftDelete(ctx context.Context, id int64, reason *string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.SoftDelete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	q := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", entity.StatusDeleted).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)
	if reason != nil {
		q = q.Set("remark = ?", *reason)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}

	return r.reload(ctx, id)
}

// reload rereads a freshly mutated row from the writer so a lagging replica
// cannot serve stale state.
func (r *Repository) reload(ctx context.Context, id int64) (*entity.Order, error) {
	order := new(entity.Order)
	err := r.writer.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}
