package sequence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/alim-webecc/ha-tms/internal/database"
)

var allocTracer = otel.Tracer("github.com/alim-webecc/ha-tms/repository/sequence")

const sequenceName = "order_number_seq"

// ErrNoValue is returned when the sequence produced no usable value. Callers
// must treat it as an allocation failure and never substitute zero: zero is a
// legal integer and would mask the fault.
var ErrNoValue = errors.New("order number sequence returned no value")

// Allocator mints order numbers from a database sequence. Values are unique
// and strictly increasing; numbers drawn for transactions that later roll
// back stay burned.
type Allocator struct {
	db *bun.DB
}

// NewAllocator wires an Allocator backed by the write connection.
func NewAllocator(conns *database.Connections) *Allocator {
	return &Allocator{db: conns.Writer}
}

// Next allocates the next order number.
func (a *Allocator) Next(ctx context.Context) (int64, error) {
	ctx, span := allocTracer.Start(ctx, "SequenceAllocator.Next")
	defer span.End()

	n, err := NextIn(ctx, a.db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocation failed")
	}
	return n, err
}

// NextIn allocates from the sequence through db, which may be a transaction
// so callers can make allocation and insert atomic.
func NextIn(ctx context.Context, db bun.IDB) (int64, error) {
	var value sql.NullInt64
	if err := db.NewRaw("SELECT nextval(?)", sequenceName).Scan(ctx, &value); err != nil {
		return 0, err
	}
	if !value.Valid {
		return 0, ErrNoValue
	}
	return value.Int64, nil
}
