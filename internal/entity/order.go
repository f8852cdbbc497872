package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order status values as stored in the database. The German wire values are
// part of the external contract and must not be translated.
const (
	StatusOpen       = "offen"
	StatusInProgress = "in-bearbeitung"
	StatusClosed     = "geschlossen"
	StatusDeleted    = "gelöscht"
)

// ActiveStatuses are the states a client may set directly. The deleted
// sentinel is reachable only through a soft delete.
var ActiveStatuses = []string{StatusOpen, StatusInProgress, StatusClosed}

// IsActiveStatus reports whether s is a client-settable status.
func IsActiveStatus(s string) bool {
	for _, v := range ActiveStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Order represents a freight order stored in the relational database.
// OrderNumber is allocated from a database sequence and immutable once
// assigned; id stays the surrogate key and is never externally writable.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            int64      `bun:",pk,autoincrement"`
	OrderNumber   int64      `bun:"order_number"`
	Status        string     `bun:"status"`
	Shipper       *string    `bun:"shipper"`
	Carrier       *string    `bun:"carrier"`
	FromZip       *string    `bun:"from_zip"`
	ToZip         *string    `bun:"to_zip"`
	PickupDate    *time.Time `bun:"pickup_date"`
	DropoffDate   *time.Time `bun:"dropoff_date"`
	PriceCustomer *float64   `bun:"price_customer"`
	PriceCarrier  *float64   `bun:"price_carrier"`
	Ldm           *float64   `bun:"ldm"`
	WeightKg      *float64   `bun:"weight_kg"`
	Remark        *string    `bun:"remark"`
	TenantID      string     `bun:"tenant_id"`
	CreatedBy     *string    `bun:"created_by"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Deleted reports whether the order carries the soft-delete sentinel.
func (o *Order) Deleted() bool {
	return o.Status == StatusDeleted
}
