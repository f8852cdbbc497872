package dto

import (
	"time"

	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/pkg/format"
)

const dateLayout = "2006-01-02"

// OrderResponse represents an order as exposed via transport layers. Field
// names follow the snake_case storage contract; order_number is rendered
// zero-padded to 8 digits.
type OrderResponse struct {
	ID            int64     `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	Shipper       *string   `json:"shipper"`
	Carrier       *string   `json:"carrier"`
	FromZip       *string   `json:"from_zip"`
	ToZip         *string   `json:"to_zip"`
	PickupDate    *string   `json:"pickup_date"`
	DropoffDate   *string   `json:"dropoff_date"`
	PriceCustomer *float64  `json:"price_customer"`
	PriceCarrier  *float64  `json:"price_carrier"`
	Ldm           *float64  `json:"ldm"`
	WeightKg      *float64  `json:"weight_kg"`
	Remark        *string   `json:"remark"`
	TenantID      string    `json:"tenant_id"`
	CreatedBy     *string   `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FromOrder maps a stored order onto its external representation.
func FromOrder(order *entity.Order) OrderResponse {
	return OrderResponse{
		ID:            order.ID,
		OrderNumber:   format.OrderNumber(order.OrderNumber),
		Status:        order.Status,
		Shipper:       order.Shipper,
		Carrier:       order.Carrier,
		FromZip:       order.FromZip,
		ToZip:         order.ToZip,
		PickupDate:    formatDate(order.PickupDate),
		DropoffDate:   formatDate(order.DropoffDate),
		PriceCustomer: order.PriceCustomer,
		PriceCarrier:  order.PriceCarrier,
		Ldm:           order.Ldm,
		WeightKg:      order.WeightKg,
		Remark:        order.Remark,
		TenantID:      order.TenantID,
		CreatedBy:     order.CreatedBy,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// FromOrders maps a list result; an empty input yields an empty, non-nil
// slice so the JSON stays an array.
func FromOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i]))
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
