package order

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alim-webecc/ha-tms/internal/entity"
	repo "github.com/alim-webecc/ha-tms/internal/repository/order"
	"github.com/alim-webecc/ha-tms/pkg/errorbank"
)

// Field length bounds, matching the persisted column sizes.
const (
	maxShipperLen   = 255
	maxCarrierLen   = 255
	maxZipLen       = 20
	maxRemarkLen    = 2000
	maxTenantLen    = 50
	maxCreatedByLen = 100
)

const dateLayout = "2006-01-02"

// CreateRequest is the external create payload. All fields are optional;
// defaults are applied by the service.
type CreateRequest struct {
	Status        *string  `json:"status"`
	Shipper       *string  `json:"shipper"`
	Carrier       *string  `json:"carrier"`
	FromZip       *string  `json:"from_zip"`
	ToZip         *string  `json:"to_zip"`
	PickupDate    *string  `json:"pickup_date"`
	DropoffDate   *string  `json:"dropoff_date"`
	PriceCustomer *float64 `json:"price_customer"`
	PriceCarrier  *float64 `json:"price_carrier"`
	Ldm           *float64 `json:"ldm"`
	WeightKg      *float64 `json:"weight_kg"`
	Remark        *string  `json:"remark"`
	TenantID      *string  `json:"tenant_id"`
	CreatedBy     *string  `json:"created_by"`
}

// ListRequest narrows a list query. Zero values fall back to configured
// defaults; Limit is a pointer so an explicit zero stays distinguishable
// from an absent parameter.
type ListRequest struct {
	TenantID string
	Status   string
	FromZip  string
	ToZip    string
	Limit    *int
	Offset   int
}

// updatableFields is the single allow-list of externally updatable fields.
// Identity, tenancy, authorship and bookkeeping columns are deliberately
// absent; requests naming anything else are rejected.
var updatableFields = map[string]struct{}{
	"status":         {},
	"remark":         {},
	"shipper":        {},
	"carrier":        {},
	"from_zip":       {},
	"to_zip":         {},
	"pickup_date":    {},
	"dropoff_date":   {},
	"price_customer": {},
	"price_carrier":  {},
	"ldm":            {},
	"weight_kg":      {},
}

func (s *Service) buildOrder(req CreateRequest) (*entity.Order, error) {
	status := entity.StatusOpen
	if req.Status != nil {
		if !entity.IsActiveStatus(*req.Status) {
			return nil, invalidStatus(*req.Status)
		}
		status = *req.Status
	}

	tenant := s.defaults.DefaultTenant
	if req.TenantID != nil && *req.TenantID != "" {
		if err := checkLen("tenant_id", *req.TenantID, maxTenantLen); err != nil {
			return nil, err
		}
		tenant = *req.TenantID
	}

	createdBy := s.defaults.DefaultCreatedBy
	if req.CreatedBy != nil && *req.CreatedBy != "" {
		if err := checkLen("created_by", *req.CreatedBy, maxCreatedByLen); err != nil {
			return nil, err
		}
		createdBy = *req.CreatedBy
	}

	if err := checkOptionalLen("shipper", req.Shipper, maxShipperLen); err != nil {
		return nil, err
	}
	if err := checkOptionalLen("carrier", req.Carrier, maxCarrierLen); err != nil {
		return nil, err
	}
	if err := checkOptionalLen("from_zip", req.FromZip, maxZipLen); err != nil {
		return nil, err
	}
	if err := checkOptionalLen("to_zip", req.ToZip, maxZipLen); err != nil {
		return nil, err
	}
	if err := checkOptionalLen("remark", req.Remark, maxRemarkLen); err != nil {
		return nil, err
	}
	if err := checkFinite("price_customer", req.PriceCustomer); err != nil {
		return nil, err
	}
	if err := checkFinite("price_carrier", req.PriceCarrier); err != nil {
		return nil, err
	}
	if err := checkFinite("ldm", req.Ldm); err != nil {
		return nil, err
	}
	if err := checkFinite("weight_kg", req.WeightKg); err != nil {
		return nil, err
	}

	pickup, err := parseOptionalDate("pickup_date", req.PickupDate)
	if err != nil {
		return nil, err
	}
	dropoff, err := parseOptionalDate("dropoff_date", req.DropoffDate)
	if err != nil {
		return nil, err
	}

	return &entity.Order{
		Status:        status,
		Shipper:       req.Shipper,
		Carrier:       req.Carrier,
		FromZip:       req.FromZip,
		ToZip:         req.ToZip,
		PickupDate:    pickup,
		DropoffDate:   dropoff,
		PriceCustomer: req.PriceCustomer,
		PriceCarrier:  req.PriceCarrier,
		Ldm:           req.Ldm,
		WeightKg:      req.WeightKg,
		Remark:        req.Remark,
		TenantID:      tenant,
		CreatedBy:     &createdBy,
	}, nil
}

func (s *Service) buildFilter(req ListRequest) (repo.Filter, error) {
	tenant := req.TenantID
	if tenant == "" {
		tenant = s.defaults.DefaultTenant
	}
	if err := checkLen("tenantId", tenant, maxTenantLen); err != nil {
		return repo.Filter{}, err
	}

	if req.Status != "" && !entity.IsActiveStatus(req.Status) {
		return repo.Filter{}, invalidStatus(req.Status)
	}
	if err := checkLen("from_zip", req.FromZip, maxZipLen); err != nil {
		return repo.Filter{}, err
	}
	if err := checkLen("to_zip", req.ToZip, maxZipLen); err != nil {
		return repo.Filter{}, err
	}

	return repo.Filter{
		TenantID: tenant,
		Status:   req.Status,
		FromZip:  req.FromZip,
		ToZip:    req.ToZip,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}, nil
}

// decodePatch turns a raw update body into a storage patch. Unknown fields
// are rejected, JSON null keeps the stored value, and a patch touching no
// allowed field is a validation error, not a no-op.
func decodePatch(body []byte) (repo.Patch, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return repo.Patch{}, errorbank.BadRequest("invalid JSON body", errorbank.WithCause(err))
	}

	var patch repo.Patch
	for key, raw := range fields {
		if _, ok := updatableFields[key]; !ok {
			return repo.Patch{}, errorbank.Validation("field is not updatable", errorbank.WithField(key, "not on the update allow-list"))
		}
		if string(raw) == "null" {
			// COALESCE semantics: null means keep the stored value.
			continue
		}

		var err error
		switch key {
		case "status":
			patch.Status, err = decodeStatus(raw)
		case "remark":
			patch.Remark, err = decodeString(key, raw, maxRemarkLen)
		case "shipper":
			patch.Shipper, err = decodeString(key, raw, maxShipperLen)
		case "carrier":
			patch.Carrier, err = decodeString(key, raw, maxCarrierLen)
		case "from_zip":
			patch.FromZip, err = decodeString(key, raw, maxZipLen)
		case "to_zip":
			patch.ToZip, err = decodeString(key, raw, maxZipLen)
		case "pickup_date":
			patch.PickupDate, err = decodeDate(key, raw)
		case "dropoff_date":
			patch.DropoffDate, err = decodeDate(key, raw)
		case "price_customer":
			patch.PriceCustomer, err = decodeNumber(key, raw)
		case "price_carrier":
			patch.PriceCarrier, err = decodeNumber(key, raw)
		case "ldm":
			patch.Ldm, err = decodeNumber(key, raw)
		case "weight_kg":
			patch.WeightKg, err = decodeNumber(key, raw)
		}
		if err != nil {
			return repo.Patch{}, err
		}
	}

	if patch.Empty() {
		return repo.Patch{}, errorbank.Validation("update touches no recognized fields")
	}
	return patch, nil
}

func decodeStatus(raw json.RawMessage) (*string, error) {
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, errorbank.Validation("invalid field value", errorbank.WithField("status", "must be a string"))
	}
	if !entity.IsActiveStatus(status) {
		return nil, invalidStatus(status)
	}
	return &status, nil
}

func decodeString(field string, raw json.RawMessage, maxLen int) (*string, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errorbank.Validation("invalid field value", errorbank.WithField(field, "must be a string"))
	}
	if err := checkLen(field, value, maxLen); err != nil {
		return nil, err
	}
	return &value, nil
}

func decodeDate(field string, raw json.RawMessage) (*time.Time, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errorbank.Validation("invalid field value", errorbank.WithField(field, "must be a date string"))
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, errorbank.Validation("invalid field value", errorbank.WithField(field, "must be YYYY-MM-DD or RFC 3339"))
	}
	return &t, nil
}

func decodeNumber(field string, raw json.RawMessage) (*float64, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errorbank.Validation("invalid field value", errorbank.WithField(field, "must be a finite number"))
	}
	if err := checkFinite(field, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, errorbank.Validation("invalid field value", errorbank.WithField(field, "must be YYYY-MM-DD or RFC 3339"))
	}
	return &t, nil
}

// parseDate accepts a calendar date or a full timestamp; timestamps are
// truncated to their date.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func checkLen(field, value string, maxLen int) error {
	if len(value) > maxLen {
		return errorbank.Validation("invalid field value", errorbank.WithField(field, fmt.Sprintf("must be at most %d characters", maxLen)))
	}
	return nil
}

func checkOptionalLen(field string, value *string, maxLen int) error {
	if value == nil {
		return nil
	}
	return checkLen(field, *value, maxLen)
}

func checkFinite(field string, value *float64) error {
	if value == nil {
		return nil
	}
	if math.IsNaN(*value) || math.IsInf(*value, 0) {
		return errorbank.Validation("invalid field value", errorbank.WithField(field, "must be a finite number"))
	}
	return nil
}

func invalidStatus(status string) error {
	return errorbank.Validation("invalid field value",
		errorbank.WithField("status", fmt.Sprintf("%q is not one of %s", status, strings.Join(entity.ActiveStatuses, ", "))))
}
