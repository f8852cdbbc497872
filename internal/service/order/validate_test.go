package order

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/pkg/errorbank"
)

func TestDecodePatchNullKeepsStoredValue(t *testing.T) {
	patch, err := decodePatch([]byte(`{"remark":null,"status":"geschlossen"}`))
	require.NoError(t, err)

	assert.Nil(t, patch.Remark)
	require.NotNil(t, patch.Status)
	assert.Equal(t, entity.StatusClosed, *patch.Status)
}

func TestDecodePatchAllNullIsEmpty(t *testing.T) {
	_, err := decodePatch([]byte(`{"remark":null,"shipper":null}`))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestDecodePatchRejectsUnknownField(t *testing.T) {
	_, err := decodePatch([]byte(`{"order_number":99}`))
	require.Error(t, err)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindValidation, appErr.Kind())
}

func TestDecodePatchRejectsMalformedJSON(t *testing.T) {
	_, err := decodePatch([]byte(`{"remark":`))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestDecodePatchRejectsWrongType(t *testing.T) {
	_, err := decodePatch([]byte(`{"price_customer":"teuer"}`))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestDecodePatchRejectsDeletedStatus(t *testing.T) {
	_, err := decodePatch([]byte(`{"status":"gelöscht"}`))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestDecodePatchRejectsOverlongString(t *testing.T) {
	long := strings.Repeat("x", maxZipLen+1)
	_, err := decodePatch([]byte(`{"from_zip":"` + long + `"}`))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestDecodePatchParsesDates(t *testing.T) {
	patch, err := decodePatch([]byte(`{"pickup_date":"2025-03-09"}`))
	require.NoError(t, err)

	require.NotNil(t, patch.PickupDate)
	assert.Equal(t, 2025, patch.PickupDate.Year())
	assert.Equal(t, time.March, patch.PickupDate.Month())
	assert.Equal(t, 9, patch.PickupDate.Day())
}

func TestParseDateTruncatesTimestamps(t *testing.T) {
	parsed, err := parseDate("2025-03-09T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := parseDate("09.03.2025")
	require.Error(t, err)
}

func TestBuildOrderRejectsOverlongShipper(t *testing.T) {
	svc := newTestService(&storeMock{}, nil)

	long := strings.Repeat("a", maxShipperLen+1)
	_, err := svc.buildOrder(CreateRequest{Shipper: &long})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestBuildOrderRejectsNonFinitePrice(t *testing.T) {
	svc := newTestService(&storeMock{}, nil)

	// JSON never produces these, but internal callers can.
	inf := math.Inf(1)
	_, err := svc.buildOrder(CreateRequest{PriceCustomer: &inf})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestBuildOrderKeepsExplicitTenant(t *testing.T) {
	svc := newTestService(&storeMock{}, nil)

	tenant := "DE"
	order, err := svc.buildOrder(CreateRequest{TenantID: &tenant})
	require.NoError(t, err)
	assert.Equal(t, "DE", order.TenantID)
}

func TestBuildFilterValidatesStatus(t *testing.T) {
	svc := newTestService(&storeMock{}, nil)

	_, err := svc.buildFilter(ListRequest{Status: "unbekannt"})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindValidation, errorbank.From(err).Kind())
}

func TestBuildFilterPassesZipRange(t *testing.T) {
	svc := newTestService(&storeMock{}, nil)

	limit := 10
	filter, err := svc.buildFilter(ListRequest{FromZip: "20095", ToZip: "50667", Limit: &limit, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, "20095", filter.FromZip)
	assert.Equal(t, "50667", filter.ToZip)
	require.NotNil(t, filter.Limit)
	assert.Equal(t, 10, *filter.Limit)
	assert.Equal(t, 20, filter.Offset)
}

func TestBuildFilterKeepsExplicitZeroLimit(t *testing.T) {
	svc := newTestService(&storeMock{}, nil)

	zero := 0
	filter, err := svc.buildFilter(ListRequest{Limit: &zero})
	require.NoError(t, err)
	require.NotNil(t, filter.Limit)
	assert.Equal(t, 0, *filter.Limit)

	filter, err = svc.buildFilter(ListRequest{})
	require.NoError(t, err)
	assert.Nil(t, filter.Limit)
}
