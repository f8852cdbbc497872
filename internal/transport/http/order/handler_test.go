package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alim-webecc/ha-tms/internal/entity"
	service "github.com/alim-webecc/ha-tms/internal/service/order"
	"github.com/alim-webecc/ha-tms/pkg/errorbank"
)

type servicerMock struct {
	createFn func(ctx context.Context, req service.CreateRequest) (*entity.Order, error)
	getFn    func(ctx context.Context, id int64) (*entity.Order, error)
	listFn   func(ctx context.Context, req service.ListRequest) ([]entity.Order, error)
	updateFn func(ctx context.Context, id int64, body []byte) (*entity.Order, error)
	deleteFn func(ctx context.Context, id int64, body []byte) (*entity.Order, error)
	nextFn   func(ctx context.Context) (int64, error)
}

func (m *servicerMock) Create(ctx context.Context, req service.CreateRequest) (*entity.Order, error) {
	return m.createFn(ctx, req)
}

func (m *servicerMock) Get(ctx context.Context, id int64) (*entity.Order, error) {
	return m.getFn(ctx, id)
}

func (m *servicerMock) List(ctx context.Context, req service.ListRequest) ([]entity.Order, error) {
	return m.listFn(ctx, req)
}

func (m *servicerMock) Update(ctx context.Context, id int64, body []byte) (*entity.Order, error) {
	return m.updateFn(ctx, id, body)
}

func (m *servicerMock) Delete(ctx context.Context, id int64, body []byte) (*entity.Order, error) {
	return m.deleteFn(ctx, id, body)
}

func (m *servicerMock) NextOrderNumber(ctx context.Context) (int64, error) {
	return m.nextFn(ctx)
}

func perform(t *testing.T, svc Servicer, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	Register(e, NewHandlerWith(svc))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func sampleOrder() *entity.Order {
	shipper := "Spedition Nord GmbH"
	return &entity.Order{
		ID:          7,
		OrderNumber: 1042,
		Status:      entity.StatusOpen,
		Shipper:     &shipper,
		TenantID:    "TR",
	}
}

func TestListReturnsItemsEnvelope(t *testing.T) {
	var captured service.ListRequest
	svc := &servicerMock{
		listFn: func(_ context.Context, req service.ListRequest) ([]entity.Order, error) {
			captured = req
			return []entity.Order{*sampleOrder()}, nil
		},
	}

	rec := perform(t, svc, http.MethodGet, "/orders?tenantId=TR&status=offen&fromZip=20095&limit=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["ok"])
	items, ok := payload["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)

	assert.Equal(t, "TR", captured.TenantID)
	assert.Equal(t, entity.StatusOpen, captured.Status)
	assert.Equal(t, "20095", captured.FromZip)
	require.NotNil(t, captured.Limit)
	assert.Equal(t, 10, *captured.Limit)
}

func TestListDistinguishesAbsentAndZeroLimit(t *testing.T) {
	var captured service.ListRequest
	svc := &servicerMock{
		listFn: func(_ context.Context, req service.ListRequest) ([]entity.Order, error) {
			captured = req
			return nil, nil
		},
	}

	rec := perform(t, svc, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured.Limit, "absent limit must reach the service as nil")

	rec = perform(t, svc, http.MethodGet, "/orders?limit=0", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured.Limit)
	assert.Equal(t, 0, *captured.Limit)

	rec = perform(t, svc, http.MethodGet, "/orders?limit=-5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured.Limit)
	assert.Equal(t, -5, *captured.Limit)
}

func TestListEmptyIsAnArrayNotNull(t *testing.T) {
	svc := &servicerMock{
		listFn: func(context.Context, service.ListRequest) ([]entity.Order, error) {
			return nil, nil
		},
	}

	rec := perform(t, svc, http.MethodGet, "/orders", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestListRejectsBadLimit(t *testing.T) {
	svc := &servicerMock{}

	rec := perform(t, svc, http.MethodGet, "/orders?limit=zehn", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, false, payload["ok"])
}

func TestCreateReturns201WithOrder(t *testing.T) {
	svc := &servicerMock{
		createFn: func(_ context.Context, req service.CreateRequest) (*entity.Order, error) {
			require.NotNil(t, req.Shipper)
			return sampleOrder(), nil
		},
	}

	rec := perform(t, svc, http.MethodPost, "/orders", `{"shipper":"Spedition Nord GmbH"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["ok"])
	order, ok := payload["order"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "00001042", order["order_number"])
}

func TestCreateMapsValidationTo400(t *testing.T) {
	svc := &servicerMock{
		createFn: func(context.Context, service.CreateRequest) (*entity.Order, error) {
			return nil, errorbank.Validation("invalid field value")
		},
	}

	rec := perform(t, svc, http.MethodPost, "/orders", `{"status":"kaputt"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, false, payload["ok"])
}

func TestGetAbsentReturnsNullItem(t *testing.T) {
	svc := &servicerMock{
		getFn: func(context.Context, int64) (*entity.Order, error) {
			return nil, nil
		},
	}

	rec := perform(t, svc, http.MethodGet, "/orders/99", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["ok"])
	item, present := payload["item"]
	assert.True(t, present)
	assert.Nil(t, item)
}

func TestGetRejectsNonNumericID(t *testing.T) {
	svc := &servicerMock{}

	rec := perform(t, svc, http.MethodGet, "/orders/abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRejectsNonPositiveID(t *testing.T) {
	svc := &servicerMock{}

	rec := perform(t, svc, http.MethodGet, "/orders/0", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePassesRawBody(t *testing.T) {
	var captured []byte
	svc := &servicerMock{
		updateFn: func(_ context.Context, id int64, body []byte) (*entity.Order, error) {
			assert.Equal(t, int64(7), id)
			captured = body
			return sampleOrder(), nil
		},
	}

	rec := perform(t, svc, http.MethodPut, "/orders/7", `{"remark":null,"status":"geschlossen"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"remark":null,"status":"geschlossen"}`, string(captured))
}

func TestUpdateMapsNotFoundTo404(t *testing.T) {
	svc := &servicerMock{
		updateFn: func(context.Context, int64, []byte) (*entity.Order, error) {
			return nil, errorbank.NotFound("order not found")
		},
	}

	rec := perform(t, svc, http.MethodPut, "/orders/99", `{"remark":"weg"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, false, payload["ok"])
}

func TestDeleteReturnsDeletedItem(t *testing.T) {
	svc := &servicerMock{
		deleteFn: func(_ context.Context, id int64, body []byte) (*entity.Order, error) {
			order := sampleOrder()
			order.Status = entity.StatusDeleted
			return order, nil
		},
	}

	rec := perform(t, svc, http.MethodDelete, "/orders/7", `{"remark":"storniert"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	item, ok := payload["item"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, entity.StatusDeleted, item["status"])
}

func TestNextNumberEnvelope(t *testing.T) {
	svc := &servicerMock{
		nextFn: func(context.Context) (int64, error) { return 4711, nil },
	}

	rec := perform(t, svc, http.MethodGet, "/orders/next-number", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["ok"])
	assert.Equal(t, float64(4711), payload["number"])
}

func TestInternalErrorsReturn500WithoutCause(t *testing.T) {
	svc := &servicerMock{
		getFn: func(context.Context, int64) (*entity.Order, error) {
			return nil, errorbank.Internal("failed to load order")
		},
	}

	rec := perform(t, svc, http.MethodGet, "/orders/7", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sql")
}
