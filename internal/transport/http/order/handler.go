package order

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/alim-webecc/ha-tms/internal/dto"
	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/internal/presentation/http/response"
	service "github.com/alim-webecc/ha-tms/internal/service/order"
	"github.com/alim-webecc/ha-tms/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/alim-webecc/ha-tms/transport/http/order")

// Servicer is the order service surface the handlers need. Satisfied by
// *service.Service; narrow interface for testability.
type Servicer interface {
	Create(ctx context.Context, req service.CreateRequest) (*entity.Order, error)
	Get(ctx context.Context, id int64) (*entity.Order, error)
	List(ctx context.Context, req service.ListRequest) ([]entity.Order, error)
	Update(ctx context.Context, id int64, body []byte) (*entity.Order, error)
	Delete(ctx context.Context, id int64, body []byte) (*entity.Order, error)
	NextOrderNumber(ctx context.Context) (int64, error)
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc Servicer
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// NewHandlerWith constructs a Handler around any Servicer.
func NewHandlerWith(svc Servicer) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/next-number", h.nextNumber)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

// orderID decodes the :id path parameter once at the boundary. Anything but
// a positive integer literal is rejected before storage is touched.
func orderID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id")
	}
	return id, nil
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	req := service.ListRequest{
		TenantID: c.QueryParam("tenantId"),
		Status:   c.QueryParam("status"),
		FromZip:  c.QueryParam("fromZip"),
		ToZip:    c.QueryParam("toZip"),
	}

	var err error
	if req.Limit, err = queryIntPtr(c, "limit"); err != nil {
		return b.WithError(err).Build()
	}
	if req.Offset, err = queryInt(c, "offset"); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithField("items", dto.FromOrders(orders)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req service.CreateRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	defer span.End()

	order, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("order.number", order.OrderNumber))

	return b.WithStatus(http.StatusCreated).WithField("order", dto.FromOrder(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if order == nil {
		// Absence is a 200 with a null item, per the published contract.
		return b.WithField("item", nil).Build()
	}

	return b.WithField("item", dto.FromOrder(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return b.WithError(errorbank.BadRequest("unreadable body", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Update(ctx, id, body)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithField("item", dto.FromOrder(order)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	// The delete body is optional; read failures degrade to no reason.
	body, _ := io.ReadAll(c.Request().Body)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Delete(ctx, id, body)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithField("item", dto.FromOrder(order)).Build()
}

func (h *Handler) nextNumber(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.nextNumber")
	defer span.End()

	number, err := h.svc.NextOrderNumber(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithField("number", number).Build()
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err))
	}
	return n, nil
}

// queryIntPtr keeps an absent parameter distinguishable from an explicit
// zero: nil means the caller sent nothing and downstream defaults apply.
func queryIntPtr(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err))
	}
	return &n, nil
}
