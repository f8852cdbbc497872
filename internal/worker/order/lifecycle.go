package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alim-webecc/ha-tms/internal/config"
	"github.com/alim-webecc/ha-tms/internal/messaging"
	ordersvc "github.com/alim-webecc/ha-tms/internal/service/order"
	"github.com/alim-webecc/ha-tms/internal/worker"
	"github.com/alim-webecc/ha-tms/pkg/format"
)

var workerTracer = otel.Tracer("github.com/alim-webecc/ha-tms/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLifecycleHandler sets up a worker handler that writes an audit log line
// for every order lifecycle event (created, updated, deleted).
func NewLifecycleHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.lifecycle", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("order.action", event.Action))

		logger.Info("order lifecycle event",
			zap.String("action", event.Action),
			zap.Int64("id", event.ID),
			zap.String("number", format.OrderNumber(event.OrderNumber)),
			zap.String("status", event.Status),
			zap.String("tenant", event.TenantID),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
