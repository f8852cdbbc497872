package app

import (
	"go.uber.org/fx"

	"github.com/alim-webecc/ha-tms/internal/cache"
	"github.com/alim-webecc/ha-tms/internal/config"
	"github.com/alim-webecc/ha-tms/internal/database"
	"github.com/alim-webecc/ha-tms/internal/logger"
	"github.com/alim-webecc/ha-tms/internal/messaging"
	"github.com/alim-webecc/ha-tms/internal/observability"
	repositoryorder "github.com/alim-webecc/ha-tms/internal/repository/order"
	"github.com/alim-webecc/ha-tms/internal/repository/sequence"
	grpcserver "github.com/alim-webecc/ha-tms/internal/server/grpc"
	httpserver "github.com/alim-webecc/ha-tms/internal/server/http"
	serviceorder "github.com/alim-webecc/ha-tms/internal/service/order"
	transporthttp "github.com/alim-webecc/ha-tms/internal/transport/http"
	"github.com/alim-webecc/ha-tms/internal/worker"
	workerorder "github.com/alim-webecc/ha-tms/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	sequence.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
