// Package app assembles services, handlers and the fiber application.
package app

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/worklane/ticket-tracker/internal/api/http"
	"github.com/worklane/ticket-tracker/internal/api/http/handlers"
	"github.com/worklane/ticket-tracker/internal/auth"
	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/events"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/internal/service"
	"github.com/worklane/ticket-tracker/internal/worker"
)

// Dependencies are the infrastructure pieces chosen by the caller.
type Dependencies struct {
	Store   repository.Store
	Counter service.UnreadCounter
	Pingers map[string]handlers.Pinger
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   service.Clock
}

// Application exposes the wired fiber app and its services.
type Application struct {
	Fiber         *fiber.App
	Metrics       *observability.Metrics
	Actors        *service.ActorService
	Tickets       *service.TicketService
	Timers        *service.TimerService
	WorkLogs      *service.WorkLogService
	Dashboard     *service.DashboardService
	Catalog       *service.CatalogService
	Notifications *service.NotificationService
}

// New builds the application.
func New(cfg *config.Config, deps Dependencies) *Application {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	store := deps.Store
	dispatcher := events.NewInMemoryDispatcher()

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:    dispatcher,
		Notifications: store.Repos().Notifications,
		Counter:       deps.Counter,
		Clock:         deps.Clock,
		Logger:        logger.Named("notifications"),
		Metrics:       metrics,
		Config:        cfg.Notification,
	})
	worker.StartNotificationWorker(notificationService, logger)

	auditor := service.NewAuditor(service.AuditorDependencies{
		Locale:  cfg.Audit.Locale,
		Clock:   deps.Clock,
		Metrics: metrics,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Auditor:    auditor,
		Dispatcher: dispatcher,
		Clock:      deps.Clock,
		Logger:     logger.Named("tickets"),
	})
	timerService := service.NewTimerService(service.TimerDependencies{
		Store:   store,
		Clock:   deps.Clock,
		Logger:  logger.Named("timers"),
		Metrics: metrics,
	})
	workLogService := service.NewWorkLogService(service.WorkLogDependencies{Store: store, Clock: deps.Clock})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{Store: store, Clock: deps.Clock})
	catalogService := service.NewCatalogService(service.CatalogDependencies{Store: store, Clock: deps.Clock})
	actorService := service.NewActorService(cfg.Auth, service.ActorDependencies{
		Store:  store,
		Clock:  deps.Clock,
		Logger: logger.Named("actors"),
	})

	authMiddleware := auth.NewAuthMiddleware(actorService.TokenManager(), store.Repos().Actors)

	// Route params and headers are kept by the stores, so they must not alias fasthttp buffers.
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		Immutable:             true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Pingers, metrics),
		Actors:         handlers.NewActorsHandler(actorService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Tracking:       handlers.NewTrackingHandler(timerService, workLogService, dashboardService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	return &Application{
		Fiber:         app,
		Metrics:       metrics,
		Actors:        actorService,
		Tickets:       ticketService,
		Timers:        timerService,
		WorkLogs:      workLogService,
		Dashboard:     dashboardService,
		Catalog:       catalogService,
		Notifications: notificationService,
	}
}
