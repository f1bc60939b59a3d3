package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sortify/conveyor-dashboard/docs"
	"github.com/sortify/conveyor-dashboard/internal/api/handler"
	"github.com/sortify/conveyor-dashboard/internal/api/middleware"
	"github.com/sortify/conveyor-dashboard/internal/api/visitor"
	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

// Deps are the collaborators mounted by the router.
type Deps struct {
	Visitors  *visitor.Registry
	Accounts  ports.AccountService
	Dashboard ports.DashboardService
	Probes    map[string]handler.Probe
	Cookie    middleware.CookieConfig
	Log       zerolog.Logger

	// Metrics defaults to the global prometheus registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "sortify",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no visitor state) ---
	health := handler.NewHealthHandler(d.Probes)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Pages ---
	withVisitor := middleware.Visitor(d.Visitors, d.Cookie)
	public := handler.NewPublicHandler(d.Log)
	auth := handler.NewAuthHandler(d.Accounts, d.Log)
	admin := handler.NewAdminHandler(d.Dashboard, d.Accounts)
	operator := handler.NewOperatorHandler(d.Dashboard)

	e.GET("/", public.Landing, withVisitor)
	e.GET("/login", auth.LoginPage, withVisitor, middleware.RedirectAuthenticated())
	e.POST("/login", auth.Login, withVisitor)
	e.POST("/signup", auth.SignUp, withVisitor)
	e.POST("/logout", auth.Logout, withVisitor)

	ag := e.Group("/admin", withVisitor, middleware.RequireRole(domain.RoleAdmin))
	ag.GET("", admin.Overview)
	ag.GET("/analytics", admin.Analytics)
	ag.GET("/logs", admin.Logs)
	ag.GET("/settings", admin.Settings)
	ag.PUT("/settings", admin.SaveSettings)
	ag.GET("/users", admin.Users)
	ag.POST("/users", admin.CreateUser)
	ag.PATCH("/users/:id", admin.UpdateUser)
	ag.POST("/users/:id/approve", admin.ApproveUser)
	ag.POST("/users/:id/reject", admin.RejectUser)

	og := e.Group("/operator", withVisitor, middleware.RequireRole(domain.RoleOperator))
	og.GET("", operator.View)
	og.POST("/belt/toggle", operator.ToggleBelt)
	og.POST("/belt/restart", operator.RestartBelt)
	og.PUT("/settings", operator.UpdateSettings)
	og.POST("/items/:id/report", operator.ReportIssue)

	e.RouteNotFound("/*", public.NotFound)

	return e
}

// requestLogger feeds echo's access log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
