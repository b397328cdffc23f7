package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	analyticsdomain "github.com/smallbiznis/shoecare/internal/analytics/domain"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	"github.com/smallbiznis/shoecare/internal/authorization"
	catalogdomain "github.com/smallbiznis/shoecare/internal/catalog/domain"
	"github.com/smallbiznis/shoecare/internal/config"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
	expensedomain "github.com/smallbiznis/shoecare/internal/expense/domain"
	"github.com/smallbiznis/shoecare/internal/observability"
	obsmiddleware "github.com/smallbiznis/shoecare/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/shoecare/internal/observability/metrics"
	obstracing "github.com/smallbiznis/shoecare/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/shoecare/internal/order/domain"
	"github.com/smallbiznis/shoecare/internal/photo"
	"github.com/smallbiznis/shoecare/internal/ratelimit"
	"github.com/smallbiznis/shoecare/internal/receipt"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.Use(gin.Recovery())
	if corsCfg, ok := corsConfig(cfg, obsCfg); ok {
		r.Use(cors.New(corsCfg))
	}
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// corsConfig allows any origin in development. Other environments need an
// explicit allowlist and serve no CORS headers without one.
func corsConfig(cfg config.Config, obsCfg observability.Config) (cors.Config, bool) {
	corsCfg := cors.DefaultConfig()
	switch {
	case len(cfg.CORSAllowedOrigins) > 0:
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	case obsCfg.Debug():
		corsCfg.AllowAllOrigins = true
	default:
		return cors.Config{}, false
	}
	corsCfg.AddAllowHeaders(actorRoleHeader, "Authorization")
	corsCfg.AddExposeHeaders("Content-Disposition", "Retry-After")
	return corsCfg, true
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// trackLimiter throttles the public tracking endpoint per client.
type trackLimiter interface {
	Allow(ctx context.Context, client string) (*ratelimit.Result, error)
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	customerSvc  customerdomain.Service
	catalogSvc   catalogdomain.Service
	orderSvc     orderdomain.Service
	expenseSvc   expensedomain.Service
	analyticsSvc analyticsdomain.Service
	receipts     *receipt.Generator
	photos       *photo.Store
	trackLimiter trackLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	CustomerSvc  customerdomain.Service
	CatalogSvc   catalogdomain.Service
	OrderSvc     orderdomain.Service
	ExpenseSvc   expensedomain.Service
	AnalyticsSvc analyticsdomain.Service
	Receipts     *receipt.Generator
	Photos       *photo.Store
	TrackLimiter *ratelimit.TrackLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		customerSvc:  p.CustomerSvc,
		catalogSvc:   p.CatalogSvc,
		orderSvc:     p.OrderSvc,
		expenseSvc:   p.ExpenseSvc,
		analyticsSvc: p.AnalyticsSvc,
		receipts:     p.Receipts,
		photos:       p.Photos,
		obsMetrics:   p.ObsMetrics,
	}
	if p.TrackLimiter != nil {
		svc.trackLimiter = p.TrackLimiter
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.ActorRole())

	// -------- Dashboard --------
	api.GET("/dashboard", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.Dashboard)

	// -------- Customers --------
	api.GET("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.ListCustomers)
	api.POST("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerCreate), s.CreateCustomer)
	api.GET("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.GetCustomerByID)

	// -------- Services --------
	api.GET("/services", s.authorize(authorization.ObjectService, authorization.ActionServiceView), s.ListServices)
	api.POST("/services", s.authorize(authorization.ObjectService, authorization.ActionServiceCreate), s.CreateService)
	api.GET("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionServiceView), s.GetServiceByID)
	api.PATCH("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionServiceUpdate), s.UpdateService)
	api.DELETE("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionServiceDelete), s.DeleteService)

	// -------- Orders --------
	api.POST("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderCreate), s.CreateOrder)
	api.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderByID)
	api.DELETE("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderDelete), s.DeleteOrder)
	api.PATCH("/orders/:id/items/:item_id/status", s.authorize(authorization.ObjectOrderItem, authorization.ActionOrderItemUpdate), s.UpdateItemStatus)
	api.POST("/orders/:id/items/:item_id/after-photo", s.authorize(authorization.ObjectOrderItem, authorization.ActionOrderItemUpdate), s.AttachAfterPhoto)
	api.POST("/orders/:id/settle", s.authorize(authorization.ObjectOrder, authorization.ActionOrderSettle), s.SettleOrder)
	api.GET("/orders/:id/receipt", s.authorize(authorization.ObjectOrder, authorization.ActionOrderReceipt), s.GetOrderReceipt)

	// -------- Expenses --------
	api.GET("/expenses", s.authorize(authorization.ObjectExpense, authorization.ActionExpenseView), s.ListExpenses)
	api.POST("/expenses", s.authorize(authorization.ObjectExpense, authorization.ActionExpenseCreate), s.CreateExpense)
	api.DELETE("/expenses/:id", s.authorize(authorization.ObjectExpense, authorization.ActionExpenseDelete), s.DeleteExpense)

	// -------- Analytics --------
	api.GET("/analytics", s.authorize(authorization.ObjectAnalytics, authorization.ActionAnalyticsView), s.GetAnalytics)
	api.GET("/analytics/export", s.authorize(authorization.ObjectAnalytics, authorization.ActionAnalyticsExport), s.ExportAnalytics)

	// -------- Audit logs --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")
	public.GET("/track/:id", s.TrackRateLimit(), s.TrackOrder)

	if s.cfg.Photo.Backend == "" || s.cfg.Photo.Backend == config.PhotoBackendLocal {
		s.engine.GET("/photos/*key", s.ServePhoto)
	}
}
