package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	"github.com/smallbiznis/malipo/internal/config"
	customerdomain "github.com/smallbiznis/malipo/internal/customer/domain"
	obslogger "github.com/smallbiznis/malipo/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	"github.com/smallbiznis/malipo/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	paymentSvc  paymentdomain.Service
	customerSvc customerdomain.Service
	catalogRepo catalogdomain.Repository

	submitLimiter *ratelimit.SubmitLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	PaymentSvc  paymentdomain.Service
	CustomerSvc customerdomain.Service
	CatalogRepo catalogdomain.Repository

	SubmitLimiter *ratelimit.SubmitLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("http.server"),
		paymentSvc:  p.PaymentSvc,
		customerSvc: p.CustomerSvc,
		catalogRepo: p.CatalogRepo,

		submitLimiter: p.SubmitLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerCallbackRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.POST("/payments", s.submitRateLimit(), s.SubmitPayment)
	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:id", s.GetPaymentByID)
	api.GET("/customers", s.ListCustomers)
	api.GET("/services", s.ListServices)
}

func (s *Server) registerCallbackRoutes() {
	callbacks := s.engine.Group("/callbacks")
	callbacks.POST("/daraja", s.HandleDarajaCallback)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
