// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/exploreiib/pharma-net/internal/config"
	"github.com/exploreiib/pharma-net/internal/contract"
	"github.com/exploreiib/pharma-net/internal/gateway"
	"github.com/exploreiib/pharma-net/internal/handlers"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/metrics"
	"github.com/exploreiib/pharma-net/internal/middleware"
	"github.com/exploreiib/pharma-net/internal/utils"
)

// Server is the HTTP gateway and the resources it owns.
type Server struct {
	Engine  *gin.Engine
	Gateway *gateway.Gateway
	limiter *middleware.RateLimiter
}

// Close stops background work started by Initialize.
func (s *Server) Close() {
	s.limiter.Stop()
}

func Initialize(store ledger.Store, cfg *config.Config, log logrus.FieldLogger) *Server {
	// Wire the contract and gateway
	operationMetrics := metrics.New()
	pharmanet := contract.New(log)
	gw := gateway.New(store, pharmanet, gateway.NewProfiles(cfg.Organizations), log,
		gateway.WithMetrics(operationMetrics))

	// Initialize handlers
	registrationHandler := handlers.NewRegistrationHandler(gw)
	transferHandler := handlers.NewTransferHandler(gw)
	lifecycleHandler := handlers.NewLifecycleHandler(gw)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())

	r.GET("/", handlers.Welcome)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":        "healthy",
			"version":       "1.0.0",
			"ledger":        cfg.Ledger.Backend,
			"organizations": gw.Organizations(),
		})
	})

	r.GET("/metrics", gin.WrapH(operationMetrics.Handler()))

	api := r.Group("")
	api.Use(limiter.Middleware())
	if cfg.JWT.SecretKey != "" {
		api.Use(middleware.OrganizationAuth(cfg.JWT.Required))
	}

	register := api.Group("/register")
	{
		register.POST("/registerCompany", registrationHandler.RegisterCompany)
		register.POST("/addDrug", registrationHandler.AddDrug)
	}

	transfer := api.Group("/transfer")
	{
		transfer.POST("/createPO", transferHandler.CreatePO)
		transfer.POST("/createShipment", transferHandler.CreateShipment)
		transfer.POST("/updateShipment", transferHandler.UpdateShipment)
		transfer.POST("/retailDrug", transferHandler.RetailDrug)
	}

	view := api.Group("/view")
	{
		view.POST("/viewHistory", lifecycleHandler.ViewHistory)
		view.POST("/viewCurrentState", lifecycleHandler.ViewCurrentState)
	}

	return &Server{Engine: r, Gateway: gw, limiter: limiter}
}
