package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentflow/internal/infra/config"
	"rentflow/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	UpdateStatus(c *gin.Context)
	SubmitHandoverPin(c *gin.Context)
	Get(c *gin.Context)
}

type RefundHTTP interface {
	Create(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Get(c *gin.Context)
}

type WalletHTTP interface {
	Transactions(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Refund         RefundHTTP
	Wallet         WalletHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id/status", h.Booking.UpdateStatus)
		api.POST("/bookings/:id/handover", h.Booking.SubmitHandoverPin)
	}
	if h.Refund != nil {
		api.POST("/refunds", h.Refund.Create)
		api.GET("/refunds/:id", h.Refund.Get)
		api.PATCH("/refunds/:id/status", h.Refund.UpdateStatus)
	}
	if h.Wallet != nil {
		api.GET("/wallets/:userId/transactions", h.Wallet.Transactions)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
