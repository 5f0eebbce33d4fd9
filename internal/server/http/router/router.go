package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/server/http/handlers"
	"github.com/polkiloo/receiptwatch/internal/server/http/middleware"
)

const metricsPath = "/metrics"

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.ReceiptWatchFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{metricsPath})))

	receiptHandler := handlers.NewReceiptHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	merchantHandler := handlers.NewMerchantHandler(facade)
	opsHandler := handlers.NewOperationsHandler(facade, cfg.ScheduleTimezone)

	engine.GET("/healthz", opsHandler.Health)
	engine.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.Use(middleware.AuthRequired(facade))
	api.POST("/receipts/extract", receiptHandler.Extract)
	api.GET("/merchants", merchantHandler.List)

	user := api.Group("/user")
	user.POST("/receipts", receiptHandler.Ingest)
	user.POST("/orders", orderHandler.Create)
	user.GET("/orders", orderHandler.List)
	user.GET("/orders/:id", orderHandler.Get)
	user.PATCH("/orders/:id", orderHandler.Correct)
	user.GET("/orders/:id/notifications", orderHandler.Notifications)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	admin.POST("/merchants", merchantHandler.Upsert)
	admin.POST("/reminders/run", opsHandler.RunReminders)

	return engine
}
